package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "basic trim",
			input: "  hello  ",
			want:  "hello",
		},
		{
			name:  "multiple spaces",
			input: "hello    world",
			want:  "hello world",
		},
		{
			name:  "tabs and newlines",
			input: "hello\t\nworld",
			want:  "hello world",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "collapses whitespace", input: "  need   a\tprojector ", want: "need a projector"},
		{name: "drops control characters", input: "room\x00 please\x07", want: "room please"},
		{name: "empty", input: "", want: ""},
		{name: "idempotent", input: "need a projector", want: "need a projector"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: " 65A1B2C3D4E5F60718293A4B ", want: "65a1b2c3d4e5f60718293a4b"},
		{input: "3F2504E0-4F89-11D3-9A0C-0305E82C3301", want: "3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
		{input: " not-an-id! ", want: "not-an-id!"},
	}

	for _, tt := range tests {
		if got := SanitizeID(tt.input); got != tt.want {
			t.Errorf("SanitizeID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
