package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reIDChars = regexp.MustCompile(`^[0-9a-f-]+$`)

// SanitizeID canonicalizes an ObjectID hex or UUID string. Anything that
// cannot be an identifier is returned trimmed so validation can report it.
func SanitizeID(input string) string {
	s := strings.TrimSpace(input)
	if lowered := strings.ToLower(s); reIDChars.MatchString(lowered) {
		return lowered
	}
	return s
}

// SanitizeText cleans user-supplied free text such as booking notes and
// reject reasons.
func SanitizeText(input string) string {
	p := Pipeline{
		stripControl,
		TrimAndNormalize,
	}
	return p.Apply(input)
}
