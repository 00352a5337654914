package kafka_config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != DefaultKafkaBrokers {
		t.Errorf("brokers = %v", cfg.Brokers)
	}
	if cfg.ConsumerStartOffset != DefaultConsumerStartOffset {
		t.Errorf("start offset = %d", cfg.ConsumerStartOffset)
	}
}

func TestLoad_BrokerList(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "k1:9092, k2:9092 ,k3:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"k1:9092", "k2:9092", "k3:9092"}
	for i, b := range want {
		if cfg.Brokers[i] != b {
			t.Errorf("broker %d = %q, want %q", i, cfg.Brokers[i], b)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "empty broker", env: map[string]string{EnvKafkaBrokers: "k1:9092,"}, wantErr: "Broker 1 cannot be empty"},
		{name: "bad compression", env: map[string]string{EnvKafkaProducerCompression: "brotli"}, wantErr: "ProducerCompression"},
		{name: "bad acks", env: map[string]string{EnvKafkaProducerRequireAcks: "2"}, wantErr: "ProducerRequireAcks"},
		{name: "bad offset", env: map[string]string{EnvKafkaConsumerStartOffset: "5"}, wantErr: "ConsumerStartOffset"},
		{name: "negative retries", env: map[string]string{EnvKafkaConsumerMaxRetries: "-1"}, wantErr: "ConsumerMaxRetries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
