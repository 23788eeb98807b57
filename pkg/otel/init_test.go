package otel

import "testing"

func TestWithDefaults(t *testing.T) {
	tests := []struct {
		name      string
		in        Config
		wantRatio float64
		wantEnv   string
		wantAddr  string
	}{
		{"development samples everything", Config{Environment: "development", SampleRatio: 0.2, OTLPEndpoint: "http://collector:4317"}, 1, "development", "collector:4317"},
		{"empty env is development", Config{OTLPEndpoint: "collector:4317"}, 1, "development", "collector:4317"},
		{"production default ratio", Config{Environment: "production", OTLPEndpoint: "https://otel:4317"}, 0.1, "production", "otel:4317"},
		{"production explicit ratio", Config{Environment: "production", SampleRatio: 0.5}, 0.5, "production", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := withDefaults(tt.in)
			if got.SampleRatio != tt.wantRatio {
				t.Errorf("SampleRatio = %v, want %v", got.SampleRatio, tt.wantRatio)
			}
			if got.Environment != tt.wantEnv {
				t.Errorf("Environment = %q, want %q", got.Environment, tt.wantEnv)
			}
			if got.OTLPEndpoint != tt.wantAddr {
				t.Errorf("OTLPEndpoint = %q, want %q", got.OTLPEndpoint, tt.wantAddr)
			}
		})
	}
}
