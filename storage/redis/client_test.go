package redis

import (
	"testing"

	"CareCompanion/config"
)

func TestKey(t *testing.T) {
	old := config.Cfg.RedisPrefix
	t.Cleanup(func() { config.Cfg.RedisPrefix = old })

	tests := []struct {
		prefix string
		parts  []string
		want   string
	}{
		{"care", []string{"lock", "generate"}, "care:lock:generate"},
		{"care", []string{"mq", "", "msg_1"}, "care:mq:msg_1"},
		{"", []string{"profile", "42"}, "care:profile:42"},
		{"test", nil, "test"},
	}

	for _, tt := range tests {
		config.Cfg.RedisPrefix = tt.prefix
		if got := Key(tt.parts...); got != tt.want {
			t.Errorf("Key(%v) with prefix %q = %q, want %q", tt.parts, tt.prefix, got, tt.want)
		}
	}
}
