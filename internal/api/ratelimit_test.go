package api

import (
	"testing"
	"time"
)

func TestIPRateLimiterSweep(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 100, Burst: 10, CleanupInterval: time.Minute})
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	if rl.Tracked() != 2 {
		t.Fatalf("Expected 2 tracked IPs, got %d", rl.Tracked())
	}

	start := time.Now()
	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"before interval", start.Add(30 * time.Second), 2},
		{"entries still fresh", start.Add(90 * time.Second), 2},
		{"entries stale", start.Add(10 * time.Minute), 0},
	}
	for _, tt := range tests {
		rl.maybeSweep(tt.at)
		if got := rl.Tracked(); got != tt.want {
			t.Errorf("%s: Expected %d tracked IPs, got %d", tt.name, tt.want, got)
		}
	}
}

func TestIPRateLimiterDefaults(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	if rl.config.CleanupInterval != DefaultRateLimitConfig.CleanupInterval {
		t.Errorf("Expected default cleanup interval, got %v", rl.config.CleanupInterval)
	}
	if rl.config.Scope != "rate_limit" {
		t.Errorf("Expected default scope, got %q", rl.config.Scope)
	}
	if !rl.Allow("1.1.1.1") || rl.Allow("1.1.1.1") {
		t.Error("Expected burst of one")
	}
	if stats := rl.GetStats(); stats["allowed"] != 1 || stats["rejected"] != 1 {
		t.Errorf("unexpected stats %v", stats)
	}
}
