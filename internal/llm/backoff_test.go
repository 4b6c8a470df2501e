package llm

import (
	"testing"
	"time"
)

func TestBackoffPolicy_Next(t *testing.T) {
	policy := BackoffPolicy{MaxAttempts: 5, InitialDelay: time.Second}

	tests := []struct {
		name      string
		failed    int
		wantDelay time.Duration
		wantRetry bool
	}{
		{"no failures yet", 0, 0, false},
		{"first failure", 1, time.Second, true},
		{"second failure", 2, 2 * time.Second, true},
		{"third failure", 3, 4 * time.Second, true},
		{"fourth failure", 4, 8 * time.Second, true},
		{"attempts exhausted", 5, 0, false},
		{"beyond exhausted", 6, 0, false},
		{"negative input", -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, retry := policy.Next(tt.failed)
			if retry != tt.wantRetry {
				t.Errorf("Next(%d) retry = %v, want %v", tt.failed, retry, tt.wantRetry)
			}
			if delay != tt.wantDelay {
				t.Errorf("Next(%d) delay = %v, want %v", tt.failed, delay, tt.wantDelay)
			}
		})
	}
}

func TestDefaultBackoff(t *testing.T) {
	policy := DefaultBackoff()
	if policy.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", policy.MaxAttempts)
	}
	if policy.InitialDelay != time.Second {
		t.Errorf("InitialDelay = %v, want 1s", policy.InitialDelay)
	}
}
