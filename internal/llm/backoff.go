package llm

import "time"

// BackoffPolicy decides, given how many attempts have already failed, whether
// to retry and how long to wait first. It is a pure value so retry behavior
// can be tested without any network I/O.
type BackoffPolicy struct {
	MaxAttempts  int           // Total attempts allowed, including the first
	InitialDelay time.Duration // Delay before the second attempt; doubles each retry
}

// DefaultBackoff returns the retry schedule used against the embedding
// provider: up to 5 attempts, 1s initial delay doubling each time.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
	}
}

// Next reports whether another attempt is allowed after `failed` failures,
// and the delay to wait before it.
func (p BackoffPolicy) Next(failed int) (time.Duration, bool) {
	if failed < 1 || failed >= p.MaxAttempts {
		return 0, false
	}
	return p.InitialDelay << (failed - 1), true
}
