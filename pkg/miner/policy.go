package miner

import "time"

// RetryPolicy bounds the coordinator's retry loop. The zero value retries
// forever with no delay, which is the documented GetSalt contract: block
// until a salt is found or a fatal error surfaces. Tests set MaxAttempts
// to keep runs bounded.
type RetryPolicy struct {
	// MaxAttempts caps mining attempts; 0 means unbounded.
	MaxAttempts int
	// Backoff returns the pause before retry n (n >= 1); nil means none.
	Backoff func(attempt int) time.Duration
}

func (p RetryPolicy) exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt >= p.MaxAttempts
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(attempt)
}

// FixedBackoff returns a Backoff that always pauses for d.
func FixedBackoff(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}
