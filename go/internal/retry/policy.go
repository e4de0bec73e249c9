package retry

import (
	"fmt"
	"time"
)

// Policy bounds how an operation is retried. It is a plain value; copy it freely.
type Policy struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	PerAttemptTimeout time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        8 * time.Second,
		PerAttemptTimeout: 10 * time.Second,
	}
}

// Validate rejects policies the executor cannot honour.
func (p Policy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", p.MaxRetries)
	}
	if p.InitialBackoff < 0 {
		return fmt.Errorf("initial backoff must not be negative, got %v", p.InitialBackoff)
	}
	if p.MaxBackoff < p.InitialBackoff {
		return fmt.Errorf("max backoff %v is lower than initial backoff %v", p.MaxBackoff, p.InitialBackoff)
	}
	if p.PerAttemptTimeout <= 0 {
		return fmt.Errorf("per-attempt timeout must be positive, got %v", p.PerAttemptTimeout)
	}
	return nil
}

// NextBackoff doubles current, capped at MaxBackoff.
func (p Policy) NextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > p.MaxBackoff || next < current {
		return p.MaxBackoff
	}
	return next
}

// Schedule returns the waits the executor inserts between attempts when every
// attempt fails: min(initial*2^i, max) for i in [0, MaxRetries).
func (p Policy) Schedule() []time.Duration {
	waits := make([]time.Duration, 0, p.MaxRetries)
	backoff := p.InitialBackoff
	for i := 0; i < p.MaxRetries; i++ {
		waits = append(waits, backoff)
		backoff = p.NextBackoff(backoff)
	}
	return waits
}
