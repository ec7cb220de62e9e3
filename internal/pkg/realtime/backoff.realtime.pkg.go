package realtime

import "time"

const DefaultReconnectDelay = 5 * time.Second

// Backoff is the reconnect policy: the first delay is Min, every following one
// is multiplied by Factor and capped at Max. MaxAttempts <= 0 means unlimited.
type Backoff struct {
	Min         time.Duration
	Max         time.Duration
	Factor      float64
	MaxAttempts int

	curr     time.Duration
	attempts int
}

// FixedBackoff waits d before every attempt, forever.
func FixedBackoff(d time.Duration) *Backoff {
	return &Backoff{Min: d, Max: d, Factor: 1}
}

// Next returns the delay before the next attempt, or false once MaxAttempts
// have been handed out.
func (b *Backoff) Next() (time.Duration, bool) {
	if b.MaxAttempts > 0 && b.attempts >= b.MaxAttempts {
		return 0, false
	}
	b.attempts++

	if b.curr == 0 {
		b.curr = b.Min
	} else if b.Factor > 1 {
		b.curr = time.Duration(float64(b.curr) * b.Factor)
	}
	if b.Max > 0 && b.curr > b.Max {
		b.curr = b.Max
	}
	return b.curr, true
}

func (b *Backoff) Reset() {
	b.curr = 0
	b.attempts = 0
}

func (b *Backoff) Attempts() int {
	return b.attempts
}
