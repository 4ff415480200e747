package channel

import "time"

// backoff is an exponential reconnect delay.
type backoff struct {
	min, max time.Duration
	cur      time.Duration
}

func newBackoff(min, max time.Duration) *backoff {
	return &backoff{min: min, max: max}
}

// next returns the delay before the next attempt and doubles it.
func (b *backoff) next() time.Duration {
	if b.cur == 0 {
		b.cur = b.min
		return b.cur
	}
	b.cur = min(b.cur*2, b.max)
	return b.cur
}

// reset starts over after a successful connection.
func (b *backoff) reset() {
	b.cur = 0
}
