package pacing

import (
	"math/rand"
	"sync"
	"time"
)

// Policy yields the next wait duration
type Policy interface {
	Next() time.Duration
}

// Fixed waits the same duration every time
type Fixed struct {
	Delay time.Duration
}

// Next returns the fixed delay, never negative
func (f Fixed) Next() time.Duration {
	if f.Delay < 0 {
		return 0
	}
	return f.Delay
}

// Uniform draws a duration uniformly from [Min, Max]
type Uniform struct {
	Min time.Duration
	Max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniform creates a uniform policy with its own time-seeded source
func NewUniform(min, max time.Duration) *Uniform {
	return NewUniformWithSeed(min, max, time.Now().UnixNano())
}

// NewUniformWithSeed creates a uniform policy with a deterministic source
func NewUniformWithSeed(min, max time.Duration, seed int64) *Uniform {
	if max < min {
		min, max = max, min
	}
	return &Uniform{
		Min: min,
		Max: max,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Next returns a duration in [Min, Max]
func (u *Uniform) Next() time.Duration {
	if u.Max <= u.Min {
		return Fixed{Delay: u.Min}.Next()
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.rng == nil {
		u.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	span := int64(u.Max - u.Min)
	return u.Min + time.Duration(u.rng.Int63n(span+1))
}

// FromBounds returns a Uniform policy when a positive upper bound is set,
// otherwise a Fixed policy over fixed.
func FromBounds(fixed, min, max time.Duration) Policy {
	if max > 0 && max >= min {
		return NewUniform(min, max)
	}
	return Fixed{Delay: fixed}
}

// Describe renders a policy for log lines and the run banner
func Describe(p Policy) string {
	switch v := p.(type) {
	case Fixed:
		return v.Delay.String()
	case *Fixed:
		return v.Delay.String()
	case *Uniform:
		return v.Min.String() + "-" + v.Max.String()
	case nil:
		return "0s"
	default:
		return "custom"
	}
}
