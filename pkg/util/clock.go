package util

import "time"

// Clock supplies wall time. Replays take receive timestamps and
// processing latency from it so tests can pin both.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// StepClock advances by Step on every call to Now.
type StepClock struct {
	T    time.Time
	Step time.Duration
}

func (c *StepClock) Now() time.Time {
	t := c.T
	c.T = c.T.Add(c.Step)
	return t
}
