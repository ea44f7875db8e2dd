package physics

import "time"

// DefaultMaxFrameTime bounds the frame time a SystemClock reports, in seconds
const DefaultMaxFrameTime = 0.25

// FrameClock provides the frame timing, in seconds
type FrameClock interface {
	// StepTime is the duration of the last frame
	StepTime() float64
	// Now is the time elapsed since the clock started
	Now() float64
}

// SystemClock measures frames on the monotonic wall clock
type SystemClock struct {
	// MaxFrameTime clamps the frames stalled by a debugger, a suspended app, or a GC pause
	MaxFrameTime float64

	start time.Time
	last  time.Time
	step  float64
	now   func() time.Time
}

func NewSystemClock() *SystemClock {
	return newSystemClock(time.Now)
}

func newSystemClock(now func() time.Time) *SystemClock {
	start := now()
	return &SystemClock{
		MaxFrameTime: DefaultMaxFrameTime,
		start:        start,
		last:         start,
		now:          now,
	}
}

// Tick ends the current frame and returns its duration
func (c *SystemClock) Tick() float64 {
	current := c.now()
	c.step = current.Sub(c.last).Seconds()
	c.last = current

	if c.MaxFrameTime > 0 && c.step > c.MaxFrameTime {
		c.step = c.MaxFrameTime
	}
	return c.step
}

func (c *SystemClock) StepTime() float64 {
	return c.step
}

func (c *SystemClock) Now() float64 {
	return c.last.Sub(c.start).Seconds()
}

// ManualClock only moves when told to, for tests and replays
type ManualClock struct {
	step float64
	now  float64
}

func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Advance ends a frame of length dt
func (c *ManualClock) Advance(dt float64) {
	c.step = dt
	c.now += dt
}

func (c *ManualClock) StepTime() float64 {
	return c.step
}

func (c *ManualClock) Now() float64 {
	return c.now
}
