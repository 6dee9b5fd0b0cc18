package app

import "time"

// Countdown is a round clock advanced by explicit ticks. It fires its
// callback once per start when it reaches zero while running. It is not
// safe for concurrent use; Game drives it under its own lock.
type Countdown struct {
	duration  time.Duration
	remaining time.Duration
	running   bool
	paused    bool
	fired     bool
	onTimeUp  func()
}

func NewCountdown(onTimeUp func()) *Countdown {
	return &Countdown{onTimeUp: onTimeUp}
}

// Start resets the clock to d and runs it.
func (c *Countdown) Start(d time.Duration) {
	c.duration = d
	c.remaining = d
	c.running = true
	c.paused = false
	c.fired = false
}

// Stop halts the clock without firing.
func (c *Countdown) Stop() {
	c.running = false
	c.paused = false
}

// Pause freezes the remaining time.
func (c *Countdown) Pause() {
	if c.running {
		c.paused = true
	}
}

// Resume continues from the frozen remaining time.
func (c *Countdown) Resume() {
	c.paused = false
}

// Tick advances the clock by step and reports whether it fired.
func (c *Countdown) Tick(step time.Duration) bool {
	if !c.running || c.paused || c.fired {
		return false
	}
	c.remaining -= step
	if c.remaining > 0 {
		return false
	}
	c.remaining = 0
	c.fired = true
	c.running = false
	if c.onTimeUp != nil {
		c.onTimeUp()
	}
	return true
}

func (c *Countdown) Remaining() time.Duration { return c.remaining }
func (c *Countdown) Running() bool            { return c.running }
func (c *Countdown) Paused() bool             { return c.paused }
