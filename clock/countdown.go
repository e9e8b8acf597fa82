package clock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInvalidTime is returned by SetTime for out-of-range components.
var ErrInvalidTime = errors.New("timer minutes must be 0-99 and seconds 0-59")

const (
	// DefaultCountdownSeconds is the remaining time a fresh countdown starts with.
	DefaultCountdownSeconds = 10

	maxMinutes = 99
	maxSeconds = 59
)

// Snapshot is a point-in-time view of the countdown.
type Snapshot struct {
	Remaining int  `json:"remaining_seconds"`
	Paused    bool `json:"paused"`
}

// Countdown is a shared second-resolution timer. It never goes below zero
// and fires the expiry callback exactly once, on the 1 -> 0 crossing; setting
// it to zero directly does not fire.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	paused    bool
	onExpire  func()
}

// NewCountdown builds a countdown with the given starting time. onExpire may
// be nil; it is invoked without the internal lock held.
func NewCountdown(seconds int, onExpire func()) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{remaining: seconds, onExpire: onExpire}
}

// Run drives the countdown at one tick per second until ctx is cancelled.
func (c *Countdown) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick advances the countdown by one second. Exposed so the timer can be
// driven deterministically in tests.
func (c *Countdown) Tick() {
	c.mu.Lock()
	if c.paused || c.remaining <= 0 {
		c.mu.Unlock()
		return
	}
	c.remaining--
	expired := c.remaining == 0
	onExpire := c.onExpire
	c.mu.Unlock()

	if expired && onExpire != nil {
		onExpire()
	}
}

func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}

// Reset stops the countdown by zeroing it. No expiry fires.
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = 0
}

// SetTime replaces the remaining time with minutes*60+seconds.
func (c *Countdown) SetTime(minutes, seconds int) error {
	if minutes < 0 || minutes > maxMinutes || seconds < 0 || seconds > maxSeconds {
		return ErrInvalidTime
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = minutes*60 + seconds
	return nil
}

func (c *Countdown) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Remaining: c.remaining, Paused: c.paused}
}
