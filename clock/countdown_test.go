package clock

import (
	"errors"
	"testing"
)

func TestSetTimeAndTick(t *testing.T) {
	c := NewCountdown(0, nil)

	if err := c.SetTime(2, 30); err != nil {
		t.Fatal(err)
	}
	if got := c.State().Remaining; got != 150 {
		t.Fatalf("expected 150 seconds, got %d", got)
	}

	c.Tick()
	if got := c.State().Remaining; got != 149 {
		t.Fatalf("expected 149 after one tick, got %d", got)
	}
}

func TestSetTimeValidation(t *testing.T) {
	c := NewCountdown(0, nil)

	cases := []struct {
		name    string
		minutes int
		seconds int
		wantErr bool
	}{
		{name: "zero", minutes: 0, seconds: 0},
		{name: "max", minutes: 99, seconds: 59},
		{name: "minutes too large", minutes: 100, seconds: 0, wantErr: true},
		{name: "seconds too large", minutes: 0, seconds: 60, wantErr: true},
		{name: "negative minutes", minutes: -1, seconds: 0, wantErr: true},
		{name: "negative seconds", minutes: 0, seconds: -1, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := c.SetTime(tc.minutes, tc.seconds)
			if tc.wantErr && !errors.Is(err, ErrInvalidTime) {
				t.Fatalf("expected ErrInvalidTime, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPauseFreezesCountdown(t *testing.T) {
	c := NewCountdown(10, nil)

	c.Pause()
	c.Tick()
	c.Tick()
	c.Tick()
	if got := c.State().Remaining; got != 10 {
		t.Fatalf("paused countdown moved to %d", got)
	}

	c.Resume()
	c.Tick()
	if got := c.State().Remaining; got != 9 {
		t.Fatalf("expected 9 after resume and tick, got %d", got)
	}
}

func TestExpireFiresExactlyOnce(t *testing.T) {
	fired := 0
	c := NewCountdown(2, func() { fired++ })

	c.Tick() // 1
	if fired != 0 {
		t.Fatal("fired before reaching zero")
	}
	c.Tick() // 0, fires
	if fired != 1 {
		t.Fatalf("expected one expiry, got %d", fired)
	}

	// Further ticks at zero stay silent.
	c.Tick()
	c.Tick()
	if fired != 1 {
		t.Fatalf("expiry refired: %d", fired)
	}
	if got := c.State().Remaining; got != 0 {
		t.Fatalf("countdown went below zero: %d", got)
	}
}

func TestResetZeroesWithoutFiring(t *testing.T) {
	fired := 0
	c := NewCountdown(30, func() { fired++ })

	c.Reset()
	if got := c.State().Remaining; got != 0 {
		t.Fatalf("expected 0 after reset, got %d", got)
	}
	c.Tick()
	if fired != 0 {
		t.Fatal("reset must not fire expiry")
	}

	// Rearming restores normal behavior.
	if err := c.SetTime(0, 1); err != nil {
		t.Fatal(err)
	}
	c.Tick()
	if fired != 1 {
		t.Fatalf("expected expiry after rearm, got %d", fired)
	}
}
