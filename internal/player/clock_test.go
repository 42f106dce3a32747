package player

import (
	"testing"
	"time"
)

func TestClockAdvanceOnlyWhilePlaying(t *testing.T) {
	c := NewClock()
	c.Load(10)

	if c.Advance(time.Second) {
		t.Fatal("paused clock must not advance")
	}
	if c.Position() != 0 {
		t.Fatalf("position = %v, want 0", c.Position())
	}

	c.Play()
	c.Advance(1500 * time.Millisecond)
	if c.Position() != 1.5 {
		t.Fatalf("position = %v, want 1.5", c.Position())
	}
}

func TestClockPausesAtEnd(t *testing.T) {
	c := NewClock()
	c.Load(2)
	c.Play()

	if !c.Advance(3 * time.Second) {
		t.Fatal("expected end-of-file signal")
	}
	if c.Position() != 2 {
		t.Fatalf("position = %v, want clamp to duration", c.Position())
	}
	if c.Playing() {
		t.Fatal("clock should pause at end")
	}
}

func TestClockSeekClamps(t *testing.T) {
	c := NewClock()
	c.Load(100)

	c.Seek(-5)
	if c.Position() != 0 {
		t.Fatalf("negative seek landed at %v", c.Position())
	}
	c.Seek(250)
	if c.Position() != 100 {
		t.Fatalf("past-end seek landed at %v", c.Position())
	}
	c.Seek(90)
	if c.Position() != 90 || c.Playing() {
		t.Fatalf("seek changed playback state: pos=%v playing=%v", c.Position(), c.Playing())
	}
}

func TestClockSeekUnknownDuration(t *testing.T) {
	c := NewClock()
	c.Load(0)
	c.Seek(3600)
	if c.Position() != 3600 {
		t.Fatalf("unknown duration must not clamp, got %v", c.Position())
	}
}

func TestClockToggle(t *testing.T) {
	c := NewClock()
	c.Load(10)
	if !c.Toggle() || !c.Playing() {
		t.Fatal("first toggle should start playback")
	}
	if c.Toggle() || c.Playing() {
		t.Fatal("second toggle should pause")
	}
}

func TestClockLoadResets(t *testing.T) {
	c := NewClock()
	c.Load(10)
	c.Play()
	c.Seek(5)

	c.Load(20)
	if c.Position() != 0 || c.Playing() || c.Duration() != 20 {
		t.Fatalf("load did not reset: pos=%v playing=%v dur=%v", c.Position(), c.Playing(), c.Duration())
	}
}
