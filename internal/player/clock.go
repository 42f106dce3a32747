package player

import "time"

// Clock tracks simulated playback position for a loaded media file. It
// does not decode audio; the TUI advances it on a ticker and the caption
// overlay reads the position to pick the active cue.
type Clock struct {
	position float64
	duration float64
	playing  bool
}

func NewClock() *Clock {
	return &Clock{}
}

// Load resets the clock for a new file. Negative durations are treated as
// unknown (zero), which disables clamping at the end.
func (c *Clock) Load(duration float64) {
	if duration < 0 {
		duration = 0
	}
	c.position = 0
	c.duration = duration
	c.playing = false
}

func (c *Clock) Position() float64 { return c.position }
func (c *Clock) Duration() float64 { return c.duration }
func (c *Clock) Playing() bool     { return c.playing }

func (c *Clock) Play()  { c.playing = true }
func (c *Clock) Pause() { c.playing = false }

func (c *Clock) Toggle() bool {
	c.playing = !c.playing
	return c.playing
}

// Seek moves the position, clamping to [0, duration]. Seeking does not
// change the play/pause state.
func (c *Clock) Seek(sec float64) {
	if sec < 0 {
		sec = 0
	}
	if c.duration > 0 && sec > c.duration {
		sec = c.duration
	}
	c.position = sec
}

// Advance moves the clock forward by elapsed wall time. It pauses at the
// end of the file and reports whether the end was reached on this step.
func (c *Clock) Advance(d time.Duration) (ended bool) {
	if !c.playing || d <= 0 {
		return false
	}
	c.position += d.Seconds()
	if c.duration > 0 && c.position >= c.duration {
		c.position = c.duration
		c.playing = false
		return true
	}
	return false
}
