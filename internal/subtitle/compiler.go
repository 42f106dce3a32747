package subtitle

import (
	"time"
)

// DefaultDebounce is the quiet period that coalesces bursts of incoming
// batches into a single compilation.
const DefaultDebounce = 300 * time.Millisecond

// Compiler turns the store's segment set into a Track after a debounce
// window. The compiler owns no timer: each store change is reported via
// Touch, which hands back a token and a delay; the event loop schedules the
// delay and calls Fire with the token. A token minted before a newer Touch
// or a Flush no longer fires, which is what cancels superseded timers.
type Compiler struct {
	store  *Store
	window time.Duration

	track   Track
	token   int
	pending bool
	warn    error
}

// NewCompiler creates a compiler over store. A non-positive window falls
// back to DefaultDebounce.
func NewCompiler(store *Store, window time.Duration) *Compiler {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Compiler{store: store, window: window}
}

// Track returns the most recently compiled track.
func (c *Compiler) Track() Track { return c.track }

// Warning reports the parse failure of the last compilation attempt, if any.
// It is cleared by the next successful compile.
func (c *Compiler) Warning() error { return c.warn }

// Pending reports whether a scheduled compilation has not fired yet.
func (c *Compiler) Pending() bool { return c.pending }

// Touch registers a store change. It returns the token the caller must pass
// to Fire after the returned delay. An empty store compiles immediately to
// the empty track and returns a zero delay; the token it returns is already
// spent.
func (c *Compiler) Touch() (token int, delay time.Duration) {
	c.token++
	if c.store.Len() == 0 {
		c.pending = false
		c.compile()
		return c.token, 0
	}
	c.pending = true
	return c.token, c.window
}

// Fire runs the compilation scheduled by Touch. It reports whether a compile
// actually ran; a stale token (superseded by a later Touch or a Flush) is a
// no-op.
func (c *Compiler) Fire(token int) bool {
	if !c.pending || token != c.token {
		return false
	}
	c.pending = false
	c.compile()
	return true
}

// Flush cancels any pending compilation and compiles synchronously. Called
// on the completion event so the final track reflects the very last batch
// before completion is considered handled.
func (c *Compiler) Flush() {
	c.token++
	c.pending = false
	c.compile()
}

func (c *Compiler) compile() {
	segs := c.store.Segments()
	if len(segs) == 0 {
		c.track = Track{}
		c.warn = nil
		return
	}
	cues, err := ParseWebVTT(FormatWebVTT(segs))
	if err != nil {
		// Keep the previous track; playback is never interrupted by a
		// malformed document.
		c.warn = err
		return
	}
	c.track = Track(cues)
	c.warn = nil
}
