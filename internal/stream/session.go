// Package stream holds the per-file session state machine that drives one
// backend connection's lifecycle: pre-check, upload, the live subtitle feed,
// completion and teardown. The machine is pure: it consumes events and
// emits effects; the TUI event loop executes the effects, so every
// transition and guard is testable without sockets or timers.
package stream

import (
	"time"

	"github.com/lkaiser/livecap/internal/backend"
	"github.com/lkaiser/livecap/internal/subtitle"
)

// State of a session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateCompleted
	StateErrored
	StateSuperseded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	case StateSuperseded:
		return "superseded"
	}
	return "unknown"
}

// Effects the session asks the event loop to perform.
type (
	// EffectPreCheck issues the pre-upload check for File.
	EffectPreCheck struct{ File string }
	// EffectConnect opens the event socket and subscribes.
	EffectConnect struct{ File string }
	// EffectUpload posts the media file once the transport is ready.
	EffectUpload struct{ File string }
	// EffectTeardown closes the session's transport. Idempotent.
	EffectTeardown struct{}
	// EffectScheduleCompile arms the debounce timer for Token.
	EffectScheduleCompile struct {
		Token int
		Delay time.Duration
	}
	// EffectRequestSummary fetches the derived summary for File.
	EffectRequestSummary struct{ File string }
	// EffectApplySummary delivers summary text (possibly empty, as a reset)
	// to the view layer.
	EffectApplySummary struct {
		File    string
		Summary string
	}
	// EffectStatus surfaces a user-visible status or error message.
	EffectStatus struct{ Text string }
)

// Effect is one requested side effect. Concrete types above.
type Effect any

// Session binds one selected media file to the segment store and compiler
// for that scope. A new file selection creates a new Session and supersedes
// the old one; a superseded session ignores everything delivered to it.
type Session struct {
	file     string
	state    State
	store    *subtitle.Store
	compiler *subtitle.Compiler
}

// New creates an idle session for the given original filename over the
// store and compiler owned by the current media scope.
func New(file string, store *subtitle.Store, compiler *subtitle.Compiler) *Session {
	return &Session{file: file, store: store, compiler: compiler}
}

// File returns the original filename this session is bound to.
func (s *Session) File() string { return s.file }

// State returns the current session state.
func (s *Session) State() State { return s.state }

// Track returns the compiled cue track for this session's scope.
func (s *Session) Track() subtitle.Track { return s.compiler.Track() }

// Supersede marks the session dead and asks for its transport to be torn
// down. Safe from any state, including idle.
func (s *Session) Supersede() []Effect {
	s.state = StateSuperseded
	return []Effect{EffectTeardown{}}
}

// Start resets the media scope and begins with the pre-upload check. The
// streaming transport is only opened if the check comes back empty.
func (s *Session) Start() []Effect {
	s.state = StateConnecting
	s.store.Reset()
	s.compiler.Touch() // empty set compiles immediately
	return []Effect{EffectPreCheck{File: s.file}}
}

// alive reports whether events tagged with file should still be applied.
// A mismatched filename belongs to a superseded session whose teardown
// raced with in-flight messages; those are dropped silently.
func (s *Session) alive(file string) bool {
	return s.state != StateSuperseded && file == s.file
}

// PreCheckFound handles a positive pre-check: the compiled document is
// parsed directly and segments are reconstructed from it so this path and
// the streaming path converge on identical internal state. No transport is
// opened; the summary is requested immediately.
func (s *Session) PreCheckFound(file, doc string) []Effect {
	if !s.alive(file) {
		return nil
	}
	cues, err := subtitle.ParseWebVTT(doc)
	if err != nil {
		// Cached document is unreadable; fall back to the streaming path,
		// which regenerates it.
		return []Effect{EffectConnect{File: s.file}}
	}
	s.store.Reset()
	s.store.Ingest(subtitle.SegmentsFromCues(cues))
	s.compiler.Flush()
	s.state = StateCompleted
	return []Effect{EffectRequestSummary{File: s.file}}
}

// PreCheckMissing handles an empty pre-check: proceed with the streaming
// path by opening the event transport.
func (s *Session) PreCheckMissing(file string) []Effect {
	if !s.alive(file) {
		return nil
	}
	return []Effect{EffectConnect{File: s.file}}
}

// PreCheckFailed handles a failed pre-check call.
func (s *Session) PreCheckFailed(file, msg string) []Effect {
	if !s.alive(file) {
		return nil
	}
	s.state = StateErrored
	return []Effect{EffectStatus{Text: msg}}
}

// TransportReady is delivered once the event socket is connected and
// subscribed; the pending upload is performed now.
func (s *Session) TransportReady(file string) []Effect {
	if !s.alive(file) || s.state != StateConnecting {
		return nil
	}
	return []Effect{EffectUpload{File: s.file}}
}

// TransportFailed handles a failed connect attempt.
func (s *Session) TransportFailed(file, msg string) []Effect {
	if !s.alive(file) {
		return nil
	}
	s.state = StateErrored
	return []Effect{EffectTeardown{}, EffectStatus{Text: msg}}
}

// UploadAccepted moves the session into streaming.
func (s *Session) UploadAccepted(file string) []Effect {
	if !s.alive(file) || s.state != StateConnecting {
		return nil
	}
	s.state = StateStreaming
	return nil
}

// UploadFailed tears the transport down and surfaces the failure.
func (s *Session) UploadFailed(file, msg string) []Effect {
	if !s.alive(file) {
		return nil
	}
	s.state = StateErrored
	return []Effect{EffectTeardown{}, EffectStatus{Text: msg}}
}

// HandleEvent routes one inbound daemon event. Events for other filenames
// are dropped without touching any state.
func (s *Session) HandleEvent(ev backend.Event) []Effect {
	if !s.alive(ev.OriginalFilename) {
		return nil
	}
	if s.state != StateConnecting && s.state != StateStreaming {
		return nil
	}

	switch ev.Event {
	case backend.EventSubtitleChunk:
		s.store.Ingest(ev.Segments)
		token, delay := s.compiler.Touch()
		if delay == 0 {
			return nil
		}
		return []Effect{EffectScheduleCompile{Token: token, Delay: delay}}

	case backend.EventTranscriptionDone:
		// Flush before anything else so the final track reflects the very
		// last chunk, then drop the transport and fetch the summary.
		s.compiler.Flush()
		s.state = StateCompleted
		return []Effect{
			EffectTeardown{},
			EffectRequestSummary{File: s.file},
		}

	case backend.EventTranscriptionError:
		s.state = StateErrored
		return []Effect{
			EffectTeardown{},
			EffectStatus{Text: ev.Message},
		}
	}

	return nil
}

// CompileTick is delivered when a debounce timer fires. Stale tokens are
// ignored by the compiler itself.
func (s *Session) CompileTick(token int) bool {
	if s.state == StateSuperseded {
		return false
	}
	return s.compiler.Fire(token)
}

// SummaryResult applies the response of a summary request. A response for a
// superseded file never reaches the view layer; a failed request surfaces
// the error and resets the summary content.
func (s *Session) SummaryResult(file, summary, errMsg string) []Effect {
	if !s.alive(file) {
		return nil
	}
	if errMsg != "" {
		return []Effect{
			EffectStatus{Text: errMsg},
			EffectApplySummary{File: s.file, Summary: ""},
		}
	}
	return []Effect{EffectApplySummary{File: s.file, Summary: summary}}
}
