package app

import (
	"time"

	"github.com/lkaiser/livecap/internal/backend"
	"github.com/lkaiser/livecap/internal/player"
)

// Every response message carries the filename it was issued for. Update
// routes them through the session, which drops anything belonging to a
// superseded file.

// FilesLoadedMsg carries the media files found in the working directory.
type FilesLoadedMsg struct {
	Files []string
}

// PreCheckResultMsg carries the outcome of the pre-upload check.
type PreCheckResultMsg struct {
	File  string
	Doc   string
	Found bool
	Err   error
}

// ConnectedMsg is sent when the event socket is connected and subscribed.
type ConnectedMsg struct {
	File   string
	Client *backend.Client
}

// ConnectErrorMsg is sent when the event socket connect fails.
type ConnectErrorMsg struct {
	File string
	Err  error
}

// UploadResultMsg carries the outcome of the media upload.
type UploadResultMsg struct {
	File string
	Err  error
}

// EventMsg wraps a streamed event from the daemon.
type EventMsg struct {
	File  string
	Event backend.Event
}

// EventErrorMsg is sent when the event stream breaks.
type EventErrorMsg struct {
	File string
	Err  error
}

// SummaryResultMsg carries the summary response.
type SummaryResultMsg struct {
	File    string
	Summary string
	Err     error
}

// CompileTickMsg is delivered when a debounce timer fires. Gen identifies
// the media scope that armed the timer; tokens restart when a file is
// re-selected, so the token alone cannot tell a stale timer apart.
type CompileTickMsg struct {
	File  string
	Gen   int
	Token int
}

// PlaybackTickMsg advances the playback clock. Gen identifies the play
// gesture that started the chain; a tick still in flight when playback is
// restarted must not spawn a second chain.
type PlaybackTickMsg struct {
	Gen int
	At  time.Time
}

// ProbeResultMsg carries the media metadata probe result.
type ProbeResultMsg struct {
	File string
	Info *player.MediaInfo
	Err  error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
