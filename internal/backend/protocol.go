// Package backend provides the protocol types and client for talking to
// livecapd: an NDJSON event socket for the live subtitle feed plus short
// HTTP request/response calls.
package backend

import "github.com/lkaiser/livecap/internal/subtitle"

// Event names streamed by the daemon.
const (
	EventSubtitleChunk      = "new_subtitle_chunk"
	EventTranscriptionDone  = "transcription_complete"
	EventTranscriptionError = "transcription_error"
)

// Command is sent from a client to the daemon over the event socket.
type Command struct {
	Cmd    string   `json:"cmd"`
	Events []string `json:"events,omitempty"`
}

// Response is returned by the daemon after processing a command.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Event is streamed from the daemon to subscribed clients. Every payload
// carries the original filename of the job it belongs to so clients can
// drop events from superseded sessions.
type Event struct {
	Event            string             `json:"event"`
	OriginalFilename string             `json:"original_filename,omitempty"`
	Segments         []subtitle.Segment `json:"segments,omitempty"`
	Message          string             `json:"message,omitempty"`
}

// PreCheckResponse is the body of a positive pre-upload check.
type PreCheckResponse struct {
	Message   string `json:"message,omitempty"`
	Subtitles string `json:"subtitles,omitempty"`
	Error     string `json:"error,omitempty"`
}

// UploadResponse is the body returned by the upload endpoint.
type UploadResponse struct {
	Message  string `json:"message,omitempty"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SummaryResponse is the body returned by the summary endpoint.
type SummaryResponse struct {
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse is the body returned by the status endpoint.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
