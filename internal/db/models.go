// Package db persists processed media artifacts for the livecap daemon.
package db

import "time"

// Entry is one processed media file: its compiled subtitle document and,
// once generated, its summary. Either artifact may be absent.
type Entry struct {
	Filename  string
	Subtitles string
	Summary   string
	Duration  float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasSubtitles reports whether transcription finished for this entry.
func (e *Entry) HasSubtitles() bool {
	return e != nil && e.Subtitles != ""
}

// HasSummary reports whether a summary was generated for this entry.
func (e *Entry) HasSummary() bool {
	return e != nil && e.Summary != ""
}
