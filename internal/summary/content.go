// Package summary owns the derived long-form summary content, its alternate
// renderings, and the pan/zoom persistence for the outline graph view.
package summary

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// View identifies one of the alternate renderings of the summary.
type View int

const (
	ViewGraph View = iota
	ViewRendered
	ViewSource
)

func (v View) String() string {
	switch v {
	case ViewGraph:
		return "graph"
	case ViewRendered:
		return "rendered"
	case ViewSource:
		return "source"
	}
	return "unknown"
}

// ViewState holds the summary text, its version counter, and the cached
// renderings for the current version. Version is the authoritative "content
// changed" signal: it bumps on every Set, even when the new text equals the
// old, so dependent views re-derive from scratch instead of diffing.
type ViewState struct {
	text    string
	version int
	active  View

	renderedANSI    string
	renderedVersion int
	renderedWidth   int
}

// NewViewState returns an empty view state with the graph view active.
func NewViewState() *ViewState {
	return &ViewState{active: ViewGraph}
}

// Set replaces the content and returns the new version. Setting the empty
// string is a valid reset, used on file switch and on a failed summary
// request.
func (s *ViewState) Set(text string) int {
	s.text = text
	s.version++
	return s.version
}

// Text returns the current summary markdown.
func (s *ViewState) Text() string { return s.text }

// Version returns the current content version.
func (s *ViewState) Version() int { return s.version }

// Empty reports whether there is any content to show.
func (s *ViewState) Empty() bool { return s.text == "" }

// Active returns the currently selected view.
func (s *ViewState) Active() View { return s.active }

// SetActive switches views and returns the previously active one.
func (s *ViewState) SetActive(v View) View {
	prev := s.active
	s.active = v
	return prev
}

// Rendered returns the ANSI rendering of the markdown at the given wrap
// width. The rendering is pure for identical input, so it is cached by
// version and width; it is never served for a newer version.
func (s *ViewState) Rendered(width int) (string, error) {
	if s.renderedVersion == s.version && s.renderedWidth == width && s.renderedANSI != "" {
		return s.renderedANSI, nil
	}
	if s.text == "" {
		s.renderedANSI = ""
		s.renderedVersion = s.version
		s.renderedWidth = width
		return "", nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(s.text)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	s.renderedANSI = out
	s.renderedVersion = s.version
	s.renderedWidth = width
	return out, nil
}
