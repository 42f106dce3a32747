// Package subtitle holds the segment merge store, the WebVTT codec, and the
// compiled cue track used for playback-time caption lookups.
package subtitle

import (
	"sort"
)

// Segment is one unit of raw timed text as delivered by the backend. Start
// and End are lexicographically sortable timecode strings (HH:MM:SS.mmm).
// Start alone is the identity key for deduplication.
type Segment struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

// Store merges batches of segments for the currently selected media item.
// It holds at most one segment per distinct start key; a later segment with
// the same start key replaces the earlier one in full. The store has no
// network or parsing knowledge. Malformed segments are accepted as-is and
// rejected later by the codec.
type Store struct {
	byStart    map[string]Segment
	generation uint64
}

// NewStore returns an empty segment store.
func NewStore() *Store {
	return &Store{byStart: make(map[string]Segment)}
}

// Ingest merges batch into the current set using the replace-by-start-key
// rule and returns the full set ordered by start key. Later entries within
// the same batch win over earlier ones on colliding keys.
func (s *Store) Ingest(batch []Segment) []Segment {
	for _, seg := range batch {
		s.byStart[seg.Start] = seg
	}
	s.generation++
	return s.Segments()
}

// Reset clears all segments.
func (s *Store) Reset() {
	s.byStart = make(map[string]Segment)
	s.generation++
}

// Segments returns the current set ordered by start key string comparison.
func (s *Store) Segments() []Segment {
	out := make([]Segment, 0, len(s.byStart))
	for _, seg := range s.byStart {
		out = append(out, seg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Len returns the number of distinct segments held.
func (s *Store) Len() int { return len(s.byStart) }

// Generation increments on every Ingest and Reset. The compiler uses it to
// detect changes without diffing segment sets.
func (s *Store) Generation() uint64 { return s.generation }
