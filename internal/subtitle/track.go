package subtitle

// Cue is a parsed timed-text entry with numeric offsets in seconds.
type Cue struct {
	StartTime float64
	EndTime   float64
	Text      string
}

// Track is the compiled, ordered, deduplicated cue sequence currently in
// effect. Tracks are rebuilt whole on each compilation and never mutated in
// place, so holding one across events is safe.
type Track []Cue

// ActiveAt returns the cue that should be visible at the given playback
// position: the first cue with StartTime <= t <= EndTime. Overlapping cues
// should not occur in a well-formed track but are tolerated; the first by
// sequence order wins. Pure and O(n), called on every playback tick.
func (t Track) ActiveAt(sec float64) (Cue, bool) {
	for _, c := range t {
		if c.StartTime <= sec && sec <= c.EndTime {
			return c, true
		}
	}
	return Cue{}, false
}
