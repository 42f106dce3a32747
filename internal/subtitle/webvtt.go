package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Header is the fixed first line of a WebVTT document.
const Header = "WEBVTT"

// FormatTimestamp renders a non-negative seconds offset as HH:MM:SS.mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000.0))
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1_000
	ms %= 1_000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// ParseTimestamp parses HH:MM:SS.mmm (hours optional, per WebVTT) into a
// seconds offset.
func ParseTimestamp(ts string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}
	secPart := parts[len(parts)-1]
	sec, err := strconv.ParseFloat(secPart, 64)
	if err != nil || sec < 0 {
		return 0, fmt.Errorf("bad timestamp %q", ts)
	}
	total := sec
	mult := 60.0
	for i := len(parts) - 2; i >= 0; i-- {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad timestamp %q", ts)
		}
		total += float64(n) * mult
		mult *= 60
	}
	return total, nil
}

// FormatWebVTT renders an ordered segment set as a WebVTT document: the
// header line, then one block per segment ("start --> end" followed by the
// cue text), blocks separated by a blank line.
func FormatWebVTT(segments []Segment) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n\n")
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(seg.Start)
		b.WriteString(" --> ")
		b.WriteString(seg.End)
		b.WriteString("\n")
		b.WriteString(seg.Text)
	}
	return b.String()
}

// ParseWebVTT parses a WebVTT document into cues with numeric offsets.
// A missing header line is tolerated (the original feed sometimes produced
// headerless fragments). Numeric cue identifier lines are skipped. On a
// malformed timing line the whole parse fails; callers keep their previous
// track.
func ParseWebVTT(doc string) ([]Cue, error) {
	lines := strings.Split(strings.ReplaceAll(doc, "\r\n", "\n"), "\n")

	var cues []Cue
	var cur *Cue
	var textLines []string

	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(textLines, "\n")
			cues = append(cues, *cur)
			cur = nil
			textLines = nil
		}
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if i == 0 && strings.HasPrefix(trimmed, Header) {
			continue
		}
		if trimmed == "" {
			flush()
			continue
		}
		if strings.Contains(trimmed, "-->") {
			flush()
			times := strings.SplitN(trimmed, "-->", 2)
			start, err := ParseTimestamp(times[0])
			if err != nil {
				return nil, fmt.Errorf("parse cue %d: %w", len(cues)+1, err)
			}
			end, err := ParseTimestamp(times[1])
			if err != nil {
				return nil, fmt.Errorf("parse cue %d: %w", len(cues)+1, err)
			}
			cur = &Cue{StartTime: start, EndTime: end}
			continue
		}
		if cur == nil {
			// Cue identifier or stray text outside a block.
			continue
		}
		textLines = append(textLines, line)
	}
	flush()

	return cues, nil
}

// SegmentsFromCues reconstructs the store representation from parsed cues so
// the pre-check short-circuit converges on the same internal state as the
// streaming path.
func SegmentsFromCues(cues []Cue) []Segment {
	segs := make([]Segment, len(cues))
	for i, c := range cues {
		segs[i] = Segment{
			Start: FormatTimestamp(c.StartTime),
			End:   FormatTimestamp(c.EndTime),
			Text:  c.Text,
		}
	}
	return segs
}
