package deeplink

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFragment interprets a share-link fragment as a media timestamp.
// Accepted forms are SS, MM:SS and HH:MM:SS, with or without a leading
// '#'. Anything else is rejected so a malformed link never causes a seek.
func ParseFragment(fragment string) (float64, error) {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return 0, fmt.Errorf("empty fragment")
	}

	parts := strings.Split(fragment, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", fragment)
	}

	total := 0.0
	for _, part := range parts {
		if part == "" {
			return 0, fmt.Errorf("invalid timestamp %q", fragment)
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", fragment)
		}
		total = total*60 + float64(n)
	}
	return total, nil
}

// FormatFragment renders a position as the shortest fragment form that
// round-trips through ParseFragment.
func FormatFragment(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec)
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Seeker defers a deep-link seek until the player knows the media
// duration. The pending target survives exactly one Ready call.
type Seeker struct {
	target  float64
	pending bool
}

// Defer records a seek target. A later Defer replaces an earlier one.
func (s *Seeker) Defer(sec float64) {
	s.target = sec
	s.pending = true
}

// Ready consumes the pending target. It reports false when nothing is
// pending, so callers can apply it at most once.
func (s *Seeker) Ready() (float64, bool) {
	if !s.pending {
		return 0, false
	}
	s.pending = false
	return s.target, true
}

// Cancel drops any pending target, used when the file changes before
// playback becomes ready.
func (s *Seeker) Cancel() {
	s.pending = false
}
