package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lkaiser/livecap/internal/backend"
	"github.com/lkaiser/livecap/internal/config"
	"github.com/lkaiser/livecap/internal/player"
	"github.com/lkaiser/livecap/internal/stream"
	"github.com/lkaiser/livecap/internal/subtitle"
	"github.com/lkaiser/livecap/internal/summary"
)

const testDoc = "WEBVTT\n\n00:00:01.000 --> 00:00:03.000\nhi there\n"

func newTestModel(t *testing.T, deepLink string) Model {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	m := New(cfg, t.TempDir(), deepLink)
	m.width = 100
	m.height = 30

	updated, _ := m.Update(FilesLoadedMsg{Files: []string{"talk.mp4"}})
	return updated.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, s string) Model {
	t.Helper()
	updated, _ := m.Update(key(s))
	return updated.(Model)
}

func selectTalk(t *testing.T, m Model) Model {
	t.Helper()
	m.focus = FocusFiles
	m.fileIndex = 0
	m = press(t, m, "enter")
	if m.session == nil {
		t.Fatal("selecting a file should create a session")
	}
	if m.session.File() != "talk.mp4" {
		t.Fatalf("session file = %q", m.session.File())
	}
	return m
}

func TestNewModel(t *testing.T) {
	m := newTestModel(t, "")
	if m.session != nil {
		t.Error("new model should have no session")
	}
	if !m.captionsOn {
		t.Error("captions should default on")
	}
	if m.focus != FocusFiles {
		t.Error("new model should focus the file picker")
	}
	if m.summaryState.Active() != summary.ViewGraph {
		t.Error("summary should default to the graph view")
	}
}

func TestSelectFileStartsConnecting(t *testing.T) {
	m := selectTalk(t, newTestModel(t, ""))
	if m.session.State() != stream.StateConnecting {
		t.Errorf("state = %v", m.session.State())
	}
}

func TestPreCheckFoundCompletesWithoutTransport(t *testing.T) {
	m := selectTalk(t, newTestModel(t, ""))

	updated, _ := m.Update(PreCheckResultMsg{File: "talk.mp4", Doc: testDoc, Found: true})
	m = updated.(Model)

	if m.session.State() != stream.StateCompleted {
		t.Fatalf("state = %v", m.session.State())
	}
	cue, ok := m.session.Track().ActiveAt(2.0)
	if !ok || cue.Text != "hi there" {
		t.Errorf("active cue = %+v ok=%v", cue, ok)
	}
	if m.client != nil {
		t.Error("pre-check hit must not open the event socket")
	}
}

func TestPreCheckResponseForOtherFileIgnored(t *testing.T) {
	m := selectTalk(t, newTestModel(t, ""))

	updated, _ := m.Update(PreCheckResultMsg{File: "other.mp4", Doc: testDoc, Found: true})
	m = updated.(Model)

	if m.session.State() != stream.StateConnecting {
		t.Errorf("stale response changed state to %v", m.session.State())
	}
}

func TestUploadFailureSurfacesServerError(t *testing.T) {
	m := selectTalk(t, newTestModel(t, ""))
	updated, _ := m.Update(PreCheckResultMsg{File: "talk.mp4", Found: false})
	m = updated.(Model)
	updated, _ = m.Update(ConnectedMsg{File: "talk.mp4", Client: &backend.Client{}})
	m = updated.(Model)

	updated, _ = m.Update(UploadResultMsg{File: "talk.mp4", Err: fmt.Errorf("unsupported file type \".flac\"")})
	m = updated.(Model)

	if m.session.State() != stream.StateErrored {
		t.Errorf("state = %v", m.session.State())
	}
	if m.errorMessage == "" {
		t.Error("server error should reach the error bar")
	}
}

func TestStaleChunkNeverTouchesStore(t *testing.T) {
	m := selectTalk(t, newTestModel(t, ""))
	updated, _ := m.Update(PreCheckResultMsg{File: "talk.mp4", Found: false})
	m = updated.(Model)
	updated, _ = m.Update(ConnectedMsg{File: "talk.mp4", Client: &backend.Client{}})
	m = updated.(Model)
	updated, _ = m.Update(UploadResultMsg{File: "talk.mp4"})
	m = updated.(Model)

	before := m.store.Generation()
	updated, _ = m.Update(EventMsg{File: "talk.mp4", Event: backend.Event{
		Event:            backend.EventSubtitleChunk,
		OriginalFilename: "other.mp4",
		Segments:         []subtitle.Segment{{Start: "00:00:01.000", End: "00:00:02.000", Text: "stale"}},
	}})
	m = updated.(Model)

	if m.store.Generation() != before {
		t.Error("segments from another file mutated the store")
	}
}

func TestCompileTickFromPreviousSelectionIgnored(t *testing.T) {
	m := selectTalk(t, newTestModel(t, ""))
	firstGen := m.sessionGen

	// Re-selecting the same file replaces the compiler; its tokens
	// restart, so a leftover timer from the first scope can carry a
	// numerically matching token.
	m = press(t, m, "enter")
	if m.sessionGen == firstGen {
		t.Fatal("re-selection should advance the media scope generation")
	}

	updated, _ := m.Update(EventMsg{File: "talk.mp4", Event: backend.Event{
		Event:            backend.EventSubtitleChunk,
		OriginalFilename: "talk.mp4",
		Segments:         []subtitle.Segment{{Start: "00:00:01.000", End: "00:00:02.000", Text: "hi"}},
	}})
	m = updated.(Model)
	if !m.compiler.Pending() {
		t.Fatal("chunk should leave a compile pending")
	}

	updated, _ = m.Update(CompileTickMsg{File: "talk.mp4", Gen: firstGen, Token: 2})
	m = updated.(Model)
	if !m.compiler.Pending() {
		t.Fatal("a stale scope's timer fired the debounce early")
	}

	updated, _ = m.Update(CompileTickMsg{File: "talk.mp4", Gen: m.sessionGen, Token: 2})
	m = updated.(Model)
	if m.compiler.Pending() {
		t.Fatal("the current scope's timer should fire")
	}
	if len(m.session.Track()) != 1 {
		t.Fatalf("track = %d cues, want 1", len(m.session.Track()))
	}
}

func TestEventErrorAfterCompletionIgnored(t *testing.T) {
	m := selectTalk(t, newTestModel(t, ""))
	updated, _ := m.Update(PreCheckResultMsg{File: "talk.mp4", Doc: testDoc, Found: true})
	m = updated.(Model)

	updated, _ = m.Update(EventErrorMsg{File: "talk.mp4", Err: fmt.Errorf("use of closed network connection")})
	m = updated.(Model)

	if m.session.State() != stream.StateCompleted {
		t.Errorf("teardown-induced read error flipped state to %v", m.session.State())
	}
	if m.errorMessage != "" {
		t.Errorf("spurious error shown: %q", m.errorMessage)
	}
}

func TestCaptionToggle(t *testing.T) {
	m := newTestModel(t, "")
	m = press(t, m, "c")
	if m.captionsOn {
		t.Error("captions should toggle off")
	}
	m = press(t, m, "c")
	if !m.captionsOn {
		t.Error("captions should toggle back on")
	}
}

func TestPlaybackToggleAndTick(t *testing.T) {
	m := selectTalk(t, newTestModel(t, ""))
	updated, _ := m.Update(ProbeResultMsg{File: "talk.mp4", Info: &player.MediaInfo{Duration: 100}})
	m = updated.(Model)

	m = press(t, m, " ")
	if !m.clock.Playing() {
		t.Fatal("space should start playback")
	}

	updated, _ = m.Update(PlaybackTickMsg{Gen: m.playGen})
	m = updated.(Model)
	if m.clock.Position() != playbackTick.Seconds() {
		t.Errorf("position = %v", m.clock.Position())
	}

	m = press(t, m, " ")
	if m.clock.Playing() {
		t.Error("space should pause")
	}
}

func TestRestartedPlaybackKeepsOneTickChain(t *testing.T) {
	m := selectTalk(t, newTestModel(t, ""))
	updated, _ := m.Update(ProbeResultMsg{File: "talk.mp4", Info: &player.MediaInfo{Duration: 100}})
	m = updated.(Model)

	m = press(t, m, " ") // play
	firstGen := m.playGen
	m = press(t, m, " ") // pause
	m = press(t, m, " ") // play again

	// A tick from the first chain is still in flight when playback
	// restarts. Only the current chain's tick may advance the clock.
	updated, _ = m.Update(PlaybackTickMsg{Gen: firstGen})
	m = updated.(Model)
	updated, _ = m.Update(PlaybackTickMsg{Gen: m.playGen})
	m = updated.(Model)

	if m.clock.Position() != playbackTick.Seconds() {
		t.Errorf("position = %vs after one %v interval, want %vs",
			m.clock.Position(), playbackTick, playbackTick.Seconds())
	}
}

func TestDeepLinkAppliedAfterProbe(t *testing.T) {
	m := selectTalk(t, newTestModel(t, "#01:30"))
	if m.clock.Position() != 0 {
		t.Fatal("seek must wait for metadata")
	}

	updated, _ := m.Update(ProbeResultMsg{File: "talk.mp4", Info: &player.MediaInfo{Duration: 200}})
	m = updated.(Model)

	if m.clock.Position() != 90 {
		t.Errorf("position = %v, want 90", m.clock.Position())
	}
	if _, ok := m.seeker.Ready(); ok {
		t.Error("deep link target must be consumed")
	}
}

func TestMalformedDeepLinkNeverSeeks(t *testing.T) {
	m := selectTalk(t, newTestModel(t, "#bogus"))
	updated, _ := m.Update(ProbeResultMsg{File: "talk.mp4", Info: &player.MediaInfo{Duration: 200}})
	m = updated.(Model)

	if m.clock.Position() != 0 {
		t.Errorf("position = %v, want 0", m.clock.Position())
	}
}

func TestProbeFailureShowsTransientError(t *testing.T) {
	m := selectTalk(t, newTestModel(t, ""))
	updated, _ := m.Update(ProbeResultMsg{File: "talk.mp4", Err: fmt.Errorf("ffprobe failed")})
	m = updated.(Model)

	if m.errorMessage == "" || !m.errorTransient {
		t.Fatalf("error bar: %q transient=%v", m.errorMessage, m.errorTransient)
	}

	updated, _ = m.Update(ClearTransientErrorMsg{})
	m = updated.(Model)
	if m.errorMessage != "" {
		t.Error("transient error should clear")
	}
}

func TestGraphTransformRestoredOnUnchangedContent(t *testing.T) {
	m := selectTalk(t, newTestModel(t, ""))
	m.applySummary("# Talk\n\n## One\n- a\n\n## Two\n- b\n")
	m.toggleGraphVisible()

	m.transform.X = 7
	m.transform.Y = 2
	saved := m.transform

	m.toggleGraphVisible() // hide, captures transform
	m.toggleGraphVisible() // show, content unchanged
	if m.transform != saved {
		t.Errorf("transform = %+v, want %+v restored", m.transform, saved)
	}
}

func TestGraphTransformDiscardedAfterResummarize(t *testing.T) {
	m := selectTalk(t, newTestModel(t, ""))
	m.applySummary("# Talk\n\n## One\n- a\n")
	m.toggleGraphVisible()
	m.transform.X = 7
	m.toggleGraphVisible() // hide

	// Same text, new version: the saved transform must not come back.
	m.applySummary("# Talk\n\n## One\n- a\n")
	m.toggleGraphVisible()

	if m.transform.X == 7 {
		t.Error("stale transform reapplied after content version bump")
	}
}

func TestSummaryViewCycle(t *testing.T) {
	m := newTestModel(t, "")
	if m.summaryState.Active() != summary.ViewGraph {
		t.Fatal("graph should be the default view")
	}
	m = press(t, m, "v")
	if m.summaryState.Active() != summary.ViewRendered {
		t.Errorf("view = %v", m.summaryState.Active())
	}
	m = press(t, m, "v")
	if m.summaryState.Active() != summary.ViewSource {
		t.Errorf("view = %v", m.summaryState.Active())
	}
	m = press(t, m, "v")
	if m.summaryState.Active() != summary.ViewGraph {
		t.Errorf("view = %v", m.summaryState.Active())
	}
}

func TestFileNavigation(t *testing.T) {
	m := newTestModel(t, "")
	updated, _ := m.Update(FilesLoadedMsg{Files: []string{"a.mp3", "b.mp4", "c.wav"}})
	m = updated.(Model)

	m = press(t, m, "j")
	m = press(t, m, "j")
	if m.fileIndex != 2 {
		t.Errorf("fileIndex = %d", m.fileIndex)
	}
	m = press(t, m, "j")
	if m.fileIndex != 2 {
		t.Error("cursor ran past the last file")
	}
	m = press(t, m, "k")
	if m.fileIndex != 1 {
		t.Errorf("fileIndex = %d", m.fileIndex)
	}
}

func TestViewRendersWithoutSession(t *testing.T) {
	m := newTestModel(t, "")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(Model)

	out := m.View()
	if out == "" {
		t.Fatal("empty view")
	}
	if !strings.Contains(out, "LIVECAP") {
		t.Error("header missing")
	}
}
