package backend

import (
	"encoding/json"
	"testing"
)

func TestCommandSubscribeMarshal(t *testing.T) {
	cmd := Command{Cmd: "subscribe", Events: []string{EventSubtitleChunk}}

	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Command
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Cmd != "subscribe" {
		t.Errorf("cmd = %q, want %q", got.Cmd, "subscribe")
	}
	if len(got.Events) != 1 || got.Events[0] != "new_subtitle_chunk" {
		t.Errorf("events = %v", got.Events)
	}
}

func TestCommandOmitsEmptyEvents(t *testing.T) {
	data, err := json.Marshal(Command{Cmd: "subscribe"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if _, ok := raw["events"]; ok {
		t.Error("subscribe without filter should omit events")
	}
}

func TestEventSubtitleChunk(t *testing.T) {
	j := `{"event":"new_subtitle_chunk","original_filename":"talk.mp4","segments":[{"start":"00:00:01.000","end":"00:00:02.000","text":"hello"}]}`

	var ev Event
	if err := json.Unmarshal([]byte(j), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if ev.Event != EventSubtitleChunk {
		t.Errorf("event = %q", ev.Event)
	}
	if ev.OriginalFilename != "talk.mp4" {
		t.Errorf("original_filename = %q", ev.OriginalFilename)
	}
	if len(ev.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(ev.Segments))
	}
	if ev.Segments[0].Start != "00:00:01.000" || ev.Segments[0].Text != "hello" {
		t.Errorf("segments[0] = %+v", ev.Segments[0])
	}
}

func TestEventEmptyChunkIsValid(t *testing.T) {
	// The daemon emits an empty chunk as a started signal.
	j := `{"event":"new_subtitle_chunk","original_filename":"talk.mp4","segments":[]}`

	var ev Event
	if err := json.Unmarshal([]byte(j), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(ev.Segments) != 0 {
		t.Errorf("segments = %v, want empty", ev.Segments)
	}
}

func TestEventComplete(t *testing.T) {
	j := `{"event":"transcription_complete","original_filename":"talk.mp4"}`

	var ev Event
	if err := json.Unmarshal([]byte(j), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Event != EventTranscriptionDone {
		t.Errorf("event = %q", ev.Event)
	}
}

func TestEventError(t *testing.T) {
	j := `{"event":"transcription_error","original_filename":"talk.mp4","message":"no speech detected"}`

	var ev Event
	if err := json.Unmarshal([]byte(j), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Event != EventTranscriptionError {
		t.Errorf("event = %q", ev.Event)
	}
	if ev.Message != "no speech detected" {
		t.Errorf("message = %q", ev.Message)
	}
}

func TestResponseError(t *testing.T) {
	j := `{"ok":false,"error":"already subscribed"}`

	var resp Response
	if err := json.Unmarshal([]byte(j), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.OK {
		t.Error("ok = true, want false")
	}
	if resp.Error != "already subscribed" {
		t.Errorf("error = %q", resp.Error)
	}
}
