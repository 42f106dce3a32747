package daemon

import "testing"

func TestShiftedSegments(t *testing.T) {
	doc := "WEBVTT\n\n00:00:01.000 --> 00:00:02.500\nhello\n\n00:00:03.000 --> 00:00:04.000\nworld\n"

	segments, err := shiftedSegments(doc, 30)
	if err != nil {
		t.Fatalf("shiftedSegments: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	if segments[0].Start != "00:00:31.000" || segments[0].End != "00:00:32.500" {
		t.Errorf("segment[0] = %s --> %s", segments[0].Start, segments[0].End)
	}
	if segments[1].Start != "00:00:33.000" {
		t.Errorf("segment[1] start = %s", segments[1].Start)
	}
	if segments[0].Text != "hello" || segments[1].Text != "world" {
		t.Errorf("texts = %q, %q", segments[0].Text, segments[1].Text)
	}
}

func TestShiftedSegmentsZeroOffset(t *testing.T) {
	doc := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nhi\n"
	segments, err := shiftedSegments(doc, 0)
	if err != nil {
		t.Fatalf("shiftedSegments: %v", err)
	}
	if segments[0].Start != "00:00:01.000" {
		t.Errorf("start = %s", segments[0].Start)
	}
}

func TestShiftedSegmentsMalformed(t *testing.T) {
	if _, err := shiftedSegments("WEBVTT\n\nbogus --> nope\nx\n", 0); err == nil {
		t.Fatal("expected parse error")
	}
}
