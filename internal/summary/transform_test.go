package summary

import "testing"

func TestTransformReappliedWhenContentUnchanged(t *testing.T) {
	g := NewGraphView()
	g.ContentChanged(1)
	g.Show()
	if _, ok := g.LayoutComplete(); ok {
		t.Fatal("first layout should be a fresh fit, not a restore")
	}

	saved := Transform{X: 12, Y: -3, Depth: 2}
	g.Hide(saved)
	if g.Visible() {
		t.Fatal("hide should mark view invisible")
	}

	g.Show()
	got, ok := g.LayoutComplete()
	if !ok {
		t.Fatal("expected saved transform to be restored")
	}
	if got != saved {
		t.Fatalf("restored transform = %+v, want %+v", got, saved)
	}
}

func TestTransformDiscardedWhenContentChangedWhileHidden(t *testing.T) {
	g := NewGraphView()
	g.ContentChanged(1)
	g.Show()
	g.LayoutComplete()
	g.Hide(Transform{X: 12, Y: -3, Depth: 2})

	g.ContentChanged(2)

	g.Show()
	if _, ok := g.LayoutComplete(); ok {
		t.Fatal("stale transform must not be applied after a content change")
	}
}

func TestTransformNotRestoredBeforeLayoutPass(t *testing.T) {
	g := NewGraphView()
	g.ContentChanged(1)
	g.Show()
	g.LayoutComplete()
	g.Hide(Transform{X: 5, Y: 5, Depth: 1})

	// While hidden there is no layout pass to complete.
	if _, ok := g.LayoutComplete(); ok {
		t.Fatal("hidden view must not report a restore")
	}

	g.Show()
	if _, ok := g.LayoutComplete(); !ok {
		t.Fatal("restore should still be pending for the next show")
	}
}

func TestTransformConsumedOnce(t *testing.T) {
	g := NewGraphView()
	g.ContentChanged(1)
	g.Show()
	g.LayoutComplete()
	g.Hide(Transform{X: 1, Y: 2, Depth: 3})

	g.Show()
	if _, ok := g.LayoutComplete(); !ok {
		t.Fatal("expected restore on first layout after show")
	}
	if _, ok := g.LayoutComplete(); ok {
		t.Fatal("saved transform must be consumed by the restore")
	}
}

func TestContentChangeWhileVisibleForcesFreshLayout(t *testing.T) {
	g := NewGraphView()
	g.ContentChanged(1)
	g.Show()
	g.LayoutComplete()

	if !g.ContentChanged(2) {
		t.Fatal("visible view should relayout on content change")
	}
	if _, ok := g.LayoutComplete(); ok {
		t.Fatal("relayout after content change must be a fresh fit")
	}
}

func TestHideWithoutShowCapturesNothing(t *testing.T) {
	g := NewGraphView()
	g.ContentChanged(1)
	g.Hide(Transform{X: 9, Y: 9, Depth: 9})

	g.Show()
	if _, ok := g.LayoutComplete(); ok {
		t.Fatal("hide on an invisible view must not record a transform")
	}
}
