package summary

// Transform is the visual state of the outline graph surface: pan offsets
// in rows/columns and the depth beyond which nodes are collapsed. The
// persistence layer treats it as opaque. It only stores, compares versions,
// and hands it back.
type Transform struct {
	X     int
	Y     int
	Depth int
}

// GraphView preserves a transform across visibility toggles of the graph
// surface. Restoration is a two-phase protocol: Show marks the surface
// visible and invalidates its layout; the surface reports LayoutComplete
// once the pending layout pass has run, and only then is the saved
// transform (if still valid) handed back. Applying a transform to an
// un-laid-out surface would be a no-op or incorrect, so there is no way to
// obtain it earlier.
type GraphView struct {
	created bool
	visible bool
	laidOut bool

	version      int
	saved        Transform
	savedVersion int
	hasSaved     bool
}

// NewGraphView returns a graph view in the absent state.
func NewGraphView() *GraphView {
	return &GraphView{}
}

// Created reports whether the surface has ever been shown.
func (g *GraphView) Created() bool { return g.created }

// Visible reports whether the surface is currently shown.
func (g *GraphView) Visible() bool { return g.visible }

// ContentChanged records a new content version. Any saved transform is
// invalidated immediately, regardless of visibility. The return value tells
// a visible surface to perform a fresh fit-to-content layout right away.
func (g *GraphView) ContentChanged(version int) (freshLayout bool) {
	g.version = version
	g.hasSaved = false
	return g.visible
}

// Show transitions the surface to visible. The surface must run a layout
// pass and then call LayoutComplete before any transform is applied.
func (g *GraphView) Show() {
	g.created = true
	g.visible = true
	g.laidOut = false
}

// Hide captures the surface's current transform, tagged with the current
// content version, and transitions to hidden. Hiding an already hidden or
// absent surface is a no-op.
func (g *GraphView) Hide(current Transform) {
	if !g.visible {
		return
	}
	g.saved = current
	g.savedVersion = g.version
	g.hasSaved = true
	g.visible = false
}

// LayoutComplete is called by the surface after the layout pass triggered
// by Show has finished. If a transform was saved against the same content
// version it is returned for exact reapplication (and consumed); otherwise
// the caller performs a fresh fit-to-content layout and any stale saved
// transform is discarded, never applied.
func (g *GraphView) LayoutComplete() (Transform, bool) {
	if !g.visible {
		return Transform{}, false
	}
	g.laidOut = true
	if g.hasSaved && g.savedVersion == g.version {
		t := g.saved
		g.hasSaved = false
		return t, true
	}
	g.hasSaved = false
	return Transform{}, false
}
