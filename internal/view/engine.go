package view

import (
	"time"

	"tracenet/core-go/internal/layout"
	"tracenet/core-go/internal/metrics"
	"tracenet/core-go/internal/topology"
)

// Engine runs the full pipeline for one render: build, radial layout,
// centroid alignment, visibility filtering, overlay composition. Layout and
// filtering recompute from current inputs on every call; the aligner's
// centroid cache is the only state carried between calls.
type Engine struct {
	aligner *layout.Aligner
	metrics *metrics.Metrics
}

// NewEngine creates an engine with a fresh centroid cache. metrics may be nil.
func NewEngine(m *metrics.Metrics) *Engine {
	return &Engine{aligner: layout.NewAligner(), metrics: m}
}

// Render computes the final node and edge lists for the given snapshot, UI
// state, and published trace overlay.
func (e *Engine) Render(devices []topology.Device, cables []topology.Cable, st State, overlay Overlay) ([]topology.VisualNode, []topology.VisualEdge) {
	start := time.Now()

	st.Trace = overlay.Set

	g := topology.Build(devices, cables, st.Search)
	layout.Radial(g.Nodes, g.Edges)

	hitsBefore, missesBefore := e.aligner.Hits, e.aligner.Misses
	e.aligner.Align(g.Nodes, g.Edges)

	visible := FilterNodes(g.Nodes, cables, st)
	edges := ComposeEdges(g.Edges, overlay.Edges, visible)

	if e.metrics != nil {
		e.metrics.ObserveRender(time.Since(start))
		e.metrics.AddCentroidCache(e.aligner.Hits-hitsBefore, e.aligner.Misses-missesBefore)
	}
	return visible, edges
}
