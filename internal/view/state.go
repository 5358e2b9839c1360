// Package view computes what actually gets drawn: the visibility filter
// pipeline over the laid-out node set and the trace overlay over the base
// edge set.
package view

import "tracenet/core-go/internal/topology"

// Zoom thresholds and the smart-reveal search radius, in screen pixels.
const (
	lowZoomThreshold    = 0.7
	revealZoomThreshold = 1.2
	revealRadiusPx      = 300.0
)

// Viewport is the value object the rendering surface pushes back into the
// engine: pan offset, zoom factor, pixel size, and the graph-space
// coordinates of the viewport center.
type Viewport struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Zoom    float64 `json:"zoom"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
}

// TraceSet is the set of device ids on the currently traced path. When
// non-nil it acts as a hard visibility mask.
type TraceSet map[int64]struct{}

// Has reports membership. A nil set contains nothing.
func (s TraceSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// State is the UI state the filter pipeline evaluates against.
type State struct {
	Viewport    Viewport
	Search      string
	ProblemOnly bool
	Trace       TraceSet
}

// Overlay is the published result of a trace: the visibility mask plus the
// traced-path edges to draw over the base graph.
type Overlay struct {
	Set   TraceSet
	Edges []topology.VisualEdge
}
