package view

import (
	"math"
	"strings"

	"tracenet/core-go/internal/topology"
)

// FilterNodes runs the visibility pipeline over the laid-out node set.
// Filters compose as set intersections, evaluated top to bottom:
//
//  1. problem-only: keep devices whose status is not online
//  2. trace mask: keep devices on the traced path
//  3. search: keep matches plus their one-hop cable neighbors
//  4. zoom level-of-detail: below the low threshold, hide leaf devices
//  5. smart local reveal: at high zoom, show only the leaves cabled to the
//     switch nearest the viewport center
//
// 4 and 5 only apply when no explicit filter (1-3) is active. Pure function;
// the input slice is not mutated.
func FilterNodes(nodes []topology.VisualNode, cables []topology.Cable, st State) []topology.VisualNode {
	out := make([]topology.VisualNode, 0, len(nodes))
	out = append(out, nodes...)

	explicit := false

	if st.ProblemOnly {
		explicit = true
		out = retain(out, func(n topology.VisualNode) bool {
			return n.Status != topology.StatusOnline
		})
	}

	if st.Trace != nil {
		explicit = true
		out = retain(out, func(n topology.VisualNode) bool {
			return st.Trace.Has(n.DeviceID)
		})
	}

	if strings.TrimSpace(st.Search) != "" {
		explicit = true
		keep := searchSet(nodes, cables)
		out = retain(out, func(n topology.VisualNode) bool {
			_, ok := keep[n.DeviceID]
			return ok
		})
	}

	if explicit {
		return out
	}

	zoom := st.Viewport.Zoom
	switch {
	case zoom < lowZoomThreshold:
		out = retain(out, func(n topology.VisualNode) bool {
			return !n.Type.IsLeaf()
		})
	case zoom >= revealZoomThreshold:
		revealed := revealSet(out, cables, st.Viewport)
		out = retain(out, func(n topology.VisualNode) bool {
			if !n.Type.IsLeaf() {
				return true
			}
			_, ok := revealed[n.DeviceID]
			return ok
		})
	}

	return out
}

// searchSet collects the devices whose nodes were marked as search matches by
// the graph builder, expanded by exactly one hop through the cable graph so a
// match is never shown without its immediate context. Matches are gathered
// before neighbors are added; the expansion never cascades.
func searchSet(nodes []topology.VisualNode, cables []topology.Cable) map[int64]struct{} {
	matches := make(map[int64]struct{})
	for _, n := range nodes {
		if n.Highlighted {
			matches[n.DeviceID] = struct{}{}
		}
	}

	adj := topology.Adjacency(cables)
	keep := make(map[int64]struct{}, len(matches))
	for id := range matches {
		keep[id] = struct{}{}
		for _, neighbor := range adj[id] {
			keep[neighbor] = struct{}{}
		}
	}
	return keep
}

// revealSet finds the switch nearest the viewport center, within the reveal
// radius, and returns the ids of the leaf devices cabled directly to it. An
// empty result means no hub is close enough and leaves stay hidden.
func revealSet(nodes []topology.VisualNode, cables []topology.Cable, vp Viewport) map[int64]struct{} {
	radius := revealRadiusPx
	if vp.Zoom > 0 {
		radius = revealRadiusPx / vp.Zoom
	}

	var anchor *topology.VisualNode
	best := radius
	for i := range nodes {
		n := &nodes[i]
		if n.Type != topology.TypeSwitch {
			continue
		}
		d := math.Hypot(n.X-vp.CenterX, n.Y-vp.CenterY)
		if d <= best {
			best = d
			anchor = n
		}
	}
	if anchor == nil {
		return nil
	}

	revealed := make(map[int64]struct{})
	for _, neighbor := range topology.Adjacency(cables)[anchor.DeviceID] {
		revealed[neighbor] = struct{}{}
	}
	return revealed
}

func retain(nodes []topology.VisualNode, keep func(topology.VisualNode) bool) []topology.VisualNode {
	out := nodes[:0]
	for _, n := range nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
