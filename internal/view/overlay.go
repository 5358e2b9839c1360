package view

import (
	"strings"

	"tracenet/core-go/internal/topology"
)

// TraceEdgeIDPrefix namespaces trace overlay edge ids away from base cable
// edge ids.
const TraceEdgeIDPrefix = "trace:"

// ComposeEdges merges the trace overlay into the base edge set.
//
// Rules, in order:
//   - edges with an endpoint missing from the visible node set are dropped
//     (tolerates cables referencing deleted devices)
//   - a base edge whose link key matches any trace edge is removed, so the
//     same physical cable is never drawn in two styles
//   - trace edges are appended with the trace id prefix
//
// The result never contains two edges with the same id.
func ComposeEdges(base, trace []topology.VisualEdge, visible []topology.VisualNode) []topology.VisualEdge {
	present := make(map[string]struct{}, len(visible))
	for _, n := range visible {
		present[n.ID] = struct{}{}
	}

	traced := make(map[topology.LinkKey]struct{}, len(trace))
	for _, e := range trace {
		traced[e.Link] = struct{}{}
	}

	out := make([]topology.VisualEdge, 0, len(base)+len(trace))
	seen := make(map[string]struct{}, len(base)+len(trace))

	appendEdge := func(e topology.VisualEdge) {
		if _, ok := present[e.Source]; !ok {
			return
		}
		if _, ok := present[e.Target]; !ok {
			return
		}
		if _, ok := seen[e.ID]; ok {
			return
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}

	for _, e := range base {
		if _, ok := traced[e.Link]; ok {
			continue
		}
		appendEdge(e)
	}

	for _, e := range trace {
		e.Kind = topology.EdgeTrace
		if !strings.HasPrefix(e.ID, TraceEdgeIDPrefix) {
			e.ID = TraceEdgeIDPrefix + e.ID
		}
		appendEdge(e)
	}

	return out
}
