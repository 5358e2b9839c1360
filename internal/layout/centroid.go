package layout

import (
	"math"

	"tracenet/core-go/internal/topology"
)

// Per-type bounding boxes used to turn a centroid into a top-left anchor.
var nodeBox = map[topology.DeviceType]struct{ W, H float64 }{
	topology.TypeRouter: {96, 96},
	topology.TypeSwitch: {88, 88},
	topology.TypeServer: {80, 80},
	topology.TypePC:     {64, 64},
}

// edgeSignature is the cheap change-detection key for an edge slice: length
// plus first and last edge id. Approximate on purpose; a false match would
// need an edit that preserves all three, which the replace-wholesale feed
// contract does not produce.
type edgeSignature struct {
	count       int
	first, last string
}

func signatureOf(edges []topology.VisualEdge) edgeSignature {
	sig := edgeSignature{count: len(edges)}
	if len(edges) > 0 {
		sig.first = edges[0].ID
		sig.last = edges[len(edges)-1].ID
	}
	return sig
}

// centerEntry caches one hub's computed centroid along with the neighbor ids
// that produced it and the position the hub had before alignment.
type centerEntry struct {
	x, y        float64
	neighborIDs []string
	prevX       float64
	prevY       float64
}

// Aligner owns the edge index and centroid cache. One instance per view
// engine; both caches invalidate wholesale when the edge signature changes.
type Aligner struct {
	sig     edgeSignature
	index   map[string][]topology.VisualEdge
	entries map[string]centerEntry

	// counters for metrics scraping
	Hits   int64
	Misses int64
}

// NewAligner returns an empty aligner.
func NewAligner() *Aligner {
	return &Aligner{entries: make(map[string]centerEntry)}
}

// Align recomputes the position of every hub node (router, switch) as the
// arithmetic mean of its directly connected neighbors' positions, translated
// to a top-left anchor by the hub's bounding box. Linear in nodes+edges.
//
// Hubs with no validly positioned neighbor keep their layout-assigned
// position. Neighbors with non-finite coordinates are excluded from the
// average rather than aborting the pass.
func (a *Aligner) Align(nodes []topology.VisualNode, edges []topology.VisualEdge) {
	a.ensureIndex(edges)

	byID := make(map[string]*topology.VisualNode, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	for i := range nodes {
		n := &nodes[i]
		if !n.Type.IsHub() {
			continue
		}

		if entry, ok := a.entries[n.ID]; ok {
			a.Hits++
			n.X = entry.x
			n.Y = entry.y
			n.Centered = true
			continue
		}
		a.Misses++

		var sumX, sumY float64
		var neighborIDs []string
		for _, e := range a.index[n.ID] {
			otherID := e.Source
			if otherID == n.ID {
				otherID = e.Target
			}
			other := byID[otherID]
			if other == nil {
				continue
			}
			if !finite(other.X) || !finite(other.Y) {
				continue
			}
			sumX += other.X
			sumY += other.Y
			neighborIDs = append(neighborIDs, otherID)
		}
		if len(neighborIDs) == 0 {
			continue
		}

		box := nodeBox[n.Type]
		entry := centerEntry{
			x:           sumX/float64(len(neighborIDs)) - box.W/2,
			y:           sumY/float64(len(neighborIDs)) - box.H/2,
			neighborIDs: neighborIDs,
			prevX:       n.X,
			prevY:       n.Y,
		}
		a.entries[n.ID] = entry
		n.X = entry.x
		n.Y = entry.y
		n.Centered = true
	}
}

// Invalidate drops all cached centroids and the edge index.
func (a *Aligner) Invalidate() {
	a.sig = edgeSignature{}
	a.index = nil
	a.entries = make(map[string]centerEntry)
}

// CachedCenters reports how many centroid entries are currently cached.
func (a *Aligner) CachedCenters() int {
	return len(a.entries)
}

func (a *Aligner) ensureIndex(edges []topology.VisualEdge) {
	sig := signatureOf(edges)
	if a.index != nil && sig == a.sig {
		return
	}

	index := make(map[string][]topology.VisualEdge, len(edges))
	for _, e := range edges {
		index[e.Source] = append(index[e.Source], e)
		if e.Target != e.Source {
			index[e.Target] = append(index[e.Target], e)
		}
	}
	a.index = index
	a.sig = sig
	// Edge identity changed, so every cached centroid is suspect.
	a.entries = make(map[string]centerEntry)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
