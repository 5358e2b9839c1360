// Package layout assigns 2-D positions to visual nodes: a deterministic
// radial arrangement around hub devices, followed by centroid alignment of
// the hubs themselves.
package layout

import (
	"math"
	"sort"

	"tracenet/core-go/internal/topology"
)

const (
	hubRingRadius    = 420.0
	branchRingOffset = 180.0
	leafStackOffsetX = 90.0
	leafStackSpacing = 70.0
	gridSpacing      = 160.0
)

// Radial positions every node in place. Routers sit evenly spaced on a fixed
// ring around the graph-space origin; each router's one-hop neighbors fan out
// on a secondary ring around it; anything left hanging off an already placed
// node stacks beside that node. Graphs with no router at all fall back to a
// row-major grid so positions are never undefined.
//
// Always recomputes from scratch: same input, same output.
func Radial(nodes []topology.VisualNode, edges []topology.VisualEdge) {
	if len(nodes) == 0 {
		return
	}

	byID := make(map[string]*topology.VisualNode, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	adj := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if e.Source == e.Target {
			continue
		}
		if byID[e.Source] == nil || byID[e.Target] == nil {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	for id := range adj {
		sort.Strings(adj[id])
	}

	var hubs []*topology.VisualNode
	for i := range nodes {
		if nodes[i].Type == topology.TypeRouter {
			hubs = append(hubs, &nodes[i])
		}
	}

	if len(hubs) == 0 {
		grid(nodes)
		return
	}

	placed := make(map[string]bool, len(nodes))

	for i, hub := range hubs {
		angle := 2 * math.Pi * float64(i) / float64(len(hubs))
		hub.X = hubRingRadius * math.Cos(angle)
		hub.Y = hubRingRadius * math.Sin(angle)
		placed[hub.ID] = true
	}

	// Secondary ring: each hub's direct neighbors, fanned around it.
	for _, hub := range hubs {
		neighbors := adj[hub.ID]
		unplaced := neighbors[:0:0]
		for _, id := range neighbors {
			if !placed[id] {
				unplaced = append(unplaced, id)
			}
		}
		for j, id := range unplaced {
			angle := 2 * math.Pi * float64(j) / float64(len(unplaced))
			n := byID[id]
			n.X = hub.X + branchRingOffset*math.Cos(angle)
			n.Y = hub.Y + branchRingOffset*math.Sin(angle)
			placed[id] = true
		}
	}

	// Stack remaining nodes beside whichever placed neighbor claims them
	// first, in input order for determinism.
	stackCount := make(map[string]int)
	for i := range nodes {
		n := &nodes[i]
		if placed[n.ID] {
			continue
		}
		for _, neighborID := range adj[n.ID] {
			if !placed[neighborID] {
				continue
			}
			anchor := byID[neighborID]
			k := stackCount[neighborID]
			n.X = anchor.X + leafStackOffsetX
			n.Y = anchor.Y + leafStackSpacing*float64(k)
			stackCount[neighborID] = k + 1
			placed[n.ID] = true
			break
		}
	}

	// Disconnected leftovers share a grid below the radial area.
	var orphans []*topology.VisualNode
	for i := range nodes {
		if !placed[nodes[i].ID] {
			orphans = append(orphans, &nodes[i])
		}
	}
	if len(orphans) > 0 {
		cols := gridColumns(len(orphans))
		for i, n := range orphans {
			n.X = gridSpacing * float64(i%cols)
			n.Y = hubRingRadius + 2*branchRingOffset + gridSpacing*float64(i/cols)
		}
	}
}

func grid(nodes []topology.VisualNode) {
	cols := gridColumns(len(nodes))
	for i := range nodes {
		nodes[i].X = gridSpacing * float64(i%cols)
		nodes[i].Y = gridSpacing * float64(i/cols)
	}
}

func gridColumns(n int) int {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	return cols
}
