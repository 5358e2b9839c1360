package topology

// Graph is the node/edge projection of one device/cable snapshot plus the
// search term in force when it was built.
type Graph struct {
	Nodes []VisualNode
	Edges []VisualEdge
}

// Build produces one VisualNode per device and one base VisualEdge per cable.
// Positions start at the origin; the layout stage assigns real coordinates.
// Pure function of its inputs.
//
// A cable referencing an unknown device id still yields an edge here; the
// filter and overlay stages drop edges whose endpoints are missing from the
// node set, so partial feeds degrade instead of erroring.
func Build(devices []Device, cables []Cable, search string) Graph {
	nodes := make([]VisualNode, 0, len(devices))
	for _, d := range devices {
		nodes = append(nodes, VisualNode{
			ID:          NodeID(d.ID),
			DeviceID:    d.ID,
			Type:        d.Type,
			Status:      d.Status,
			Highlighted: d.MatchesSearch(search),
		})
	}

	edges := make([]VisualEdge, 0, len(cables))
	for _, c := range cables {
		edges = append(edges, VisualEdge{
			ID:     "cable:" + NodeID(c.ID),
			Source: NodeID(c.FromID),
			Target: NodeID(c.ToID),
			Kind:   EdgeBase,
			Link:   NewLinkKey(c.FromID, c.ToID),
		})
	}

	return Graph{Nodes: nodes, Edges: edges}
}

// Adjacency maps each device id to the set of device ids it is directly
// cabled to. Used by the search one-hop expansion and the smart reveal.
func Adjacency(cables []Cable) map[int64][]int64 {
	adj := make(map[int64][]int64, len(cables))
	for _, c := range cables {
		if c.FromID == c.ToID {
			continue
		}
		adj[c.FromID] = append(adj[c.FromID], c.ToID)
		adj[c.ToID] = append(adj[c.ToID], c.FromID)
	}
	return adj
}
