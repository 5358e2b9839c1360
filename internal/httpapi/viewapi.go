package httpapi

import (
	"net/http"
	"time"

	"tracenet/core-go/internal/topology"
	"tracenet/core-go/internal/view"
)

type viewRequest struct {
	Viewport    view.Viewport `json:"viewport"`
	Search      string        `json:"search"`
	ProblemOnly bool          `json:"problemOnly"`
}

type viewResponse struct {
	Nodes      []topology.VisualNode `json:"nodes"`
	Edges      []topology.VisualEdge `json:"edges"`
	SnapshotAt *time.Time            `json:"snapshotAt,omitempty"`
	TraceToken int64                 `json:"traceToken,omitempty"`
}

// handleTopologyView runs the full pipeline for the posted viewport/UI state
// against the current feed snapshot and published trace overlay.
func (h *Handler) handleTopologyView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}
	if req.Viewport.Zoom <= 0 {
		req.Viewport.Zoom = 1
	}

	snap := h.feed.Snapshot()
	published := h.orch.Published()

	st := view.State{
		Viewport:    req.Viewport,
		Search:      req.Search,
		ProblemOnly: req.ProblemOnly,
	}
	nodes, edges := h.engine.Render(snap.Devices, snap.Cables, st, published.Overlay())

	resp := viewResponse{Nodes: nodes, Edges: edges, TraceToken: published.Token}
	if !snap.Taken.IsZero() {
		taken := snap.Taken
		resp.SnapshotAt = &taken
	}
	h.writeJSON(w, http.StatusOK, resp)
}
