package httpapi

import (
	"net/http"
	"strings"
)

type traceRequest struct {
	Query    string `json:"query,omitempty"`
	DeviceID int64  `json:"deviceId,omitempty"`
}

// handleStartTrace issues a trace from a searched or directly selected
// device. Resolution and policy failures are part of the published view
// state, not HTTP errors; the frontend renders the message inline.
func (h *Handler) handleStartTrace(w http.ResponseWriter, r *http.Request) {
	var req traceRequest
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid json body", map[string]any{"error": err.Error()})
		return
	}

	hasQuery := strings.TrimSpace(req.Query) != ""
	if hasQuery == (req.DeviceID > 0) {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "provide exactly one of query or deviceId", nil)
		return
	}

	snap := h.feed.Snapshot()
	if hasQuery {
		h.writeJSON(w, http.StatusOK, h.orch.TraceFromSearch(r.Context(), snap.Devices, req.Query))
		return
	}
	h.writeJSON(w, http.StatusOK, h.orch.TraceFromDevice(r.Context(), snap.Devices, req.DeviceID))
}

func (h *Handler) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.orch.Published())
}

func (h *Handler) handleClearTrace(w http.ResponseWriter, r *http.Request) {
	h.orch.Clear()
	w.WriteHeader(http.StatusNoContent)
}
