package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"tracenet/core-go/internal/enrichment/snmp"
	"tracenet/core-go/internal/topology"
)

type inspectResponse struct {
	DeviceID      int64   `json:"deviceId"`
	Name          string  `json:"name"`
	IP            string  `json:"ip"`
	SysName       *string `json:"sysName,omitempty"`
	SysDescr      *string `json:"sysDescr,omitempty"`
	SysLocation   *string `json:"sysLocation,omitempty"`
	UptimeSeconds *int64  `json:"uptimeSeconds,omitempty"`
}

// handleInspectDevice performs an on-demand SNMP probe of one device for the
// inspector panel.
func (h *Handler) handleInspectDevice(w http.ResponseWriter, r *http.Request) {
	idRaw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_id", "device id must be a positive integer", map[string]any{"id": idRaw})
		return
	}

	if h.snmp == nil {
		h.writeError(w, http.StatusServiceUnavailable, "snmp_disabled", "snmp enrichment is not enabled", nil)
		return
	}

	snap := h.feed.Snapshot()
	var device *topology.Device
	for i := range snap.Devices {
		if snap.Devices[i].ID == id {
			device = &snap.Devices[i]
			break
		}
	}
	if device == nil && h.store != nil {
		// The snapshot lags the store by up to one poll interval; a device
		// registered since the last refresh is still inspectable.
		d, err := h.store.GetDevice(r.Context(), id)
		switch {
		case err == nil:
			device = &d
		case errors.Is(err, pgx.ErrNoRows):
		default:
			h.writeError(w, http.StatusInternalServerError, "store_error", "device lookup failed", map[string]any{"error": err.Error()})
			return
		}
	}
	if device == nil {
		h.writeError(w, http.StatusNotFound, "not_found", "device not found", map[string]any{"id": id})
		return
	}
	if device.IP == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "no_address", "device has no IP address to probe", map[string]any{"id": id})
		return
	}

	info, err := h.snmp.GetSystem(r.Context(), snmp.Target{DeviceID: device.ID, Address: device.IP})
	if err != nil {
		h.log.Warn().Err(err).Int64("device_id", device.ID).Msg("snmp inspect failed")
		h.writeError(w, http.StatusBadGateway, "probe_failed", "snmp probe failed", map[string]any{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, inspectResponse{
		DeviceID:      device.ID,
		Name:          device.Name,
		IP:            device.IP,
		SysName:       info.SysName,
		SysDescr:      info.SysDescr,
		SysLocation:   info.SysLocation,
		UptimeSeconds: info.UptimeSeconds,
	})
}
