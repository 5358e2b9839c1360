// Package httpapi exposes the topology view engine to the rendering frontend.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"tracenet/core-go/internal/db"
	"tracenet/core-go/internal/enrichment/snmp"
	"tracenet/core-go/internal/feed"
	"tracenet/core-go/internal/metrics"
	"tracenet/core-go/internal/topology"
	"tracenet/core-go/internal/trace"
	"tracenet/core-go/internal/view"
)

// DeviceStore looks up single devices on demand, bypassing the feed snapshot.
type DeviceStore interface {
	GetDevice(ctx context.Context, id int64) (topology.Device, error)
}

type Handler struct {
	log     zerolog.Logger
	pool    *db.Pool
	store   DeviceStore
	feed    *feed.Worker
	engine  *view.Engine
	orch    *trace.Orchestrator
	snmp    *snmp.Client
	metrics *metrics.Metrics
}

func NewHandler(log zerolog.Logger, pool *db.Pool, store DeviceStore, fw *feed.Worker, engine *view.Engine, orch *trace.Orchestrator, snmpClient *snmp.Client, m *metrics.Metrics) *Handler {
	return &Handler{
		log:     log,
		pool:    pool,
		store:   store,
		feed:    fw,
		engine:  engine,
		orch:    orch,
		snmp:    snmpClient,
		metrics: m,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/topology", func(r chi.Router) {
				r.Post("/view", h.handleTopologyView)
			})

			r.Route("/trace", func(r chi.Router) {
				r.Get("/", h.handleGetTrace)
				r.Post("/", h.handleStartTrace)
				r.Delete("/", h.handleClearTrace)
			})

			r.Route("/devices", func(r chi.Router) {
				r.Get("/{id}/inspect", h.handleInspectDevice)
			})
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", elapsed.Milliseconds()).
			Msg("http_request")

		if pattern := chi.RouteContext(r.Context()).RoutePattern(); pattern != "" {
			h.metrics.ObserveHTTPRequest(r.Method, pattern, ww.Status(), elapsed)
		}
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.pool == nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured", nil)
		return
	}

	if err := h.pool.Ping(ctx); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not ready", map[string]any{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}
