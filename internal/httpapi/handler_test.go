package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"tracenet/core-go/internal/enrichment/snmp"
	"tracenet/core-go/internal/feed"
	"tracenet/core-go/internal/topology"
	"tracenet/core-go/internal/trace"
	"tracenet/core-go/internal/view"
)

type staticQueries struct {
	devices []topology.Device
	cables  []topology.Cable
}

func (s staticQueries) ListDevices(ctx context.Context) ([]topology.Device, error) {
	return s.devices, nil
}

func (s staticQueries) ListCables(ctx context.Context) ([]topology.Cable, error) {
	return s.cables, nil
}

type staticTracer struct {
	result trace.Result
	err    error
}

func (s staticTracer) Trace(ctx context.Context, deviceID int64) (trace.Result, error) {
	return s.result, s.err
}

type handlerOpts struct {
	tracer trace.Tracer
	snmp   *snmp.Client
	store  DeviceStore
}

type staticStore struct {
	device topology.Device
	err    error
}

func (s staticStore) GetDevice(ctx context.Context, id int64) (topology.Device, error) {
	return s.device, s.err
}

func newTestHandler(t *testing.T, opts handlerOpts) *Handler {
	t.Helper()

	q := staticQueries{
		devices: []topology.Device{
			{ID: 1, Name: "srv-1", Type: topology.TypeServer, Status: topology.StatusOnline, IP: "10.0.1.1"},
			{ID: 2, Name: "sw-2", Type: topology.TypeSwitch, Status: topology.StatusOnline, IP: "10.0.0.2"},
			{ID: 3, Name: "pc-3", Type: topology.TypePC, Status: topology.StatusOnline},
		},
		cables: []topology.Cable{
			{ID: 1, FromID: 1, ToID: 2},
			{ID: 2, FromID: 2, ToID: 3},
		},
	}
	fw := feed.New(zerolog.Nop(), q, feed.Options{}, nil)
	if err := fw.Refresh(context.Background()); err != nil {
		t.Fatalf("seed feed: %v", err)
	}

	tracer := opts.tracer
	if tracer == nil {
		tracer = staticTracer{}
	}
	orch := trace.New(zerolog.Nop(), tracer, nil, nil)

	return NewHandler(zerolog.Nop(), nil, opts.store, fw, view.NewEngine(nil), orch, opts.snmp, nil)
}

func doRequest(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Router().ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, handlerOpts{})
	rr := doRequest(t, h, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestReadyz_noDatabase(t *testing.T) {
	h := newTestHandler(t, handlerOpts{})
	rr := doRequest(t, h, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 without a database", rr.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "db_unavailable" {
		t.Fatalf("error code = %q", body.Error.Code)
	}
}

func TestTopologyView(t *testing.T) {
	h := newTestHandler(t, handlerOpts{})
	rr := doRequest(t, h, http.MethodPost, "/api/v1/topology/view",
		`{"viewport":{"zoom":1.0},"search":"","problemOnly":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Nodes      []topology.VisualNode `json:"nodes"`
		Edges      []topology.VisualEdge `json:"edges"`
		SnapshotAt *time.Time            `json:"snapshotAt"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Nodes) != 3 || len(resp.Edges) != 2 {
		t.Fatalf("expected full scenario, got %d nodes %d edges", len(resp.Nodes), len(resp.Edges))
	}
	if resp.SnapshotAt == nil || resp.SnapshotAt.IsZero() {
		t.Fatal("snapshotAt missing")
	}
}

func TestTopologyView_zeroZoomDefaultsToOne(t *testing.T) {
	h := newTestHandler(t, handlerOpts{})
	rr := doRequest(t, h, http.MethodPost, "/api/v1/topology/view", `{"viewport":{"zoom":0}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Nodes []topology.VisualNode `json:"nodes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Zoom 1.0 shows all nodes; a literal zero would have hidden the pc.
	if len(resp.Nodes) != 3 {
		t.Fatalf("expected 3 nodes at default zoom, got %d", len(resp.Nodes))
	}
}

func TestTopologyView_rejectsUnknownFields(t *testing.T) {
	h := newTestHandler(t, handlerOpts{})
	rr := doRequest(t, h, http.MethodPost, "/api/v1/topology/view", `{"vewport":{"zoom":1}}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown field", rr.Code)
	}
}

func TestStartTrace_byDeviceID(t *testing.T) {
	tracer := staticTracer{result: trace.Result{
		Hops:  []trace.Hop{{DeviceID: 3}, {DeviceID: 2}},
		Edges: []trace.Edge{{CableID: 2, FromID: 2, ToID: 3}},
	}}
	h := newTestHandler(t, handlerOpts{tracer: tracer})

	rr := doRequest(t, h, http.MethodPost, "/api/v1/trace", `{"deviceId":3}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}

	var pub trace.Published
	if err := json.Unmarshal(rr.Body.Bytes(), &pub); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pub.Phase != trace.PhaseSettled || pub.ErrorCode != "" {
		t.Fatalf("unexpected published state: %+v", pub)
	}
	if len(pub.SetIDs) != 2 || pub.SetIDs[0] != 2 || pub.SetIDs[1] != 3 {
		t.Fatalf("unexpected trace set: %v", pub.SetIDs)
	}
}

func TestStartTrace_policyFailureIsStillHTTP200(t *testing.T) {
	devices := []topology.Device{{ID: 9, Name: "rt-9", Type: topology.TypeRouter, Status: topology.StatusOnline}}
	fw := feed.New(zerolog.Nop(), staticQueries{devices: devices}, feed.Options{}, nil)
	if err := fw.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	orch := trace.New(zerolog.Nop(), staticTracer{}, nil, nil)
	h := NewHandler(zerolog.Nop(), nil, nil, fw, view.NewEngine(nil), orch, nil, nil)

	rr := doRequest(t, h, http.MethodPost, "/api/v1/trace", `{"deviceId":9}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, policy failures render inline", rr.Code)
	}
	var pub trace.Published
	if err := json.Unmarshal(rr.Body.Bytes(), &pub); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pub.ErrorCode != trace.CodePolicy {
		t.Fatalf("expected policy code, got %+v", pub)
	}
}

func TestStartTrace_validation(t *testing.T) {
	h := newTestHandler(t, handlerOpts{})
	tests := []struct {
		name string
		body string
	}{
		{"neither field", `{}`},
		{"both fields", `{"query":"pc-3","deviceId":3}`},
		{"malformed json", `{"deviceId":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, h, http.MethodPost, "/api/v1/trace", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestTraceLifecycle(t *testing.T) {
	h := newTestHandler(t, handlerOpts{tracer: staticTracer{result: trace.Result{
		Hops: []trace.Hop{{DeviceID: 3}},
	}}})

	if rr := doRequest(t, h, http.MethodPost, "/api/v1/trace", `{"query":"pc-3"}`); rr.Code != http.StatusOK {
		t.Fatalf("start: status = %d", rr.Code)
	}

	rr := doRequest(t, h, http.MethodGet, "/api/v1/trace", "")
	var pub trace.Published
	if err := json.Unmarshal(rr.Body.Bytes(), &pub); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pub.Phase != trace.PhaseSettled || pub.OriginID != 3 {
		t.Fatalf("unexpected state after start: %+v", pub)
	}

	if rr := doRequest(t, h, http.MethodDelete, "/api/v1/trace", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("clear: status = %d", rr.Code)
	}

	rr = doRequest(t, h, http.MethodGet, "/api/v1/trace", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &pub); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pub.Phase != trace.PhaseIdle {
		t.Fatalf("expected idle after clear, got %+v", pub)
	}
}

func TestTopologyView_traceMaskApplied(t *testing.T) {
	h := newTestHandler(t, handlerOpts{tracer: staticTracer{result: trace.Result{
		Hops:  []trace.Hop{{DeviceID: 3}, {DeviceID: 2}},
		Edges: []trace.Edge{{CableID: 2, FromID: 2, ToID: 3}},
	}}})

	if rr := doRequest(t, h, http.MethodPost, "/api/v1/trace", `{"deviceId":3}`); rr.Code != http.StatusOK {
		t.Fatalf("start trace: %d", rr.Code)
	}

	rr := doRequest(t, h, http.MethodPost, "/api/v1/topology/view", `{"viewport":{"zoom":1.0}}`)
	var resp struct {
		Nodes      []topology.VisualNode `json:"nodes"`
		Edges      []topology.VisualEdge `json:"edges"`
		TraceToken int64                 `json:"traceToken"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Nodes) != 2 {
		t.Fatalf("trace mask should leave 2 nodes, got %d", len(resp.Nodes))
	}
	if resp.TraceToken == 0 {
		t.Fatal("expected trace token in view response")
	}
	for _, e := range resp.Edges {
		if e.Kind != topology.EdgeTrace {
			t.Fatalf("expected only trace-styled edges, got %+v", e)
		}
	}
}

func TestInspectDevice_storeFallback(t *testing.T) {
	probe := snmp.NewClient(snmp.Config{Timeout: 20 * time.Millisecond, Retries: 0})
	tests := []struct {
		name     string
		store    DeviceStore
		wantCode int
	}{
		// The looked-up device has no address, so a 422 proves the store was
		// consulted for an id missing from the snapshot.
		{"found in store", staticStore{device: topology.Device{ID: 99, Name: "new-pc"}}, http.StatusUnprocessableEntity},
		{"absent everywhere", staticStore{err: pgx.ErrNoRows}, http.StatusNotFound},
		{"store failure", staticStore{err: errors.New("connection refused")}, http.StatusInternalServerError},
		{"no store configured", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, handlerOpts{snmp: probe, store: tt.store})
			rr := doRequest(t, h, http.MethodGet, "/api/v1/devices/99/inspect", "")
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.wantCode, rr.Body.String())
			}
		})
	}
}

func TestInspectDevice_errors(t *testing.T) {
	probe := snmp.NewClient(snmp.Config{Timeout: 20 * time.Millisecond, Retries: 0})
	tests := []struct {
		name     string
		path     string
		snmp     *snmp.Client
		wantCode int
	}{
		{"bad id", "/api/v1/devices/abc/inspect", probe, http.StatusBadRequest},
		{"zero id", "/api/v1/devices/0/inspect", probe, http.StatusBadRequest},
		{"snmp disabled", "/api/v1/devices/1/inspect", nil, http.StatusServiceUnavailable},
		{"unknown device", "/api/v1/devices/99/inspect", probe, http.StatusNotFound},
		{"no address", "/api/v1/devices/3/inspect", probe, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, handlerOpts{snmp: tt.snmp})
			rr := doRequest(t, h, http.MethodGet, tt.path, "")
			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.wantCode, rr.Body.String())
			}
		})
	}
}
