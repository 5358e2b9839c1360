// Package trace resolves trace origins, calls the external path-trace
// service, and publishes the resulting overlay while discarding results from
// superseded requests.
package trace

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"tracenet/core-go/internal/metrics"
	"tracenet/core-go/internal/topology"
	"tracenet/core-go/internal/view"
)

// Phase is the orchestrator's lifecycle state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseResolving Phase = "resolving"
	PhaseSettled   Phase = "settled"
)

// Error codes surfaced in the published state. Never raised as panics or
// propagated past the orchestrator; the view layer shows the message.
const (
	CodeNotFound  = "not_found"
	CodePolicy    = "policy_violation"
	CodeTransport = "trace_failed"
)

const (
	msgNotFound  = "device not found"
	msgPolicy    = "cannot trace from a router"
	msgTransport = "trace request failed"
)

// Hop is one element of the traced path, canonical schema.
type Hop struct {
	DeviceID int64  `json:"deviceId"`
	Name     string `json:"name,omitempty"`
	IP       string `json:"ip,omitempty"`
}

// Edge is one traversed cable, canonical schema.
type Edge struct {
	CableID int64 `json:"cableId"`
	FromID  int64 `json:"fromId"`
	ToID    int64 `json:"toId"`
}

// Result is the success payload of the trace feed.
type Result struct {
	Hops         []Hop  `json:"hops"`
	Edges        []Edge `json:"edges"`
	EndpointName string `json:"endpointName,omitempty"`
}

// Tracer is the external path-trace collaborator.
type Tracer interface {
	Trace(ctx context.Context, deviceID int64) (Result, error)
}

// HostResolver turns a hostname into candidate IPs when a search term matches
// no device directly.
type HostResolver interface {
	LookupIP(ctx context.Context, host string) ([]string, error)
}

// Published is the overlay state visible to the view layer. Zero value means
// no trace is active.
type Published struct {
	Phase        Phase                 `json:"phase"`
	Token        int64                 `json:"token"`
	OriginID     int64                 `json:"originId,omitempty"`
	EndpointName string                `json:"endpointName,omitempty"`
	Set          view.TraceSet         `json:"-"`
	SetIDs       []int64               `json:"deviceIds,omitempty"`
	Edges        []topology.VisualEdge `json:"edges,omitempty"`
	ErrorCode    string                `json:"errorCode,omitempty"`
	Message      string                `json:"message,omitempty"`
}

// Overlay converts the published state into the form the view engine consumes.
func (p Published) Overlay() view.Overlay {
	return view.Overlay{Set: p.Set, Edges: p.Edges}
}

// Orchestrator serializes trace requests against shared published state.
// Requests may overlap; a monotonically increasing sequence token decides
// which response is allowed to commit. There is no hard abort of an in-flight
// request, only suppression of its late effect.
type Orchestrator struct {
	log      zerolog.Logger
	tracer   Tracer
	resolver HostResolver
	metrics  *metrics.Metrics

	seq atomic.Int64

	mu    sync.Mutex
	state Published
}

// New creates an idle orchestrator. resolver and m may be nil.
func New(log zerolog.Logger, tracer Tracer, resolver HostResolver, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		log:      log,
		tracer:   tracer,
		resolver: resolver,
		metrics:  m,
		state:    Published{Phase: PhaseIdle},
	}
}

// Published returns the current overlay state.
func (o *Orchestrator) Published() Published {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Clear drops any published overlay and returns to idle. Outstanding
// responses are implicitly invalidated by bumping the sequence.
func (o *Orchestrator) Clear() {
	o.seq.Add(1)
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = Published{Phase: PhaseIdle}
}

// TraceFromSearch resolves query against the known devices by exact name or
// IP (case-insensitive), falling back to a DNS lookup for hostname-shaped
// terms, then runs a trace from the resolved device.
func (o *Orchestrator) TraceFromSearch(ctx context.Context, devices []topology.Device, query string) Published {
	query = strings.TrimSpace(query)
	origin, ok := resolveQuery(devices, query)
	if !ok && o.resolver != nil && looksLikeHostname(query) {
		if ips, err := o.resolver.LookupIP(ctx, query); err == nil {
			for _, ip := range ips {
				if origin, ok = resolveQuery(devices, ip); ok {
					break
				}
			}
		}
	}
	if !ok {
		o.metrics.IncTraceRequest("not_found")
		return o.fail(CodeNotFound, msgNotFound)
	}
	return o.TraceFromDevice(ctx, devices, origin.ID)
}

// TraceFromDevice runs a trace from a directly selected device. Tracing from
// a router is rejected: the aggregation point is not a meaningful origin.
func (o *Orchestrator) TraceFromDevice(ctx context.Context, devices []topology.Device, deviceID int64) Published {
	var origin *topology.Device
	for i := range devices {
		if devices[i].ID == deviceID {
			origin = &devices[i]
			break
		}
	}
	if origin == nil {
		o.metrics.IncTraceRequest("not_found")
		return o.fail(CodeNotFound, msgNotFound)
	}
	if origin.Type == topology.TypeRouter {
		o.metrics.IncTraceRequest("policy")
		return o.fail(CodePolicy, msgPolicy)
	}
	return o.run(ctx, *origin)
}

func (o *Orchestrator) run(ctx context.Context, origin topology.Device) Published {
	token := o.seq.Add(1)

	o.mu.Lock()
	o.state = Published{Phase: PhaseResolving, Token: token, OriginID: origin.ID}
	o.mu.Unlock()

	res, err := o.tracer.Trace(ctx, origin.ID)

	o.mu.Lock()
	defer o.mu.Unlock()

	// A newer request was issued while this one was in flight; its result
	// owns the published state now.
	if token != o.seq.Load() {
		o.metrics.IncTraceRequest("stale_discarded")
		o.log.Debug().Int64("token", token).Int64("latest", o.seq.Load()).Msg("stale trace response discarded")
		return o.state
	}

	if err != nil {
		o.metrics.IncTraceRequest("error")
		o.log.Warn().Err(err).Int64("origin_id", origin.ID).Msg("trace request failed")
		o.state = Published{
			Phase:     PhaseSettled,
			Token:     token,
			OriginID:  origin.ID,
			ErrorCode: CodeTransport,
			Message:   msgTransport,
		}
		return o.state
	}

	o.metrics.IncTraceRequest("ok")
	o.state = publish(token, origin, res)
	return o.state
}

func (o *Orchestrator) fail(code, msg string) Published {
	token := o.seq.Add(1)
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = Published{Phase: PhaseSettled, Token: token, ErrorCode: code, Message: msg}
	return o.state
}

// publish derives the trace filter set by unioning device ids from the hop
// path and the traversed cables. Both are consulted so a sparse payload
// (hops without edges, or vice versa) still yields a usable mask; the
// originating device is always included.
func publish(token int64, origin topology.Device, res Result) Published {
	set := make(view.TraceSet)
	set[origin.ID] = struct{}{}
	for _, h := range res.Hops {
		if h.DeviceID > 0 {
			set[h.DeviceID] = struct{}{}
		}
	}
	for _, e := range res.Edges {
		if e.FromID > 0 {
			set[e.FromID] = struct{}{}
		}
		if e.ToID > 0 {
			set[e.ToID] = struct{}{}
		}
	}

	edges := make([]topology.VisualEdge, 0, len(res.Edges))
	for _, e := range res.Edges {
		edges = append(edges, topology.VisualEdge{
			ID:     view.TraceEdgeIDPrefix + "cable:" + topology.NodeID(e.CableID),
			Source: topology.NodeID(e.FromID),
			Target: topology.NodeID(e.ToID),
			Kind:   topology.EdgeTrace,
			Link:   topology.NewLinkKey(e.FromID, e.ToID),
		})
	}

	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return Published{
		Phase:        PhaseSettled,
		Token:        token,
		OriginID:     origin.ID,
		EndpointName: res.EndpointName,
		Set:          set,
		SetIDs:       ids,
		Edges:        edges,
	}
}

func resolveQuery(devices []topology.Device, query string) (topology.Device, bool) {
	if query == "" {
		return topology.Device{}, false
	}
	lowered := strings.ToLower(query)
	for _, d := range devices {
		if strings.ToLower(d.Name) == lowered {
			return d, true
		}
		if d.IP != "" && strings.ToLower(d.IP) == lowered {
			return d, true
		}
	}
	return topology.Device{}, false
}

func looksLikeHostname(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t/") {
		return false
	}
	return strings.Contains(s, ".")
}
