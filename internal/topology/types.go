// Package topology converts the raw device/cable feed into the abstract
// node/edge graph the layout and filter stages operate on.
package topology

import (
	"strconv"
	"strings"
)

// DeviceType is the closed set of device categories known to the view engine.
type DeviceType string

const (
	TypePC     DeviceType = "pc"
	TypeSwitch DeviceType = "switch"
	TypeServer DeviceType = "server"
	TypeRouter DeviceType = "router"
)

// Status is the closed set of connectivity states reported by the feed.
type Status string

const (
	StatusOnline      Status = "online"
	StatusOffline     Status = "offline"
	StatusUnstable    Status = "unstable"
	StatusUnknown     Status = "unknown"
	StatusUnreachable Status = "unreachable"
)

// IsHub reports whether t concentrates cabling. Hubs are radial anchors and
// get centroid alignment; everything else rides along.
func (t DeviceType) IsHub() bool {
	return t == TypeRouter || t == TypeSwitch
}

// IsLeaf reports whether t is hidden at low zoom.
func (t DeviceType) IsLeaf() bool {
	return t == TypePC
}

// Device is a read-only record supplied by the external CRUD layer.
type Device struct {
	ID     int64
	Name   string
	Type   DeviceType
	Status Status
	IP     string
	RackID *int64
}

// Cable is an undirected physical link between two devices. FromID/ToID are
// arbitrary labels, not direction.
type Cable struct {
	ID          int64
	FromID      int64
	ToID        int64
	Description string
}

// LinkKey identifies the physical link regardless of cable direction or edge
// style. Lo <= Hi always holds so base and trace edges over the same cable
// compare equal.
type LinkKey struct {
	Lo, Hi int64
}

// NewLinkKey builds the unordered pair key for two device ids.
func NewLinkKey(a, b int64) LinkKey {
	if a > b {
		a, b = b, a
	}
	return LinkKey{Lo: a, Hi: b}
}

// EdgeKind distinguishes base cabling from traced-path overlay edges.
type EdgeKind string

const (
	EdgeBase  EdgeKind = "base"
	EdgeTrace EdgeKind = "trace"
)

// VisualNode is the per-render projection of a Device. Rebuilt from scratch on
// every recomputation; never persisted.
type VisualNode struct {
	ID          string     `json:"id"`
	DeviceID    int64      `json:"deviceId"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Type        DeviceType `json:"type"`
	Status      Status     `json:"status"`
	Highlighted bool       `json:"highlighted,omitempty"`
	Centered    bool       `json:"centered,omitempty"`
	Selected    bool       `json:"selected,omitempty"`
}

// VisualEdge is a drawable edge between two VisualNodes.
type VisualEdge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
	Link   LinkKey  `json:"-"`
}

// NodeID renders a device id in the string form VisualNodes are keyed by.
func NodeID(deviceID int64) string {
	return strconv.FormatInt(deviceID, 10)
}

// MatchesSearch reports whether the device's name or IP contains the search
// text, case-insensitively. An empty search matches nothing.
func (d Device) MatchesSearch(search string) bool {
	search = strings.TrimSpace(strings.ToLower(search))
	if search == "" {
		return false
	}
	if strings.Contains(strings.ToLower(d.Name), search) {
		return true
	}
	return d.IP != "" && strings.Contains(strings.ToLower(d.IP), search)
}
