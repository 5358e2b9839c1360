// Package snmp fetches live system facts for the inspector panel. Strictly
// on-demand: the view engine never polls.
package snmp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

// Config describes how to reach SNMP agents.
type Config struct {
	Community string
	Version   string // "2c" (default) | "1"
	Port      uint16
	Timeout   time.Duration
	Retries   int
}

// Target is the device address to probe.
type Target struct {
	DeviceID int64
	Address  string
}

// SystemInfo is the MIB-II system group subset the inspector shows.
type SystemInfo struct {
	SysName       *string
	SysDescr      *string
	SysLocation   *string
	UptimeSeconds *int64
}

// Client wraps a minimal SNMPv2c GET for inspector probes.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.Community) == "" {
		cfg.Community = "public"
	}
	if strings.TrimSpace(cfg.Version) == "" {
		cfg.Version = "2c"
	}
	if cfg.Port == 0 {
		cfg.Port = 161
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 900 * time.Millisecond
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Client{cfg: cfg}
}

const (
	oidSysDescr0    = "1.3.6.1.2.1.1.1.0"
	oidSysUpTime0   = "1.3.6.1.2.1.1.3.0"
	oidSysName0     = "1.3.6.1.2.1.1.5.0"
	oidSysLocation0 = "1.3.6.1.2.1.1.6.0"
)

func (c *Client) connect(ctx context.Context, target Target) (*gosnmp.GoSNMP, error) {
	version := strings.ToLower(strings.TrimSpace(c.cfg.Version))
	var snmpVersion gosnmp.SnmpVersion
	switch version {
	case "2c", "v2c", "":
		snmpVersion = gosnmp.Version2c
	case "1", "v1":
		snmpVersion = gosnmp.Version1
	default:
		return nil, fmt.Errorf("unsupported snmp version %q", c.cfg.Version)
	}

	s := &gosnmp.GoSNMP{
		Context:   ctx,
		Target:    target.Address,
		Port:      c.cfg.Port,
		Community: c.cfg.Community,
		Version:   snmpVersion,
		Timeout:   c.cfg.Timeout,
		Retries:   c.cfg.Retries,
	}
	if err := s.Connect(); err != nil {
		return nil, err
	}
	return s, nil
}

// GetSystem fetches the system group fields for one target.
func (c *Client) GetSystem(ctx context.Context, target Target) (SystemInfo, error) {
	if c == nil {
		return SystemInfo{}, errors.New("snmp client is nil")
	}
	s, err := c.connect(ctx, target)
	if err != nil {
		return SystemInfo{}, err
	}
	defer s.Conn.Close()

	pkt, err := s.Get([]string{oidSysName0, oidSysDescr0, oidSysLocation0, oidSysUpTime0})
	if err != nil {
		return SystemInfo{}, err
	}

	return systemInfo(pkt.Variables), nil
}

// systemInfo decodes the system group PDUs. Agents report names with a
// leading dot; strip it before matching the OID constants.
func systemInfo(vars []gosnmp.SnmpPDU) SystemInfo {
	var out SystemInfo
	for _, v := range vars {
		switch strings.TrimPrefix(v.Name, ".") {
		case oidSysName0:
			out.SysName, _ = pduString(v)
		case oidSysDescr0:
			out.SysDescr, _ = pduString(v)
		case oidSysLocation0:
			out.SysLocation, _ = pduString(v)
		case oidSysUpTime0:
			out.UptimeSeconds = pduTimeticksSeconds(v)
		}
	}
	return out
}

func pduString(pdu gosnmp.SnmpPDU) (*string, bool) {
	switch v := pdu.Value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, true
		}
		return &s, true
	case []byte:
		s := strings.TrimSpace(string(v))
		if s == "" {
			return nil, true
		}
		return &s, true
	default:
		return nil, false
	}
}

// sysUpTime is reported in hundredths of a second.
func pduTimeticksSeconds(pdu gosnmp.SnmpPDU) *int64 {
	var ticks int64
	switch v := pdu.Value.(type) {
	case uint:
		ticks = int64(v)
	case uint32:
		ticks = int64(v)
	case uint64:
		ticks = int64(v)
	case int:
		ticks = int64(v)
	case int64:
		ticks = v
	default:
		return nil
	}
	seconds := ticks / 100
	return &seconds
}
