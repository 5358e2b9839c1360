package snmp

import (
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
)

func TestNewClient_defaults(t *testing.T) {
	c := NewClient(Config{})
	if c.cfg.Community != "public" || c.cfg.Version != "2c" || c.cfg.Port != 161 {
		t.Fatalf("unexpected defaults: %+v", c.cfg)
	}
	if c.cfg.Timeout != 900*time.Millisecond {
		t.Fatalf("timeout = %v", c.cfg.Timeout)
	}
}

func TestPduString(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
		isNil bool
	}{
		{"string", "core-sw", "core-sw", false},
		{"bytes", []byte(" rack 4 "), "rack 4", false},
		{"empty string", "   ", "", true},
		{"wrong type", 42, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := pduString(gosnmp.SnmpPDU{Value: tt.value})
			if tt.isNil {
				if got != nil {
					t.Fatalf("expected nil, got %q", *got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Fatalf("got %v, want %q", got, tt.want)
			}
		})
	}
}

func TestSystemInfo_dottedPDUNames(t *testing.T) {
	// Agents return OID names with a leading dot.
	vars := []gosnmp.SnmpPDU{
		{Name: ".1.3.6.1.2.1.1.5.0", Value: "core-sw"},
		{Name: ".1.3.6.1.2.1.1.1.0", Value: []byte("switch os v2")},
		{Name: ".1.3.6.1.2.1.1.6.0", Value: "rack 4"},
		{Name: ".1.3.6.1.2.1.1.3.0", Value: uint32(360000)},
	}
	got := systemInfo(vars)
	if got.SysName == nil || *got.SysName != "core-sw" {
		t.Fatalf("SysName = %v", got.SysName)
	}
	if got.SysDescr == nil || *got.SysDescr != "switch os v2" {
		t.Fatalf("SysDescr = %v", got.SysDescr)
	}
	if got.SysLocation == nil || *got.SysLocation != "rack 4" {
		t.Fatalf("SysLocation = %v", got.SysLocation)
	}
	if got.UptimeSeconds == nil || *got.UptimeSeconds != 3600 {
		t.Fatalf("UptimeSeconds = %v", got.UptimeSeconds)
	}
}

func TestSystemInfo_undottedNamesStillMatch(t *testing.T) {
	got := systemInfo([]gosnmp.SnmpPDU{{Name: "1.3.6.1.2.1.1.5.0", Value: "core-sw"}})
	if got.SysName == nil || *got.SysName != "core-sw" {
		t.Fatalf("SysName = %v", got.SysName)
	}
}

func TestPduTimeticksSeconds(t *testing.T) {
	if got := pduTimeticksSeconds(gosnmp.SnmpPDU{Value: uint32(360000)}); got == nil || *got != 3600 {
		t.Fatalf("got %v, want 3600", got)
	}
	if got := pduTimeticksSeconds(gosnmp.SnmpPDU{Value: "bogus"}); got != nil {
		t.Fatalf("expected nil for non-numeric value, got %v", got)
	}
}
