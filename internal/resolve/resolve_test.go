package resolve

import (
	"context"
	"testing"
	"time"
)

func TestNewDNS_normalizesServerAddress(t *testing.T) {
	tests := []struct {
		name   string
		server string
		want   string
	}{
		{"bare host gets default port", "10.0.0.53", "10.0.0.53:53"},
		{"explicit port kept", "10.0.0.53:5353", "10.0.0.53:5353"},
		{"whitespace trimmed", "  10.0.0.53:53  ", "10.0.0.53:53"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewDNS(tt.server, time.Second)
			if err != nil {
				t.Fatalf("NewDNS(%q): %v", tt.server, err)
			}
			if r.server != tt.want {
				t.Errorf("server = %q, want %q", r.server, tt.want)
			}
		})
	}
}

func TestNewDNS_defaultTimeout(t *testing.T) {
	r, err := NewDNS("10.0.0.53", 0)
	if err != nil {
		t.Fatalf("NewDNS: %v", err)
	}
	if r.client.Timeout != defaultTimeout {
		t.Errorf("timeout = %v, want %v", r.client.Timeout, defaultTimeout)
	}
}

func TestLookupIP_rejectsEmptyHost(t *testing.T) {
	r, err := NewDNS("10.0.0.53", time.Second)
	if err != nil {
		t.Fatalf("NewDNS: %v", err)
	}
	for _, host := range []string{"", "   ", "."} {
		if _, err := r.LookupIP(context.Background(), host); err == nil {
			t.Errorf("LookupIP(%q): expected error", host)
		}
	}
}
