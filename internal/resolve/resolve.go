// Package resolve maps hostname-shaped search terms to IP addresses so a
// trace query can match a device registered by IP only.
package resolve

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const defaultTimeout = 2 * time.Second

// DNS performs forward lookups against a configured resolver, falling back
// to the system resolv.conf when no server is given.
type DNS struct {
	server string
	client *dns.Client
}

// NewDNS creates a resolver. server is "host:port"; empty means use the
// first nameserver from /etc/resolv.conf.
func NewDNS(server string, timeout time.Duration) (*DNS, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	server = strings.TrimSpace(server)
	if server == "" {
		conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil {
			return nil, fmt.Errorf("load resolv.conf: %w", err)
		}
		if len(conf.Servers) == 0 {
			return nil, fmt.Errorf("no nameservers configured")
		}
		server = net.JoinHostPort(conf.Servers[0], conf.Port)
	} else if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}

	return &DNS{
		server: server,
		client: &dns.Client{Timeout: timeout},
	}, nil
}

// LookupIP returns the A and AAAA addresses for host, deduplicated, in
// answer order.
func (r *DNS) LookupIP(ctx context.Context, host string) ([]string, error) {
	host = strings.TrimSpace(strings.TrimSuffix(host, "."))
	if host == "" {
		return nil, fmt.Errorf("empty hostname")
	}

	var out []string
	var firstErr error
	seen := make(map[string]struct{})
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		addrs, err := r.query(ctx, host, qtype)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, a := range addrs {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}

	if len(out) == 0 {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, fmt.Errorf("no addresses for %q", host)
	}
	return out, nil
}

func (r *DNS) query(ctx context.Context, host string, qtype uint16) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)
	m.RecursionDesired = true

	in, _, err := r.client.ExchangeContext(ctx, m, r.server)
	if err != nil {
		return nil, err
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("dns rcode %s for %q", dns.RcodeToString[in.Rcode], host)
	}

	var out []string
	for _, rr := range in.Answer {
		switch v := rr.(type) {
		case *dns.A:
			out = append(out, v.A.String())
		case *dns.AAAA:
			out = append(out, v.AAAA.String())
		}
	}
	return out, nil
}
