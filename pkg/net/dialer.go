package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// DefaultBlockedNetworks are the IPv4 and IPv6 link-local ranges. Cloud
// instance metadata endpoints, e.g. 169.254.169.254, live there.
var DefaultBlockedNetworks = []net.IPNet{
	{IP: net.IP{169, 254, 0, 0}, Mask: net.CIDRMask(16, 32)},
	{IP: net.ParseIP("fe80::"), Mask: net.CIDRMask(10, 128)},
}

// ErrBlockedAddress is returned when every address a host resolves to is
// blocked.
var ErrBlockedAddress = errors.New("address is not permitted")

// Resolver resolves host names. *net.Resolver implements it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// RestrictedDialer dials only addresses outside of a set of blocked networks.
// Host names are resolved before dialing so a name cannot smuggle in a blocked
// address.
type RestrictedDialer struct {
	Dialer   *net.Dialer
	Resolver Resolver
	Blocked  []net.IPNet
}

// NewRestrictedDialer returns a RestrictedDialer that blocks
// DefaultBlockedNetworks.
func NewRestrictedDialer() *RestrictedDialer {
	return &RestrictedDialer{
		Dialer: &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		},
		Resolver: net.DefaultResolver,
		Blocked:  DefaultBlockedNetworks,
	}
}

func (d *RestrictedDialer) blocked(ip net.IP) bool {
	for _, n := range d.Blocked {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// DialContext has the signature of http.Transport's DialContext. Permitted
// addresses are tried in the order they were resolved.
func (d *RestrictedDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("error parsing address %q: %w", addr, err)
	}
	ips, err := d.Resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("error resolving host %q: %w", host, err)
	}
	var dialErrs []error
	for _, ip := range ips {
		if d.blocked(ip.IP) {
			continue
		}
		conn, err := d.Dialer.DialContext(ctx, network, net.JoinHostPort(ip.String(), port))
		if err == nil {
			return conn, nil
		}
		dialErrs = append(dialErrs, err)
	}
	if len(dialErrs) == 0 {
		return nil, fmt.Errorf("host %q: %w", host, ErrBlockedAddress)
	}
	return nil, errors.Join(dialErrs...)
}

// RestrictTransport makes t dial through a RestrictedDialer and returns t.
func RestrictTransport(t *http.Transport) *http.Transport {
	t.DialContext = NewRestrictedDialer().DialContext
	return t
}
