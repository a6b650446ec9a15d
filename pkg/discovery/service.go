package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

const (
	DefaultServiceType = "_mariner._tcp"
	DefaultDomain      = "local"
)

type ServiceInfo struct {
	Name   string // instance name, e.g. "Elegoo Mars"
	Type   string // service type, e.g. "_mariner._tcp"
	Domain string // domain, e.g. "local"
	Addr   net.IP
	Port   int
	Text   map[string]string
}

// URL returns the base URL of the printer server.
func (s ServiceInfo) URL() string {
	host := "localhost"
	if s.Addr != nil {
		host = s.Addr.String()
	}
	return fmt.Sprintf("http://%s/", net.JoinHostPort(host, strconv.Itoa(s.Port)))
}

// DiscoveryResult contains either a snapshot of the services found so far
// or an error.
type DiscoveryResult struct {
	Services []ServiceInfo
	Error    error
}

type Adapter interface {
	Announce(ctx context.Context, service ServiceInfo) error
	Discover(ctx context.Context, service string) <-chan DiscoveryResult
}

// ServiceName builds the fully qualified browse name, e.g.
// "_mariner._tcp.local.".
func ServiceName(serviceType, domain string) string {
	if serviceType == "" {
		serviceType = DefaultServiceType
	}
	if domain == "" {
		domain = DefaultDomain
	}
	return fmt.Sprintf("%s.%s.", serviceType, domain)
}
