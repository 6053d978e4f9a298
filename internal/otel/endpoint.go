package otel

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// processEndpoint normalizes an exporter endpoint to host:port.
// An http:// or https:// scheme overrides the configured insecure flag and
// supplies the default port; a bare host:port is passed through unchanged.
func processEndpoint(endpoint string, insecure bool) (string, bool, error) {
	if endpoint == "" || !strings.Contains(endpoint, "://") {
		return endpoint, insecure, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}

	var defaultPort string
	switch u.Scheme {
	case "https":
		insecure = false
		defaultPort = "443"
	case "http":
		insecure = true
		defaultPort = "80"
	default:
		return "", false, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}

	port := u.Port()
	if port == "" {
		port = defaultPort
	}
	return net.JoinHostPort(u.Hostname(), port), insecure, nil
}

// resolve returns a copy of c with the endpoint normalized.
func (c ExporterConfig) resolve() (ExporterConfig, error) {
	endpoint, insecure, err := processEndpoint(c.Endpoint, c.Insecure)
	if err != nil {
		return c, err
	}
	c.Endpoint = endpoint
	c.Insecure = insecure
	return c, nil
}
