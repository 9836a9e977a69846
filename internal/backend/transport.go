package backend

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// TransportOptions mirrors the teacher's benchParams transport knobs
// (ReuseConnections, DontLinger, Protocol) generalized into a reusable
// constructor instead of the teacher's package-level httpClient globals.
type TransportOptions struct {
	Protocol         string // "HTTP/1.1" or "HTTP/2"
	ReuseConnections bool
	DontLinger       bool
	RequestTimeout   time.Duration
}

// NewHTTPClient builds an *http.Client configured per opts, the same
// dial/linger/keep-alive tuning as the teacher's initHTTPClient and
// initHTTP2Client, generalized to avoid the teacher's package-level
// mutable globals (noLinger, defaultDialer) so multiple adapters with
// different options can coexist safely.
func NewHTTPClient(opts TransportOptions) *http.Client {
	dialer := &net.Dialer{
		Timeout: opts.RequestTimeout,
		// Disable TCP keepalives; the benchmark sends data actively enough
		// that OS-level keepalive probes add nothing.
		KeepAlive: -1,
	}

	dialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err == nil && conn != nil && opts.DontLinger {
			if tcp, ok := conn.(*net.TCPConn); ok {
				_ = tcp.SetLinger(0)
			}
		}
		return conn, err
	}

	if opts.Protocol == "HTTP/2" {
		return &http.Client{
			Timeout: opts.RequestTimeout,
			Transport: &http2.Transport{
				AllowHTTP: true,
				DialTLS: func(network, addr string, _ *tls.Config) (net.Conn, error) {
					return dialContext(context.Background(), network, addr)
				},
			},
		}
	}

	return &http.Client{
		Timeout: opts.RequestTimeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialContext,
			DisableKeepAlives:     !opts.ReuseConnections,
			MaxIdleConns:          0,
			MaxIdleConnsPerHost:   0,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: opts.RequestTimeout,
			TLSHandshakeTimeout:   opts.RequestTimeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
