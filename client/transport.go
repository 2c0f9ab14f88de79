package client

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

type settingsKey struct{}

func withDialSettings(ctx context.Context, ds dialSettings) context.Context {
	return context.WithValue(ctx, settingsKey{}, ds)
}

func dialSettingsFrom(ctx context.Context) dialSettings {
	ds, ok := ctx.Value(settingsKey{}).(dialSettings)
	if !ok {
		return dialSettings{
			connectTimeout: DefaultConnectTimeout,
			readTimeout:    DefaultReadTimeout,
		}
	}

	return ds
}

// dialer is the base http.RoundTripper used when no custom transport is
// configured. Every request gets a fresh *http.Transport built from the
// dial settings in its context, so timeouts and proxies can differ per
// request. Connections are not kept alive.
type dialer struct{}

func (dialer) RoundTrip(r *http.Request) (*http.Response, error) {
	tr, err := newTransport(dialSettingsFrom(r.Context()))
	if err != nil {
		return nil, err
	}

	resp, err := tr.RoundTrip(r)
	if err != nil {
		tr.CloseIdleConnections()
		return nil, err
	}

	return resp, nil
}

func newTransport(ds dialSettings) (*http.Transport, error) {
	nd := &net.Dialer{Timeout: ds.connectTimeout}

	tr := &http.Transport{
		DialContext:           deadlineDial(nd.DialContext, ds.readTimeout),
		TLSHandshakeTimeout:   ds.connectTimeout,
		ResponseHeaderTimeout: ds.readTimeout,
		DisableCompression:    true,
		DisableKeepAlives:     true,
	}

	if ds.proxy == nil {
		return tr, nil
	}

	switch ds.proxy.Scheme {
	case "http", "https":
		tr.Proxy = http.ProxyURL(&url.URL{Scheme: ds.proxy.Scheme, Host: ds.proxy.Addr})
	case "socks5":
		socks, err := proxy.SOCKS5("tcp", ds.proxy.Addr, nil, nd)
		if err != nil {
			return nil, fmt.Errorf("creating socks5 dialer: %w", err)
		}
		cd, ok := socks.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks5 dialer for %s does not support contexts", ds.proxy.Addr)
		}
		tr.DialContext = deadlineDial(cd.DialContext, ds.readTimeout)
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", ds.proxy.Scheme)
	}

	return tr, nil
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// deadlineDial wraps dial so that every read on the resulting connection
// must complete within readTimeout. A zero readTimeout disables it.
func deadlineDial(dial dialFunc, readTimeout time.Duration) dialFunc {
	if readTimeout <= 0 {
		return dial
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dial(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		return &deadlineConn{Conn: conn, timeout: readTimeout}, nil
	}
}

// deadlineConn refreshes the read deadline before each Read.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}

	return c.Conn.Read(p)
}
