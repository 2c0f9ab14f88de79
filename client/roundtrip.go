package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/adamwoolhether/httpspider/client/throttle"
	"github.com/adamwoolhether/httpspider/cookiestore"
)

// connector is an http.RoundTripper stamping the identifying header on
// every outgoing request.
type connector struct {
	base http.RoundTripper
}

func (c connector) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set(ConnectorHeader, ConnectorValue)
	return c.base.RoundTrip(cpy)
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// cookies is an http.RoundTripper replaying and absorbing cookies through
// the jar of the Owner found in the request context. The enabled switch
// is read as the request enters, before any connection is opened.
type cookies struct {
	enabled *atomic.Bool
	store   *cookiestore.Store
	logFn   func() *slog.Logger
	base    http.RoundTripper
}

func (c cookies) RoundTrip(r *http.Request) (*http.Response, error) {
	if !c.enabled.Load() {
		return c.base.RoundTrip(r)
	}

	owner, ok := cookiestore.OwnerFrom(r.Context())
	if !ok {
		c.logFn().Debug("cookies enabled but request has no owner", "url", r.URL.Redacted())
		return c.base.RoundTrip(r)
	}

	jar := c.store.Jar(owner)

	cpy := r
	if stored := jar.Cookies(r.URL); len(stored) > 0 {
		cpy = r.Clone(r.Context())
		for _, ck := range stored {
			cpy.AddCookie(ck)
		}
	}

	resp, err := c.base.RoundTrip(cpy)
	if err != nil {
		return nil, err
	}

	if received := resp.Cookies(); len(received) > 0 {
		jar.SetCookies(r.URL, received)
	}

	return resp, nil
}

// logging is an http.RoundTripper reporting each exchange at debug level.
type logging struct {
	logFn func() *slog.Logger
	base  http.RoundTripper
}

func (l logging) RoundTrip(r *http.Request) (*http.Response, error) {
	logger := l.logFn()
	target := r.URL.Redacted()
	start := time.Now()

	logger.Debug("request started", "method", r.Method, "url", target)

	resp, err := l.base.RoundTrip(r)
	if err != nil {
		logger.Debug("request failed", "method", r.Method, "url", target, "since", time.Since(start).String(), "error", err)
		return nil, err
	}

	logger.Debug("request completed", "method", r.Method, "url", target, "statusCode", resp.StatusCode, "since", time.Since(start).String())

	return resp, nil
}

// chain assembles the transport stack, innermost first.
func (c *Client) chain(base http.RoundTripper, opts options) (http.RoundTripper, error) {
	logFn := func() *slog.Logger { return c.logger }

	transport := http.RoundTripper(cookies{enabled: &c.cookiesOn, store: c.store, logFn: logFn, base: base})
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	transport = connector{base: transport}
	transport = logging{logFn: logFn, base: transport}

	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, logFn, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}

	return transport, nil
}
