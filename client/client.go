package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/httpspider/cookiestore"
)

// Client wraps the std-lib *http.Client.
// It is safe for concurrent use; per-exchange settings travel in the
// [RequestConfig] handed to [Client.Do].
type Client struct {
	c         *http.Client
	logger    *slog.Logger
	tracer    trace.Tracer
	store     *cookiestore.Store
	cookiesOn atomic.Bool
}

// Build creates a Client with the given options. Unless overridden, a
// fresh transport is dialed per request, cookies are off, logs go to
// [slog.Default] and spans to a no-op tracer.
func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("no-op tracer"),
		store:  cookiestore.Default(),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	hc := &http.Client{}
	if opts.client != nil {
		cpy := *opts.client
		hc = &cpy
	}
	hc.Jar = nil

	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	if opts.store != nil {
		client.store = opts.store
	}
	client.cookiesOn.Store(opts.cookiesEnabled)

	if opts.timeout != nil {
		hc.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var base http.RoundTripper
	switch {
	case opts.rt != nil:
		base = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		base = opts.client.Transport
	default:
		base = dialer{}
	}

	transport, err := client.chain(base, opts)
	if err != nil {
		return nil, err
	}
	hc.Transport = transport
	client.c = hc

	return client, nil
}

// SetCookiesEnabled switches cookie support on or off for every
// subsequent request made through c, from any goroutine. Requests that
// already entered the transport keep the setting they observed.
func (c *Client) SetCookiesEnabled(enabled bool) {
	c.cookiesOn.Store(enabled)
}

// CookiesEnabled reports whether cookie support is switched on.
func (c *Client) CookiesEnabled() bool {
	return c.cookiesOn.Load()
}

// CookieStore returns the store holding the per-owner cookie jars.
func (c *Client) CookieStore() *cookiestore.Store {
	return c.store
}

// Do performs the exchange described by cfg.
//
// Params are sent in the body for POST and PUT and in the query string
// otherwise. Every status code yields a *Response; the caller owns and
// must close its Body. Errors are *EncodingError before any I/O,
// FieldErrors for an invalid cfg and *TransportError for failed exchanges.
func (c *Client) Do(ctx context.Context, cfg RequestConfig) (*Response, error) {
	cfg.Method = strings.ToUpper(cfg.Method)
	if cfg.Charset == "" {
		cfg.Charset = DefaultCharset
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating request config: %w", err)
	}

	query, err := EncodeQuery(cfg.Params, cfg.Charset)
	if err != nil {
		return nil, err
	}

	target := cfg.URL
	var payload io.Reader
	if cfg.sendsBody() {
		payload = strings.NewReader(query)
	} else {
		target = appendQuery(target, query)
	}

	ctx, span := c.tracer.Start(ctx, "client.do", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", cfg.Method),
		attribute.String("url.full", redact(target)),
	)

	ctx = withDialSettings(ctx, dialSettings{
		connectTimeout: cfg.ConnectTimeout,
		readTimeout:    cfg.ReadTimeout,
		proxy:          cfg.Proxy,
	})

	req, err := http.NewRequestWithContext(ctx, cfg.Method, target, payload)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if cfg.sendsBody() && query != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", formContentType)
	}
	// An explicit Accept-Encoding keeps any base transport from
	// negotiating and decoding on its own.
	if req.Header.Get("Accept-Encoding") == "" {
		if cfg.AutoGzip {
			req.Header.Set("Accept-Encoding", "gzip")
		} else {
			req.Header.Set("Accept-Encoding", "identity")
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.c.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exchange failed")
		return nil, &TransportError{Op: "exchange", Method: cfg.Method, URL: redact(target), Err: err}
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body := resp.Body
	if cfg.AutoGzip && isGzipped(resp) {
		gz, err := newGzipBody(resp.Body)
		if err != nil {
			if cerr := resp.Body.Close(); cerr != nil {
				c.logger.Error("failed to close response body", "error", cerr)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "gzip header")
			return nil, &TransportError{Op: "decompress", Method: cfg.Method, URL: redact(target), Err: err}
		}
		body = gz
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Get is shorthand for a GET with default settings.
func (c *Client) Get(ctx context.Context, rawURL string, params, headers map[string]string) (*Response, error) {
	cfg := NewRequestConfig(http.MethodGet, rawURL)
	cfg.Params = params
	cfg.Headers = headers

	return c.Do(ctx, cfg)
}

// Post is shorthand for a form POST with default settings.
func (c *Client) Post(ctx context.Context, rawURL string, params, headers map[string]string) (*Response, error) {
	cfg := NewRequestConfig(http.MethodPost, rawURL)
	cfg.Params = params
	cfg.Headers = headers

	return c.Do(ctx, cfg)
}

func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	return u.Redacted()
}
