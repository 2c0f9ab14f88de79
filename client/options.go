package client

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/httpspider/client/throttle"
	"github.com/adamwoolhether/httpspider/cookiestore"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
	tracer            trace.Tracer
	store             *cookiestore.Store
	cookiesEnabled    bool
}

// WithClient replaces the default [http.Client] used by the [Client].
// Its Jar is ignored; cookies are handled by the [cookiestore.Store].
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
// Per-request connect and read timeouts and proxies are only honored by
// the default base transport. Requests always carry an Accept-Encoding,
// so a base such as [http.DefaultTransport] never decodes gzip on its own
// and a request with AutoGzip off receives the body as sent.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout caps the total duration of each exchange, on top of the
// per-request connect and read timeouts.
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		cfg := throttle.Config{RPS: rps, Burst: burst}
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.throttle = &cfg
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used to record a span per exchange.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithCookieStore injects the store holding per-owner cookie jars.
// [cookiestore.Default] is used otherwise.
func WithCookieStore(store *cookiestore.Store) Option {
	return func(c *options) error {
		if store == nil {
			return errors.New("cookie store must not be nil")
		}
		c.store = store
		return nil
	}
}

// WithCookiesEnabled starts the [Client] with cookie support switched on.
func WithCookiesEnabled() Option {
	return func(c *options) error {
		c.cookiesEnabled = true
		return nil
	}
}
