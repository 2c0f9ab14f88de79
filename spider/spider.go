package spider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/adamwoolhether/httpspider/client"
	"github.com/adamwoolhether/httpspider/cookiestore"
	"github.com/adamwoolhether/httpspider/internal/dispatch"
)

// Spider is a fluently configured request session.
//
// Configuration methods are meant to be called from a single goroutine.
// The stored value may be read while asynchronous dispatches are running.
type Spider struct {
	client *client.Client
	pool   *dispatch.Pool
	logger *slog.Logger
	owner  cookiestore.Owner

	host           string
	headers        map[string]string
	params         map[string]string
	proxy          *client.Proxy
	connectTimeout time.Duration
	readTimeout    time.Duration
	autoGzip       bool
	charset        string
	async          bool

	mu    sync.Mutex
	value int
}

// New creates a Spider targeting host.
func New(host string, optFns ...Option) (*Spider, error) {
	if _, err := url.ParseRequestURI(host); err != nil {
		return nil, fmt.Errorf("parsing host: %w", err)
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying spider option: %w", err)
		}
	}

	s := &Spider{
		client:         opts.client,
		logger:         opts.logger,
		owner:          opts.owner,
		host:           host,
		connectTimeout: client.DefaultConnectTimeout,
		readTimeout:    client.DefaultReadTimeout,
		autoGzip:       true,
		charset:        client.DefaultCharset,
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.owner == "" {
		s.owner = cookiestore.NewOwner()
	}

	if s.client == nil {
		c, err := client.Build(client.WithLogger(s.logger), client.WithCookiesEnabled())
		if err != nil {
			return nil, fmt.Errorf("building client: %w", err)
		}
		s.client = c
	}

	s.pool = dispatch.New(opts.maxWorkers, func() *slog.Logger { return s.logger })

	return s, nil
}

// ChangeHost retargets subsequent dispatches. An invalid URL is reported
// by the next dispatch.
func (s *Spider) ChangeHost(host string) *Spider {
	s.host = host
	return s
}

// SetRequestHeaders replaces the headers sent with every dispatch.
func (s *Spider) SetRequestHeaders(headers map[string]string) *Spider {
	s.headers = headers
	return s
}

// SetRequestParameters replaces the parameters sent with every dispatch.
func (s *Spider) SetRequestParameters(params map[string]string) *Spider {
	s.params = params
	return s
}

// Proxy routes subsequent dispatches through p. nil disables proxying.
func (s *Spider) Proxy(p *client.Proxy) *Spider {
	s.proxy = p
	return s
}

// ConnectTimeout bounds dialing the host.
func (s *Spider) ConnectTimeout(d time.Duration) *Spider {
	s.connectTimeout = d
	return s
}

// ReadTimeout bounds each read from the connection.
func (s *Spider) ReadTimeout(d time.Duration) *Spider {
	s.readTimeout = d
	return s
}

// AutoGzip controls transparent decompression of gzip responses.
func (s *Spider) AutoGzip(on bool) *Spider {
	s.autoGzip = on
	return s
}

// Charset sets the text encoding of the query string or form body.
func (s *Spider) Charset(name string) *Spider {
	s.charset = name
	return s
}

// CleanCookies discards the cookies collected by synchronous dispatches.
func (s *Spider) CleanCookies() *Spider {
	s.client.CookieStore().Clear(s.owner)
	return s
}

// Async makes the next dispatch, and only the next one, run in the
// background.
func (s *Spider) Async() *Spider {
	s.async = true
	return s
}

// Nop does nothing. It keeps a chain readable when a step is conditional.
func (s *Spider) Nop() *Spider {
	return s
}

// Host returns the current target.
func (s *Spider) Host() string { return s.host }

// ProxyConfig returns the current proxy, nil when none is set.
func (s *Spider) ProxyConfig() *client.Proxy { return s.proxy }

// ConnectTimeoutValue returns the current connect timeout.
func (s *Spider) ConnectTimeoutValue() time.Duration { return s.connectTimeout }

// ReadTimeoutValue returns the current read timeout.
func (s *Spider) ReadTimeoutValue() time.Duration { return s.readTimeout }

// Owner returns the cookie jar owner used for synchronous dispatch.
func (s *Spider) Owner() cookiestore.Owner { return s.owner }

// RequestValue replaces the stored value with f applied to it.
func (s *Spider) RequestValue(f FlagHandler) *Spider {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = f(s.value)
	return s
}

// Value returns the stored value.
func (s *Spider) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.value
}

func (s *Spider) store(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = v
}

// Get dispatches a GET to the host.
func (s *Spider) Get(ctx context.Context, h Handler) error {
	return s.Request(ctx, http.MethodGet, h)
}

// Post dispatches a form POST to the host.
func (s *Spider) Post(ctx context.Context, h Handler) error {
	return s.Request(ctx, http.MethodPost, h)
}

// Request dispatches method to the host and hands the response to h.
//
// Synchronous dispatch returns once h has returned. Client failures are
// returned as the client reports them (*[client.TransportError],
// *[client.EncodingError] or [client.FieldErrors]); only failures of h
// are wrapped in *[HandlerError].
//
// After [Spider.Async], the exchange runs in the background under a
// cookie owner of its own and Request returns nil at once. That owner's
// jar is cleared when the exchange ends, and background failures are
// logged and discarded.
func (s *Spider) Request(ctx context.Context, method string, h Handler) error {
	async := s.takeAsync()
	if h == nil {
		return ErrNilHandler
	}

	cfg := s.config(method)

	if async {
		return s.goAsync(ctx, cfg, h)
	}

	if _, ok := cookiestore.OwnerFrom(ctx); !ok {
		ctx = cookiestore.WithOwner(ctx, s.owner)
	}

	return s.exchange(ctx, cfg, h)
}

// Wait blocks until every background dispatch has finished.
func (s *Spider) Wait() {
	s.pool.Wait()
}

// Close rejects further background dispatches and waits for the running
// ones. Synchronous dispatch keeps working.
func (s *Spider) Close() {
	s.pool.Shutdown()
	s.Wait()
}

// takeAsync consumes the one-shot async flag. Every dispatch calls it,
// including those rejected before any I/O.
func (s *Spider) takeAsync() bool {
	async := s.async
	s.async = false

	return async
}

// config snapshots the session so later configuration calls do not
// affect a dispatch already under way.
func (s *Spider) config(method string) client.RequestConfig {
	cfg := client.NewRequestConfig(method, s.host)
	cfg.Params = maps.Clone(s.params)
	cfg.Headers = maps.Clone(s.headers)
	cfg.ConnectTimeout = s.connectTimeout
	cfg.ReadTimeout = s.readTimeout
	cfg.AutoGzip = s.autoGzip
	cfg.Charset = s.charset
	if s.proxy != nil {
		p := *s.proxy
		cfg.Proxy = &p
	}

	return cfg
}

func (s *Spider) goAsync(ctx context.Context, cfg client.RequestConfig, h Handler) error {
	owner := cookiestore.NewOwner()
	ctx = cookiestore.WithOwner(context.WithoutCancel(ctx), owner)

	name := cfg.Method + " " + cfg.URL
	err := s.pool.Go(ctx, name, func(ctx context.Context) error {
		// No later dispatch can reach owner, so its jar dies with the task.
		defer s.client.CookieStore().Clear(owner)

		return s.exchange(ctx, cfg, h)
	})
	if errors.Is(err, dispatch.ErrShutdown) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}

// exchange performs the request and hands the response to h. The body is
// closed on every path, including a panicking handler.
func (s *Spider) exchange(ctx context.Context, cfg client.RequestConfig, h Handler) error {
	resp, err := s.client.Do(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	v, err := h.Handle(resp.StatusCode, resp.Header, resp.Body)
	if err != nil {
		return &HandlerError{Method: cfg.Method, URL: cfg.URL, Err: err}
	}

	s.store(v)

	return nil
}
