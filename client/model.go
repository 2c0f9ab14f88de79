package client

import (
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultConnectTimeout bounds dialing the remote host.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultReadTimeout bounds each read from the connection.
	DefaultReadTimeout = 10 * time.Second
	// DefaultCharset is the text encoding used for query strings and form bodies.
	DefaultCharset = "utf-8"

	// ConnectorHeader is set on every outgoing request, replacing any
	// value the caller supplied under the same key.
	ConnectorHeader = "X-Connector"
	// ConnectorValue is the fixed value of ConnectorHeader.
	ConnectorValue = "httpspider"

	formContentType = "application/x-www-form-urlencoded"
)

// RequestConfig describes a single exchange. It is read, never modified,
// by [Client.Do].
//
// Method may be any RFC 7230 token, extension methods included. Unless
// Headers carries its own Accept-Encoding, the request asks for gzip when
// AutoGzip is set and for identity otherwise.
type RequestConfig struct {
	Method         string            `json:"method" validate:"required,http_method"`
	URL            string            `json:"url" validate:"required,http_url"`
	Params         map[string]string `json:"params"`
	Headers        map[string]string `json:"headers"`
	ConnectTimeout time.Duration     `json:"connectTimeout" validate:"gte=0"`
	ReadTimeout    time.Duration     `json:"readTimeout" validate:"gte=0"`
	Proxy          *Proxy            `json:"proxy" validate:"omitempty"`
	AutoGzip       bool              `json:"autoGzip"`
	Charset        string            `json:"charset"`
}

// NewRequestConfig returns a RequestConfig for method and rawURL with
// the default timeouts, gzip handling and charset.
func NewRequestConfig(method, rawURL string) RequestConfig {
	return RequestConfig{
		Method:         method,
		URL:            rawURL,
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		AutoGzip:       true,
		Charset:        DefaultCharset,
	}
}

// sendsBody reports whether the parameters travel in the request body
// instead of the query string.
func (rc RequestConfig) sendsBody() bool {
	switch strings.ToUpper(rc.Method) {
	case http.MethodPost, http.MethodPut:
		return true
	default:
		return false
	}
}

// Proxy describes an intermediary to route a request through.
type Proxy struct {
	Scheme string `json:"scheme" validate:"required,oneof=http https socks5"`
	Addr   string `json:"addr" validate:"required,hostname_port"`
}

// HTTPProxy returns a plain HTTP proxy descriptor for addr ("host:port").
func HTTPProxy(addr string) *Proxy {
	return &Proxy{Scheme: "http", Addr: addr}
}

// SOCKS5Proxy returns a SOCKS5 proxy descriptor for addr ("host:port").
func SOCKS5Proxy(addr string) *Proxy {
	return &Proxy{Scheme: "socks5", Addr: addr}
}

// Response is the outcome of an exchange. Any status code is a valid
// Response; deciding what a 4xx or 5xx means is up to the caller.
//
// Body must be closed by whoever ends up consuming it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// dialSettings are the per-request knobs the base transport needs to
// open a connection.
type dialSettings struct {
	connectTimeout time.Duration
	readTimeout    time.Duration
	proxy          *Proxy
}
