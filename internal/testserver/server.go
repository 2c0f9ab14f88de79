// Package testserver runs an httpbin-like HTTP server for tests.
//
//	GET  /cookies            {"cookies": {...}} of the cookies received
//	GET  /cookies/set?k=v    sets each pair as a cookie, redirects to /cookies
//	GET  /gzip?text=...      text, gzip-compressed regardless of Accept-Encoding
//	ANY  /echo               {"method", "args", "form", "headers"} of the request
//	GET  /text?body=...      body, verbatim as text/plain
//	GET  /status/{code}      replies with code
//	GET  /slow?delay=100ms   sleeps before replying
package testserver

import (
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// DefaultGzipText is served by /gzip when no text parameter is given.
const DefaultGzipText = "the quick brown fox jumps over the lazy dog"

// Echo is the body returned by /echo.
type Echo struct {
	Method  string              `json:"method"`
	Args    map[string]string   `json:"args"`
	Form    map[string]string   `json:"form"`
	Headers map[string][]string `json:"headers"`
}

// Cookies is the body returned by /cookies.
type Cookies struct {
	Cookies map[string]string `json:"cookies"`
}

// New starts a server closed automatically when t finishes.
func New(t testing.TB) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(Handler())
	t.Cleanup(srv.Close)

	return srv
}

// Handler returns the routes served by New.
func Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /cookies", func(w http.ResponseWriter, r *http.Request) {
		out := Cookies{Cookies: make(map[string]string)}
		for _, c := range r.Cookies() {
			out.Cookies[c.Name] = c.Value
		}
		writeJSON(w, out)
	})

	mux.HandleFunc("GET /cookies/set", func(w http.ResponseWriter, r *http.Request) {
		for k, vs := range r.URL.Query() {
			for _, v := range vs {
				http.SetCookie(w, &http.Cookie{Name: k, Value: v, Path: "/"})
			}
		}
		http.Redirect(w, r, "/cookies", http.StatusFound)
	})

	mux.HandleFunc("GET /gzip", func(w http.ResponseWriter, r *http.Request) {
		text := r.URL.Query().Get("text")
		if text == "" {
			text = DefaultGzipText
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		_, _ = zw.Write([]byte(text))
		_ = zw.Close()
	})

	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		out := Echo{
			Method:  r.Method,
			Args:    flatten(r.URL.Query()),
			Form:    flatten(r.PostForm),
			Headers: r.Header,
		}
		writeJSON(w, out)
	})

	mux.HandleFunc("GET /text", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(r.URL.Query().Get("body")))
	})

	mux.HandleFunc("GET /status/{code}", func(w http.ResponseWriter, r *http.Request) {
		code, err := strconv.Atoi(r.PathValue("code"))
		if err != nil || code < 100 || code > 599 {
			http.Error(w, "bad status code", http.StatusBadRequest)
			return
		}
		w.WriteHeader(code)
		_, _ = w.Write([]byte("status " + strconv.Itoa(code)))
	})

	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		delay, err := time.ParseDuration(r.URL.Query().Get("delay"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write([]byte("done"))
	})

	return mux
}

func flatten(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}

	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
