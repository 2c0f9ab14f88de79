// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound HTTP requests using a token-bucket algorithm from
// [golang.org/x/time/rate].
//
// A spider fanning out asynchronous requests can otherwise hammer a
// single host; wrapping the transport caps the rate at which requests
// leave the process:
//
//	rt, err := throttle.NewRoundTripper(
//		throttle.Config{RPS: 10, Burst: 5},
//		func() *slog.Logger { return slog.Default() },
//		next,
//	)
//
// When the bucket is empty, requests block until a token becomes
// available or the request context ends.
package throttle
