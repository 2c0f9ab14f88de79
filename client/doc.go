// Package client provides the request executor underneath the spider,
// built on [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithUserAgent("myapp/1.0"),
//		client.WithThrottle(10, 5),
//		client.WithCookiesEnabled(),
//	)
//
// # Making Requests
//
// Describe the exchange with a [RequestConfig] and run it with [Client.Do]:
//
//	cfg := client.NewRequestConfig(http.MethodGet, "https://example.com/search")
//	cfg.Params = map[string]string{"q": "gophers"}
//	resp, err := c.Do(ctx, cfg)
//	if err != nil { ... }
//	defer resp.Body.Close()
//
// Params travel in the query string, or as a form body for POST and PUT.
// Every outgoing request carries the [ConnectorHeader]. Any status code
// is returned as data; a gzip body is decoded transparently when
// [RequestConfig.AutoGzip] is set.
//
// # Cookies
//
// Cookie support is off by default. Once switched on with
// [Client.SetCookiesEnabled], each request replays and records cookies
// through the jar of the [cookiestore.Owner] carried by its context, so
// concurrent sessions sharing one Client stay isolated:
//
//	ctx = cookiestore.WithOwner(ctx, cookiestore.NewOwner())
package client
