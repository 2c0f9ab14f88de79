// Package cookiestore keeps one cookie jar per [Owner] so that concurrent
// sessions sharing a [github.com/adamwoolhether/httpspider/client.Client]
// never observe each other's cookies.
//
// An Owner stands in for the identity of whoever performs the I/O. It travels
// with the request in its [context.Context]:
//
//	owner := cookiestore.NewOwner()
//	ctx = cookiestore.WithOwner(ctx, owner)
//	resp, err := c.Do(ctx, cfg)
//
// Jars are created lazily on first use and are never handed to another
// Owner. [Default] returns the process-wide store; [New] builds an
// independent one for injection via client.WithCookieStore.
package cookiestore
