// Package spider provides a fluently configured request session on top
// of [client.Client].
//
// # Configuring a Session
//
// A Spider holds the target host, default headers and parameters, the
// proxy and the timeouts. Every configuration method returns the Spider:
//
//	s, err := spider.New("https://example.com/search")
//	if err != nil {
//		return err
//	}
//	s.SetRequestParameters(map[string]string{"q": "gopher"}).
//		ReadTimeout(5 * time.Second)
//
// # Dispatching
//
// [Spider.Get], [Spider.Post] and [Spider.Request] perform the exchange
// and hand the status, headers and body to a [Handler]. Any status code
// reaches the handler; the value it returns is kept for [Spider.Value].
//
//	err = s.Get(ctx, spider.HandlerFunc(func(status int, h http.Header, body io.Reader) (int, error) {
//		...
//	}))
//
// [Spider.RegexRequest] and [Spider.SelectRequest] call a handler once per
// regular expression match or CSS selection. [JSON] and [SaveTo] cover
// decoding and downloading.
//
// # Background Dispatch
//
// [Spider.Async] makes the next dispatch, and only that one, run in the
// background. The call returns at once; failures are logged instead of
// returned. Each background dispatch collects cookies in a jar of its
// own. [Spider.Wait] blocks until background work has drained.
//
//	_ = s.Async().Get(ctx, handler)
//	s.Wait()
package spider
