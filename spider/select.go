package spider

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// SelectHandler is called once per node matched by [Spider.SelectRequest],
// in document order. index counts from 0.
type SelectHandler func(status int, header http.Header, sel *goquery.Selection, index int) (int, error)

// SelectRequest dispatches method to the host, parses the body as HTML
// and calls h for every node matching the CSS selector. The value stored
// is the one returned by the last call, or 0 without matches. A selector
// that fails to compile is reported before dispatching.
func (s *Spider) SelectRequest(ctx context.Context, method, selector string, h SelectHandler) error {
	if h == nil {
		s.takeAsync()
		return ErrNilHandler
	}

	m, err := cascadia.Compile(selector)
	if err != nil {
		s.takeAsync()
		return fmt.Errorf("compiling selector: %w", err)
	}

	return s.Request(ctx, method, selectHandler(m, h))
}

func selectHandler(m goquery.Matcher, h SelectHandler) Handler {
	return HandlerFunc(func(status int, header http.Header, body io.Reader) (int, error) {
		doc, err := goquery.NewDocumentFromReader(body)
		if err != nil {
			return 0, fmt.Errorf("parsing document: %w", err)
		}

		var (
			result int
			herr   error
		)
		doc.FindMatcher(m).EachWithBreak(func(i int, sel *goquery.Selection) bool {
			result, herr = h(status, header, sel, i)
			return herr == nil
		})

		return result, herr
	})
}
