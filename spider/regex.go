package spider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"slices"
	"strings"
)

// RegexRequest dispatches method to the host and calls h once for every
// non-overlapping match of pattern in the body, left to right. The value
// stored is the one returned by the last call, or 0 without matches.
// A pattern that fails to compile is reported before dispatching, even
// after [Spider.Async].
func (s *Spider) RegexRequest(ctx context.Context, method, pattern string, h RegexHandler) error {
	if h == nil {
		s.takeAsync()
		return ErrNilHandler
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		s.takeAsync()
		return fmt.Errorf("compiling pattern: %w", err)
	}

	return s.Request(ctx, method, regexHandler(re, h))
}

func regexHandler(re *regexp.Regexp, h RegexHandler) Handler {
	return HandlerFunc(func(status int, header http.Header, body io.Reader) (int, error) {
		var sb strings.Builder
		if _, err := io.Copy(&sb, body); err != nil {
			return 0, fmt.Errorf("reading body: %w", err)
		}
		text := sb.String()

		var (
			result  int
			history []Match
		)
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			m := newMatch(text, idx)

			v, err := h(status, header, text, m, slices.Clip(history))
			if err != nil {
				return v, err
			}
			result = v
			history = append(history, m)
		}

		return result, nil
	})
}

func newMatch(text string, idx []int) Match {
	m := Match{
		Groups: make([]string, len(idx)/2),
		Index:  idx,
	}
	for i := range m.Groups {
		start, end := idx[2*i], idx[2*i+1]
		if start >= 0 {
			m.Groups[i] = text[start:end]
		}
	}

	return m
}
