package spider

import (
	"io"
	"net/http"
)

// Handler consumes a response. The body is only valid for the duration
// of Handle and is closed by the Spider afterwards. The returned int is
// stored as the Spider's value.
type Handler interface {
	Handle(status int, header http.Header, body io.Reader) (int, error)
}

// HandlerFunc adapts an ordinary function to a [Handler].
type HandlerFunc func(status int, header http.Header, body io.Reader) (int, error)

// Handle calls f.
func (f HandlerFunc) Handle(status int, header http.Header, body io.Reader) (int, error) {
	return f(status, header, body)
}

// RegexHandler is called once per match found by [Spider.RegexRequest],
// in document order. history holds the matches delivered before m.
type RegexHandler func(status int, header http.Header, body string, m Match, history []Match) (int, error)

// FlagHandler transforms the Spider's stored value.
type FlagHandler func(value int) int

// Match is a single regular expression match within a response body.
type Match struct {
	// Groups holds the full match at index 0 followed by each capture
	// group. Groups that did not participate are empty.
	Groups []string
	// Index holds the byte offsets of each group as start/end pairs,
	// -1 for groups that did not participate.
	Index []int
}

// Text returns the full match.
func (m Match) Text() string {
	return m.Group(0)
}

// Group returns capture group i, or "" if it does not exist.
func (m Match) Group(i int) string {
	if i < 0 || i >= len(m.Groups) {
		return ""
	}

	return m.Groups[i]
}

// Start returns the byte offset of the full match in the body.
func (m Match) Start() int {
	if len(m.Index) == 0 {
		return -1
	}

	return m.Index[0]
}
