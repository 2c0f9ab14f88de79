package client

import (
	"bufio"
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"
)

// gzipBody decompresses the wrapped body on read and closes both the
// decompressor and the underlying stream on Close. A nil zr marks a body
// that ended before the gzip header, which reads as empty.
type gzipBody struct {
	zr   *gzip.Reader
	body io.ReadCloser
}

func newGzipBody(body io.ReadCloser) (*gzipBody, error) {
	br := bufio.NewReader(body)
	if _, err := br.Peek(1); errors.Is(err, io.EOF) {
		return &gzipBody{body: body}, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, err
	}

	return &gzipBody{zr: zr, body: body}, nil
}

func (g *gzipBody) Read(p []byte) (int, error) {
	if g.zr == nil {
		return 0, io.EOF
	}

	return g.zr.Read(p)
}

func (g *gzipBody) Close() error {
	if g.zr == nil {
		return g.body.Close()
	}

	return errors.Join(g.zr.Close(), g.body.Close())
}

// isGzipped reports whether resp advertises a gzip body that the
// transport has not already decoded. Responses that cannot carry a body
// keep their header but are never decoded.
func isGzipped(resp *http.Response) bool {
	if resp.Uncompressed || resp.ContentLength == 0 {
		return false
	}
	if resp.Request != nil && resp.Request.Method == http.MethodHead {
		return false
	}
	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusNotModified:
		return false
	}

	return strings.EqualFold(strings.TrimSpace(resp.Header.Get("Content-Encoding")), "gzip")
}
