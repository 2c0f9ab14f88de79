package spider

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// JSON returns a Handler decoding the body into dest when the response
// status equals expCode. Any other status yields an
// *[UnexpectedStatusError]. The stored value is the status.
func JSON[T any](expCode int, dest *T) Handler {
	return HandlerFunc(func(status int, _ http.Header, body io.Reader) (int, error) {
		if err := expectStatus(status, expCode, body); err != nil {
			return status, err
		}

		if err := json.NewDecoder(body).Decode(dest); err != nil {
			return status, fmt.Errorf("decoding body: %w", err)
		}

		return status, nil
	})
}

func expectStatus(status, expCode int, body io.Reader) error {
	if status == expCode {
		return nil
	}

	b, err := io.ReadAll(io.LimitReader(body, maxErrBodySize))
	if err != nil {
		b = []byte("unable to read body")
	}

	return &UnexpectedStatusError{StatusCode: status, Body: string(b)}
}
