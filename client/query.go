package client

import (
	"errors"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

var errInvalidUTF8 = errors.New("invalid utf-8")

// EncodeQuery renders params as k1=v1&k2=v2, percent-encoding every key
// and value after converting it to charset. Keys are emitted in sorted
// order. An empty charset means UTF-8.
func EncodeQuery(params map[string]string, charset string) (string, error) {
	if len(params) == 0 {
		return "", nil
	}

	enc, err := lookupCharset(charset)
	if err != nil {
		return "", err
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	for _, k := range keys {
		key, err := convert(enc, charset, k, k)
		if err != nil {
			return "", err
		}
		value, err := convert(enc, charset, k, params[k])
		if err != nil {
			return "", err
		}

		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	return b.String(), nil
}

// DecodeQuery parses a UTF-8 query string produced by EncodeQuery back
// into its pairs. Pairs without '=' are ignored.
func DecodeQuery(query string) (map[string]string, error) {
	out := make(map[string]string)

	for pair := range strings.SplitSeq(query, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, &EncodingError{Charset: DefaultCharset, Key: k, Err: err}
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, &EncodingError{Charset: DefaultCharset, Key: key, Err: err}
		}

		out[key] = value
	}

	return out, nil
}

// appendQuery attaches query to rawURL, adding '?' or '&' as needed.
func appendQuery(rawURL, query string) string {
	if query == "" {
		return rawURL
	}

	switch {
	case !strings.Contains(rawURL, "?"):
		return rawURL + "?" + query
	case strings.HasSuffix(rawURL, "?"), strings.HasSuffix(rawURL, "&"):
		return rawURL + query
	default:
		return rawURL + "&" + query
	}
}

func lookupCharset(charset string) (encoding.Encoding, error) {
	if charset == "" {
		return unicode.UTF8, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, &EncodingError{Charset: charset, Err: err}
	}

	return enc, nil
}

// convert returns s re-encoded in enc. Go strings are expected to carry
// UTF-8, so malformed input is rejected before conversion.
func convert(enc encoding.Encoding, charset, key, s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", &EncodingError{Charset: charset, Key: key, Err: errInvalidUTF8}
	}

	if enc == unicode.UTF8 {
		return s, nil
	}

	out, err := enc.NewEncoder().String(s)
	if err != nil {
		return "", &EncodingError{Charset: charset, Key: key, Err: err}
	}

	return out, nil
}
