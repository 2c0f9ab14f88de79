package spider

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// SaveOption configures [SaveTo].
type SaveOption func(*saveOptions) error

type saveOptions struct {
	expCode      int
	newHash      func() hash.Hash
	expSum       string
	logger       *slog.Logger
	progress     bool
	skipExisting bool
}

// WithExpectedStatus sets the only status whose body is saved.
// The default is 200.
func WithExpectedStatus(code int) SaveOption {
	return func(o *saveOptions) error {
		if code < 100 || code > 599 {
			return fmt.Errorf("invalid status code %d", code)
		}
		o.expCode = code
		return nil
	}
}

// WithChecksum verifies the saved file against expected, the hex
// encoded digest produced by a hash from newHash (e.g. sha256.New).
// Every save gets a fresh hash, so the handler may be reused and run
// concurrently.
func WithChecksum(newHash func() hash.Hash, expected string) SaveOption {
	return func(o *saveOptions) error {
		if newHash == nil {
			return errors.New("hash constructor must not be nil")
		}
		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}
		o.newHash = newHash
		o.expSum = expected
		return nil
	}
}

// WithProgress logs transfer progress to logger at most once per second.
func WithProgress(logger *slog.Logger) SaveOption {
	return func(o *saveOptions) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		o.progress = true
		return nil
	}
}

// WithSkipExisting leaves an existing destination untouched.
func WithSkipExisting() SaveOption {
	return func(o *saveOptions) error {
		o.skipExisting = true
		return nil
	}
}

// SaveTo returns a Handler streaming the body to destPath. Data is written
// to a temp file in the same directory and renamed on success; the temp
// file is removed on any failure. The stored value is the status.
//
// Option errors surface when the handler runs.
func SaveTo(destPath string, optFns ...SaveOption) Handler {
	return HandlerFunc(func(status int, header http.Header, body io.Reader) (int, error) {
		opts := saveOptions{expCode: http.StatusOK, logger: slog.Default()}
		for _, opt := range optFns {
			if err := opt(&opts); err != nil {
				return status, fmt.Errorf("applying save option: %w", err)
			}
		}

		if destPath == "" {
			return status, errors.New("destination path must not be empty")
		}

		if err := expectStatus(status, opts.expCode, body); err != nil {
			return status, err
		}

		if opts.skipExisting {
			if _, err := os.Stat(destPath); err == nil {
				opts.logger.Info("skipping existing file", "path", destPath)
				return status, nil
			}
		}

		if err := save(body, contentLength(header), destPath, opts); err != nil {
			return status, fmt.Errorf("save: %w", err)
		}

		return status, nil
	})
}

func save(body io.Reader, contentLength int64, destPath string, opts saveOptions) error {
	file, err := os.CreateTemp(filepath.Dir(destPath), ".httpspider-save-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			opts.logger.Error("defer closing temp file", "error", err)
		}
		if !successful {
			if err := os.Remove(file.Name()); err != nil {
				opts.logger.Error("failed to remove temp file", "error", err)
			}
		}
	}()

	var checksum *checksumVerifier
	var writer io.Writer = file
	if opts.newHash != nil {
		checksum = &checksumVerifier{hash: opts.newHash(), expected: opts.expSum}
		writer = io.MultiWriter(writer, checksum)
	}
	if opts.progress {
		writer = &progressWriter{
			w:         writer,
			logger:    opts.logger,
			total:     contentLength,
			startTime: time.Now(),
		}
	}

	n, err := io.Copy(writer, body)
	if err != nil {
		return fmt.Errorf("copying body: %w", err)
	}

	if contentLength >= 0 && n != contentLength {
		return &MismatchError{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", contentLength, n),
		}
	}

	if err := checksum.verify(); err != nil {
		return err
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(file.Name(), destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true

	return nil
}

// contentLength returns the announced body length, or -1 when it is
// unknown or describes an encoded body.
func contentLength(header http.Header) int64 {
	if header.Get("Content-Encoding") != "" {
		return -1
	}

	n, err := strconv.ParseInt(header.Get("Content-Length"), 10, 64)
	if err != nil || n < 0 {
		return -1
	}

	return n
}

type checksumVerifier struct {
	hash     hash.Hash
	expected string
}

func (v *checksumVerifier) Write(p []byte) (int, error) {
	return v.hash.Write(p)
}

func (v *checksumVerifier) verify() error {
	if v == nil {
		return nil
	}

	actual := hex.EncodeToString(v.hash.Sum(nil))
	if actual != v.expected {
		return &MismatchError{
			Err:    ErrChecksumMismatch,
			Detail: fmt.Sprintf("expected %s, got %s", v.expected, actual),
		}
	}

	return nil
}

// progressWriter logs transfer progress at most once per second.
type progressWriter struct {
	w           io.Writer
	logger      *slog.Logger
	transferred int64
	total       int64
	startTime   time.Time
	lastLog     time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.transferred += int64(n)

	if time.Since(pw.lastLog) >= time.Second {
		pw.lastLog = time.Now()
		pw.log("saving")
	}

	if pw.total >= 0 && pw.transferred == pw.total {
		pw.log("save complete")
	}

	return n, err
}

func (pw *progressWriter) log(msg string) {
	elapsed := time.Since(pw.startTime)
	attrs := []any{
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", pw.transferred,
	}
	if pw.total > 0 {
		attrs = append(attrs,
			"total", pw.total,
			"progress", fmt.Sprintf("%.1f%%", float64(pw.transferred)/float64(pw.total)*100),
		)
	}
	if secs := elapsed.Seconds(); secs > 0 {
		attrs = append(attrs, "mbps", fmt.Sprintf("%.2f", float64(pw.transferred)/secs/(1024*1024)))
	}
	pw.logger.Info(msg, attrs...)
}
