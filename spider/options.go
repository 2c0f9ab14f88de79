package spider

import (
	"errors"
	"log/slog"

	"github.com/adamwoolhether/httpspider/client"
	"github.com/adamwoolhether/httpspider/cookiestore"
)

// Option is a functional option for configuring a [Spider] via [New].
type Option func(*options) error
type options struct {
	client     *client.Client
	logger     *slog.Logger
	maxWorkers int
	owner      cookiestore.Owner
}

// WithClient sets the [client.Client] used for every exchange. Its cookie
// switch is left untouched. Without it, New builds a client with cookie
// support switched on.
func WithClient(c *client.Client) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("client must not be nil")
		}
		o.client = c
		return nil
	}
}

// WithLogger sets the logger for asynchronous failures and cleanup errors.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithMaxWorkers bounds the number of asynchronous dispatches running at
// once. Excess dispatches wait for a free slot in the background. The
// default is unbounded.
func WithMaxWorkers(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.New("max workers must not be negative")
		}
		o.maxWorkers = n
		return nil
	}
}

// WithOwner sets the cookie jar owner used for synchronous dispatch.
// A fresh owner is generated otherwise.
func WithOwner(owner cookiestore.Owner) Option {
	return func(o *options) error {
		if owner == "" {
			return errors.New("owner must not be empty")
		}
		o.owner = owner
		return nil
	}
}
