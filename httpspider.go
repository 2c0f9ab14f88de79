// Package httpspider exposes the client and spider builders.
package httpspider

import (
	"github.com/adamwoolhether/httpspider/client"
	"github.com/adamwoolhether/httpspider/spider"
)

// NewClient instantiates a new *client.Client with the provided options.
// If not specified, a fresh transport is dialed per request and cookie
// support is off.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// NewSpider instantiates a new *spider.Spider targeting host. Unless a
// client is supplied with spider.WithClient, one is built with cookie
// support switched on.
func NewSpider(host string, opts ...spider.Option) (*spider.Spider, error) {
	return spider.New(host, opts...)
}
