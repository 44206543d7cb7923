// Package collyfetcher implements oscar.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

// Config controls collector behavior.
type Config struct {
	UserAgent     string
	RespectRobots bool
	Timeout       time.Duration
	// MaxBodySize caps the bytes read per page. Zero means unlimited.
	MaxBodySize int
}

// Fetcher implements oscar.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// outcome collects what the collector callbacks observed for one visit.
type outcome struct {
	response   oscar.FetchResponse
	statusCode int
	err        error
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	// Clones share the visited-URL store, so revisits must be allowed for
	// repeated fetches of the same page.
	c := colly.NewCollector(colly.AllowURLRevisit())

	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET using Colly. Transport failures and non-2xx
// responses are reported as *oscar.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, request oscar.FetchRequest) (oscar.FetchResponse, error) {
	var result outcome
	start := time.Now()
	collector := f.buildCollector(request, start, &result)

	if err := f.runCollector(ctx, collector, request.URL, &result); err != nil {
		return oscar.FetchResponse{}, err
	}
	return result.response, nil
}

func (f *Fetcher) buildCollector(request oscar.FetchRequest, start time.Time, result *outcome) *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobots
	collector.MaxBodySize = f.cfg.MaxBodySize
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	transport := f.transport
	if transport == nil {
		transport = newHTTPTransport()
	}
	collector.WithTransport(transport)

	f.configureCollectorHooks(collector, request, start, result)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	request oscar.FetchRequest,
	start time.Time,
	result *outcome,
) {
	hooks.OnRequest(func(r *colly.Request) {
		f.copyHeaders(request, r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		result.response = oscar.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		result.err = err
		if r != nil {
			result.statusCode = r.StatusCode
		}
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, result *outcome) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return &oscar.FetchError{URL: url, Err: fmt.Errorf("colly fetch canceled: %w", ctx.Err())}
	case err := <-done:
		if result.statusCode != 0 {
			return &oscar.FetchError{URL: url, StatusCode: result.statusCode}
		}
		if result.err != nil {
			return &oscar.FetchError{URL: url, Err: result.err}
		}
		if err != nil {
			return &oscar.FetchError{URL: url, Err: fmt.Errorf("colly visit failed: %w", err)}
		}
		if err := oscar.CheckResponse(result.response); err != nil {
			return err
		}
		return nil
	}
}

func (f *Fetcher) copyHeaders(request oscar.FetchRequest, r *colly.Request) {
	if request.Headers == nil {
		return
	}
	for key, values := range request.Headers {
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
