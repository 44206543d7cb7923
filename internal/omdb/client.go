// Package omdb enriches films with metadata from the OMDb API.
package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

const (
	// DefaultBaseURL is the public OMDb endpoint.
	DefaultBaseURL = "http://www.omdbapi.com/"

	notAvailable = "N/A"
)

// titleResponse is the subset of the by-title payload the crawler reads.
type titleResponse struct {
	Title     string `json:"Title"`
	Year      string `json:"Year"`
	Director  string `json:"Director"`
	Runtime   string `json:"Runtime"`
	BoxOffice string `json:"BoxOffice"`
	IMDbID    string `json:"imdbID"`
	Response  string `json:"Response"`
	Error     string `json:"Error"`
}

// LookupError describes why a single title could not be resolved.
type LookupError struct {
	Key        oscar.FilmKey
	StatusCode int
	Reason     string
	Err        error
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("omdb lookup %s", e.Key)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the service answered but had no match.
func (e *LookupError) NotFound() bool {
	return e.StatusCode == http.StatusOK && e.Err == nil
}

// Client performs single by-title lookups.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient builds a Client. A zero timeout means 30 seconds.
func NewClient(baseURL string, timeout time.Duration, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &Client{http: client, baseURL: baseURL}
}

// Lookup resolves one film with the given credential.
func (c *Client) Lookup(ctx context.Context, apiKey string, key oscar.FilmKey) (oscar.EnrichmentRecord, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apikey": apiKey,
			"t":      key.Film,
			"y":      strconv.Itoa(key.Release),
		}).
		Get(c.baseURL)
	if err != nil {
		return oscar.EnrichmentRecord{}, &LookupError{Key: key, Err: err}
	}
	if res.StatusCode() != http.StatusOK {
		return oscar.EnrichmentRecord{}, &LookupError{Key: key, StatusCode: res.StatusCode(), Reason: strings.TrimSpace(res.Status())}
	}

	var payload titleResponse
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		return oscar.EnrichmentRecord{}, &LookupError{Key: key, StatusCode: res.StatusCode(), Err: fmt.Errorf("decode body: %w", err)}
	}
	if !strings.EqualFold(payload.Response, "True") {
		reason := payload.Error
		if reason == "" {
			reason = "no match"
		}
		return oscar.EnrichmentRecord{}, &LookupError{Key: key, StatusCode: res.StatusCode(), Reason: reason}
	}

	return oscar.EnrichmentRecord{
		Film:     key.Film,
		Release:  key.Release,
		Cost:     ParseMoney(payload.BoxOffice),
		Director: optionalString(payload.Director),
		Runtime:  optionalString(payload.Runtime),
		IMDbID:   optionalString(payload.IMDbID),
	}, nil
}
