// Package ics fetches and parses the iCalendar feed backing the digest.
package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	appLog "calmail/internal/log"
)

const fetchTimeout = 10 * time.Second

// TransportError reports a failed feed fetch: either a network-level failure
// or a non-2xx response. The digest is a batch run, so the caller is expected
// to abort; there is no retry or cached fallback here.
type TransportError struct {
	URL    string
	Status int // 0 when the request never produced a response
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("feed fetch %s: unexpected status %d", redactURL(e.URL), e.Status)
	}
	return fmt.Sprintf("feed fetch %s: %v", redactURL(e.URL), e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Fetcher retrieves raw ICS bytes over HTTP with a bounded timeout.
type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// Fetch issues a single GET against the feed URL and returns the body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("empty feed URL")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}

	appLog.Info("feed fetch start", "url", redactURL(url))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}

	appLog.Info("feed fetch success", "url", redactURL(url), "bytes", len(body))
	return body, nil
}

// redactURL strips the path and query of a feed URL before logging; public
// Google ICS URLs embed the calendar address in the path.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "ics://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
