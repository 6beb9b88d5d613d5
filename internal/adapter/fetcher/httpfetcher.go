package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	userAgent = "apod-wallpaper/1.0"
	// maxErrorBody bounds how much of a non-200 response is kept for the caller.
	maxErrorBody = 64 << 10
)

// StatusError is returned for responses other than 200 OK. Body holds the
// beginning of the response so callers can look for an API error object.
type StatusError struct {
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d for url %s", e.StatusCode, e.URL)
}

// HTTPFetcher performs single-attempt GET requests for the APOD endpoints.
type HTTPFetcher struct {
	client *http.Client
	log    *slog.Logger
}

// NewHTTPFetcher creates a fetcher. A zero timeout leaves requests bounded
// only by the caller's context.
func NewHTTPFetcher(log *slog.Logger, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		log:    log.With(slog.String("component", "fetcher")),
	}
}

// Fetch issues one GET request and returns the response body, which the
// caller must close. Non-200 responses are reported as *StatusError.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	safeURL := redactQuery(rawURL)
	log := f.log.With(slog.String("url", safeURL))
	log.Debug("Fetching URL")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		err = redactURLError(err)
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create request for url %s: %w", safeURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		err = redactURLError(err)
		log.Error("HTTP request failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch url %s: %w", safeURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Warn("Unexpected status code", slog.Int("status_code", resp.StatusCode))
		return nil, &StatusError{URL: safeURL, StatusCode: resp.StatusCode, Body: body}
	}
	log.Debug("Successfully fetched URL", slog.Int64("content_length", resp.ContentLength))
	return resp.Body, nil
}

// ResponseBody returns the retained part of the response body.
func (e *StatusError) ResponseBody() []byte {
	return e.Body
}

// redactURLError hides the key inside the URL carried by a *url.Error,
// which net/http puts into its message verbatim.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redactQuery(urlErr.URL)
	}
	return err
}
