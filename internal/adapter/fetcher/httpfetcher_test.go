package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPFetcher_Fetch_Success(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response data"))
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger(), 0)

	reader, err := fetcher.Fetch(context.Background(), testServer.URL)

	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "test response data", string(data))
}

func TestHTTPFetcher_Fetch_StatusErrorKeepsBody(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":"API_KEY_INVALID"}}`))
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger(), 0)

	reader, err := fetcher.Fetch(context.Background(), testServer.URL+"?api_key=SECRET")

	require.Error(t, err)
	assert.Nil(t, reader)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.JSONEq(t, `{"error":{"code":"API_KEY_INVALID"}}`, string(statusErr.Body))
	assert.Contains(t, err.Error(), "unexpected status code: 403")
	assert.NotContains(t, err.Error(), "SECRET")
}

func TestHTTPFetcher_InvalidURL(t *testing.T) {
	fetcher := NewHTTPFetcher(discardLogger(), 0)

	reader, err := fetcher.Fetch(context.Background(), "invalid://url")

	assert.Error(t, err)
	assert.Nil(t, reader)
}

func TestHTTPFetcher_ContextCancelled(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer testServer.Close()
	fetcher := NewHTTPFetcher(discardLogger(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader, err := fetcher.Fetch(ctx, testServer.URL)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, reader)
}

func TestHTTPFetcher_TransportErrorHidesKey(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	unreachable := testServer.URL
	testServer.Close()
	var logs bytes.Buffer
	fetcher := NewHTTPFetcher(slog.New(slog.NewTextHandler(&logs, nil)), 0)

	reader, err := fetcher.Fetch(context.Background(), unreachable+"/planetary/apod?api_key=SECRET")

	require.Error(t, err)
	assert.Nil(t, reader)
	assert.Contains(t, err.Error(), "api_key=REDACTED")
	assert.NotContains(t, err.Error(), "SECRET")
	assert.NotContains(t, logs.String(), "SECRET")
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer testServer.Close()
	defer close(release)
	fetcher := NewHTTPFetcher(discardLogger(), 50*time.Millisecond)

	reader, err := fetcher.Fetch(context.Background(), testServer.URL)

	assert.Error(t, err)
	assert.Nil(t, reader)
}

func TestRedactQuery(t *testing.T) {
	assert.Equal(t, "https://api.nasa.gov/planetary/apod?api_key=REDACTED",
		redactQuery("https://api.nasa.gov/planetary/apod?api_key=DEMO_KEY"))
	assert.Equal(t, "http://x/y/pic.jpg", redactQuery("http://x/y/pic.jpg"))
}
