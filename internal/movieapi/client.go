// Package movieapi talks to the external movie-data providers: OMDb for movie
// details and posters, and the Streaming Availability API for title search.
package movieapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"cinematch/backend/internal/logging"

	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	ConnectTimeout = 5 * time.Second
	ReadTimeout    = 10 * time.Second

	// maxBody bounds provider responses and downloaded posters.
	maxBody = 10 << 20
)

var (
	ErrNotFound    = errors.New("movieapi: not found")
	ErrUnavailable = errors.New("movieapi: provider unavailable")
)

// NewHTTPClient returns a client with a 5s connect timeout and a 10s read timeout.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: ConnectTimeout}).DialContext,
			TLSHandshakeTimeout:   ConnectTimeout,
			ResponseHeaderTimeout: ReadTimeout,
			MaxIdleConnsPerHost:   4,
		},
		Timeout: ConnectTimeout + ReadTimeout,
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A provider saying "no such movie" is a healthy answer.
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

// get performs req through cb and returns the body of a 200 response.
func get(cb *gobreaker.CircuitBreaker[[]byte], client *http.Client, req *http.Request) ([]byte, error) {
	body, err := cb.Execute(func() ([]byte, error) {
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("%s returned status %d: %s", req.URL.Host, resp.StatusCode, truncate(data, 200))
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return body, err
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// Downloader fetches poster images by URL.
type Downloader struct {
	http *http.Client
	cb   *gobreaker.CircuitBreaker[[]byte]
}

func NewDownloader(client *http.Client) *Downloader {
	return &Downloader{http: client, cb: newBreaker("poster-download")}
}

// Download returns the bytes at rawURL.
func (d *Downloader) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bad poster URL: %w", err)
	}
	// Some image hosts reject Go's default agent.
	req.Header.Set("User-Agent", "Mozilla/5.0")

	logging.Debug().Str("url", rawURL).Msg("downloading poster")
	return get(d.cb, d.http, req)
}
