package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPStore is a read-only Store backed by a plain HTTP(S) server.
//
// Keys are resolved relative to the base URL. HTTP has no listing
// protocol, so List returns ErrListingUnsupported; stores served this way
// are only fully walkable through consolidated metadata.
type HTTPStore struct {
	base   string
	client *http.Client
}

var _ Store = (*HTTPStore)(nil)

// NewHTTPStore creates a read-only store for the given base URL.
func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	return &HTTPStore{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPStore) url(key string) string {
	return s.base + "/" + key
}

// Get fetches key with a GET request.
func (s *HTTPStore) Get(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(key), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("GET %s: unexpected status %s", s.url(key), resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Put is unsupported; HTTP stores are read-only.
func (s *HTTPStore) Put(context.Context, string, []byte) error { return ErrReadOnly }

// Delete is unsupported; HTTP stores are read-only.
func (s *HTTPStore) Delete(context.Context, string) error { return ErrReadOnly }

// List is unsupported for plain HTTP servers.
func (s *HTTPStore) List(context.Context, string) ([]string, error) {
	return nil, ErrListingUnsupported
}

// Contains probes key with a HEAD request.
func (s *HTTPStore) Contains(ctx context.Context, key string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url(key), nil)
	if err != nil {
		return false, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("HEAD %s: unexpected status %s", s.url(key), resp.Status)
	}
	return true, nil
}

// Close is a no-op for HTTP stores.
func (s *HTTPStore) Close() error { return nil }
