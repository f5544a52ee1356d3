// Package store provides key/value access to chunked array stores.
//
// A Store maps slash-delimited keys (".zarray", "labels/0/0.0.0", ...) to
// byte payloads, regardless of whether the bytes live on a local disk, an
// object store, or behind an HTTP server. Backends for S3, GCS and
// S3-compatible endpoints live in subpackages; local, in-memory and HTTP
// backends live here.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrNotFound is returned when a key does not exist.
//
// Implementations must return an error that satisfies
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// ErrReadOnly is returned by write operations on read-only backends.
var ErrReadOnly = errors.New("store is read-only")

// ErrListingUnsupported is returned by backends that cannot enumerate keys
// (plain HTTP servers have no listing protocol).
var ErrListingUnsupported = errors.New("store does not support listing")

// Store is an abstraction over the flat key space of a chunked array store.
//
// Keys use "/" as the separator and never begin with one. Implementations
// must be safe for concurrent use.
type Store interface {
	// Get returns the full payload stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes the payload under key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every key with the given prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)

	// Contains reports whether key exists.
	Contains(ctx context.Context, key string) (bool, error)

	// Close releases backend resources.
	Close() error
}

// Options carries access settings forwarded to the backend that serves a
// locator. The zero value is usable for local paths.
type Options struct {
	// Anonymous requests unauthenticated access (public buckets).
	Anonymous bool

	// Region selects the bucket region for S3 locators.
	Region string

	// Endpoint overrides the object-store endpoint. A non-empty endpoint
	// routes s3:// locators through the S3-compatible (MinIO) backend.
	Endpoint string

	// AccessKey and SecretKey are static credentials for object stores.
	AccessKey string
	SecretKey string

	// Insecure disables TLS for custom endpoints.
	Insecure bool

	// Timeout bounds individual backend requests. Zero means no local
	// timeout; the context still applies.
	Timeout time.Duration

	// RequestsPerSecond throttles backend requests when positive.
	RequestsPerSecond float64
}

// UnknownSchemeError is returned when no backend serves a locator's scheme.
type UnknownSchemeError struct {
	Scheme  string
	Locator string
}

func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("no store backend for scheme %q (locator %q)", e.Scheme, e.Locator)
}

// remoteSchemes are locator prefixes that address object storage. Repair
// treats these as read-only targets.
var remoteSchemes = []string{"s3://", "gs://", "az://"}

// IsRemote reports whether the locator addresses remote object storage.
func IsRemote(locator string) bool {
	for _, s := range remoteSchemes {
		if strings.HasPrefix(locator, s) {
			return true
		}
	}
	return false
}

// Scheme returns the locator's URL scheme, or "" for plain paths.
func Scheme(locator string) string {
	i := strings.Index(locator, "://")
	if i < 0 {
		return ""
	}
	return locator[:i]
}

// SplitBucket splits "scheme://bucket/prefix" into bucket and prefix.
func SplitBucket(locator string) (bucket, prefix string, err error) {
	i := strings.Index(locator, "://")
	if i < 0 {
		return "", "", fmt.Errorf("locator %q has no scheme", locator)
	}
	rest := strings.Trim(locator[i+3:], "/")
	if rest == "" {
		return "", "", fmt.Errorf("locator %q has no bucket", locator)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	return bucket, prefix, nil
}
