// Package gcs implements store.Store for Google Cloud Storage buckets.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	gstorage "cloud.google.com/go/storage"
	"github.com/voxelio/zarrutil/store"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Store implements store.Store for GCS. rootPrefix is prepended to all keys.
type Store struct {
	client *gstorage.Client
	bucket string
	prefix string
}

var _ store.Store = (*Store)(nil)

// New creates a GCS store for bucket with the given key prefix.
//
// With opts.Anonymous the client skips authentication entirely, which is
// what public dataset buckets expect.
func New(ctx context.Context, bucket, rootPrefix string, opts store.Options) (*Store, error) {
	var clientOpts []option.ClientOption
	if opts.Anonymous {
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	}

	client, err := gstorage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Store{client: client, bucket: bucket, prefix: rootPrefix}, nil
}

// NewWithClient creates a GCS store with a caller-supplied client.
func NewWithClient(client *gstorage.Client, bucket, rootPrefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: rootPrefix}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Get fetches the object under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.key(key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, key)
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Put uploads data under key.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(s.key(key)).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Delete removes the object under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(s.key(key)).Delete(ctx)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// List returns every key with the given prefix, relative to the store root.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &gstorage.Query{
		Prefix: s.key(prefix),
	})

	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		name := strings.TrimPrefix(attrs.Name, s.prefix)
		name = strings.TrimPrefix(name, "/")
		if name != "" {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Contains probes key's attributes.
func (s *Store) Contains(ctx context.Context, key string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(s.key(key)).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }
