package zarrutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/voxelio/zarrutil/store"
	"github.com/voxelio/zarrutil/store/gcs"
	"github.com/voxelio/zarrutil/store/minio"
	"github.com/voxelio/zarrutil/store/s3"
)

// OpenStore resolves a locator to a storage backend by scheme:
//
//	s3://bucket/prefix    S3, or MinIO when an endpoint is configured
//	gs://bucket/prefix    Google Cloud Storage
//	http(s)://host/path   read-only web store
//	file:///path, /path   local filesystem
//
// az:// locators are recognized as remote but have no backend; they
// return an *store.UnknownSchemeError.
//
// The returned store is throttled when RequestsPerSecond is set.
func (c *Client) OpenStore(ctx context.Context, locator string) (store.Store, error) {
	st, err := openStore(ctx, locator, c.opts.storeOpts)
	if err != nil {
		return nil, err
	}
	if rps := c.opts.storeOpts.RequestsPerSecond; rps > 0 {
		st = store.Throttle(st, rps)
	}
	return st, nil
}

func openStore(ctx context.Context, locator string, opts store.Options) (store.Store, error) {
	switch store.Scheme(locator) {
	case "s3":
		bucket, prefix, err := store.SplitBucket(locator)
		if err != nil {
			return nil, err
		}
		if opts.Endpoint != "" {
			return minio.New(bucket, prefix, opts)
		}
		return s3.New(ctx, bucket, prefix, opts)

	case "gs":
		bucket, prefix, err := store.SplitBucket(locator)
		if err != nil {
			return nil, err
		}
		return gcs.New(ctx, bucket, prefix, opts)

	case "http", "https":
		return store.NewHTTPStore(locator, opts.Timeout), nil

	case "az":
		return nil, fmt.Errorf("azure storage is not supported: %w",
			&store.UnknownSchemeError{Scheme: "az", Locator: locator})

	case "", "file":
		path := strings.TrimPrefix(locator, "file://")
		return store.NewLocalStore(path)

	default:
		return nil, &store.UnknownSchemeError{Scheme: store.Scheme(locator), Locator: locator}
	}
}
