package zarrutil

import (
	"log/slog"
	"time"

	"github.com/voxelio/zarrutil/store"
)

type options struct {
	storeOpts        store.Options
	metricsCollector MetricsCollector
	logger           *Logger
	defaultUnits     string
}

// Option configures Client behavior.
//
// Today options primarily exist to avoid exploding the API surface
// (e.g. backend-specific constructor variants).
type Option func(*options)

// WithStoreOptions replaces the whole storage option set forwarded to
// store backends.
func WithStoreOptions(opts store.Options) Option {
	return func(o *options) {
		o.storeOpts = opts
	}
}

// WithAnonymous enables anonymous access for remote backends (public
// S3/GCS buckets).
func WithAnonymous() Option {
	return func(o *options) {
		o.storeOpts.Anonymous = true
	}
}

// WithRegion sets the region hint for S3-compatible backends.
func WithRegion(region string) Option {
	return func(o *options) {
		o.storeOpts.Region = region
	}
}

// WithEndpoint sets a custom object-store endpoint. A non-empty
// endpoint routes s3:// locators through the MinIO backend.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.storeOpts.Endpoint = endpoint
	}
}

// WithCredentials sets static credentials for remote backends.
func WithCredentials(accessKey, secretKey string) Option {
	return func(o *options) {
		o.storeOpts.AccessKey = accessKey
		o.storeOpts.SecretKey = secretKey
	}
}

// WithTimeout sets the per-request timeout for HTTP(S) stores.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.storeOpts.Timeout = timeout
	}
}

// WithRequestsPerSecond throttles store requests. Zero disables
// throttling.
func WithRequestsPerSecond(rps float64) Option {
	return func(o *options) {
		o.storeOpts.RequestsPerSecond = rps
	}
}

// WithDefaultUnits sets the units value written by attribute backfill
// during repair. Defaults to "unknown".
func WithDefaultUnits(units string) Option {
	return func(o *options) {
		o.defaultUnits = units
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &zarrutil.BasicMetricsCollector{}
//	client := zarrutil.New(zarrutil.WithMetricsCollector(metrics))
//	// ... use client ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := zarrutil.NewJSONLogger(slog.LevelInfo)
//	client := zarrutil.New(zarrutil.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		defaultUnits:     "unknown",
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
