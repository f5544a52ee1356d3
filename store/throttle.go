package store

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled wraps a Store and rate-limits every backend request.
// Useful against public buckets with aggressive request quotas.
type Throttled struct {
	inner Store
	lim   *rate.Limiter
}

var _ Store = (*Throttled)(nil)

// Throttle wraps inner so that at most rps requests per second are issued.
// A non-positive rps returns inner unchanged.
func Throttle(inner Store, rps float64) Store {
	if rps <= 0 {
		return inner
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Throttled{inner: inner, lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (t *Throttled) Get(ctx context.Context, key string) ([]byte, error) {
	if err := t.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.Get(ctx, key)
}

func (t *Throttled) Put(ctx context.Context, key string, data []byte) error {
	if err := t.lim.Wait(ctx); err != nil {
		return err
	}
	return t.inner.Put(ctx, key, data)
}

func (t *Throttled) Delete(ctx context.Context, key string) error {
	if err := t.lim.Wait(ctx); err != nil {
		return err
	}
	return t.inner.Delete(ctx, key)
}

func (t *Throttled) List(ctx context.Context, prefix string) ([]string, error) {
	if err := t.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.List(ctx, prefix)
}

func (t *Throttled) Contains(ctx context.Context, key string) (bool, error) {
	if err := t.lim.Wait(ctx); err != nil {
		return false, err
	}
	return t.inner.Contains(ctx, key)
}

func (t *Throttled) Close() error { return t.inner.Close() }
