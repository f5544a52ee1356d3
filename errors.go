package zarrutil

import (
	"errors"
	"fmt"

	"github.com/voxelio/zarrutil/store"
	"github.com/voxelio/zarrutil/zarr"
)

var (
	// ErrNotFound is returned when a store key or node does not exist.
	ErrNotFound = store.ErrNotFound

	// ErrNoArrays is returned when a dataset is requested from a store
	// that contains no arrays.
	ErrNoArrays = errors.New("store contains no arrays")
)

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Structured failures pass through untouched so callers can inspect
	// them with errors.As.
	var ose *zarr.OpenStoreError
	if errors.As(err, &ose) {
		return err
	}
	var use *store.UnknownSchemeError
	if errors.As(err, &use) {
		return err
	}

	return err
}
