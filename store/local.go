package store

import (
	"context"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/voxelio/zarrutil/internal/fs"
)

// LocalStore implements Store on a local directory tree.
//
// Keys map to file paths relative to the root. Writes go through a temp
// file plus rename so a crashed consolidation never leaves a truncated
// sidecar behind.
type LocalStore struct {
	fs   fs.FileSystem
	root string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates a store rooted at dir. The directory is created if
// it does not exist.
func NewLocalStore(dir string) (*LocalStore, error) {
	return NewLocalStoreFS(fs.Default, dir)
}

// NewLocalStoreFS is NewLocalStore with an injected file system.
func NewLocalStoreFS(fsys fs.FileSystem, dir string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := fsys.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{fs: fsys, root: abs}, nil
}

// Root returns the absolute root directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes store root", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Get returns the contents of the file backing key.
func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Put writes data under key atomically (temp file + rename).
func (s *LocalStore) Put(_ context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		s.fs.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		s.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(tmp)
		return err
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		s.fs.Remove(tmp)
		return err
	}
	return nil
}

// Delete removes the file backing key.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List walks the directory tree and returns slash-delimited keys with the
// given prefix, sorted ascending.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.fs.WalkDir(s.root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Contains reports whether a file exists for key.
func (s *LocalStore) Contains(_ context.Context, key string) (bool, error) {
	path, err := s.path(key)
	if err != nil {
		return false, err
	}
	if _, err := s.fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close is a no-op for local stores.
func (s *LocalStore) Close() error { return nil }
