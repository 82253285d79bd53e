package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"call-insights/internal/helper"
)

// FS is a filesystem-backed BlobStore. Keys map directly onto paths under
// the root directory, so the on-disk layout mirrors the
// calls/{callId}/{artifact} key space.
type FS struct {
	root string
}

// NewFS creates the root directory if needed and returns the store.
func NewFS(root string) (*FS, error) {
	if err := helper.CreateFolder(root); err != nil {
		return nil, err
	}
	return &FS{root: root}, nil
}

func (f *FS) path(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}

func (f *FS) Put(_ context.Context, key string, data []byte, _ string) error {
	p := f.path(key)
	if err := helper.CreateFolder(filepath.Dir(p)); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func (f *FS) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	}
	return data, err
}

func (f *FS) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(f.root, path)
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

func (f *FS) Delete(_ context.Context, keys ...string) (int, error) {
	deleted := 0
	for _, key := range keys {
		err := os.Remove(f.path(key))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return deleted, err
		}
		deleted++
		// prune the call directory once empty; best effort
		_ = os.Remove(filepath.Dir(f.path(key)))
	}
	return deleted, nil
}
