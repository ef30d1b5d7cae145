package templatestore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirStore serves templates from a local directory. Addresses are file://
// URLs understood by Fetcher.
type DirStore struct {
	root string
}

func NewDirStore(root string) *DirStore {
	return &DirStore{root: strings.TrimSpace(root)}
}

func (s *DirStore) List(ctx context.Context) ([]Template, error) {
	if s == nil || s.root == "" {
		return nil, fmt.Errorf("%w: directory is not configured", ErrStoreUnavailable)
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		keys = append(keys, e.Name())
	}
	sort.Strings(keys)
	return resolveAll(ctx, keys, s.fileURL)
}

func (s *DirStore) fileURL(_ context.Context, key string) (string, error) {
	abs, err := filepath.Abs(filepath.Join(s.root, key))
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
