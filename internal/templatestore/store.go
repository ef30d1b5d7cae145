package templatestore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrStoreUnavailable reports a listing or retrieval failure.
var ErrStoreUnavailable = errors.New("template store unavailable")

// DefaultPrefix is the key prefix templates are uploaded under.
const DefaultPrefix = "templates/"

// Template is one stored source document available for extraction.
type Template struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Lister lists the templates under the configured prefix.
type Lister interface {
	List(ctx context.Context) ([]Template, error)
}

type resolveFunc func(ctx context.Context, key string) (string, error)

// resolveAll resolves an address for every key. One failure fails the whole
// listing; no partial results are returned.
func resolveAll(ctx context.Context, keys []string, resolve resolveFunc) ([]Template, error) {
	out := make([]Template, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			u, err := resolve(gctx, key)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", key, err)
			}
			out[i] = Template{ID: key, Name: path.Base(key), URL: u}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return out, nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimLeft(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return strings.TrimSuffix(prefix, "/") + "/"
}
