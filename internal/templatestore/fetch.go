package templatestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Fetcher retrieves the raw bytes behind a resolved template address.
type Fetcher interface {
	Fetch(ctx context.Context, address string) ([]byte, error)
}

// MaxTemplateSize caps the bytes read for a single template.
const MaxTemplateSize = 64 << 20

// HTTPFetcher performs a plain GET of the address. file:// addresses are read
// from disk so DirStore listings can be fetched the same way.
type HTTPFetcher struct {
	client  *http.Client
	maxSize int64
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPFetcher{client: client, maxSize: MaxTemplateSize}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, address string) ([]byte, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid address: %v", ErrStoreUnavailable, err)
	}
	switch u.Scheme {
	case "file":
		file, err := os.Open(filepath.FromSlash(u.Path))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		defer file.Close()
		return f.readLimited(file, u.Path)
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrStoreUnavailable, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		// url.Error carries the full address, presigned query included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("%w: GET %s%s: %v", ErrStoreUnavailable, u.Host, u.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s%s: %s", ErrStoreUnavailable, u.Host, u.Path, resp.Status)
	}
	return f.readLimited(resp.Body, u.Host+u.Path)
}

func (f *HTTPFetcher) readLimited(r io.Reader, what string) ([]byte, error) {
	limit := f.maxSize
	if limit <= 0 {
		limit = MaxTemplateSize
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStoreUnavailable, what, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrStoreUnavailable, what, limit)
	}
	return data, nil
}
