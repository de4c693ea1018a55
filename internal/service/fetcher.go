package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carevault/carevault/internal/filestore"
	"github.com/carevault/carevault/internal/model"
)

// FileFetcher loads the raw bytes of a stored document file.
type FileFetcher interface {
	Fetch(ctx context.Context, doc *model.Document) ([]byte, error)
}

// StoreFetcher reads straight from the configured file store.
type StoreFetcher struct {
	store filestore.Store
}

func NewStoreFetcher(store filestore.Store) *StoreFetcher {
	return &StoreFetcher{store: store}
}

func (f *StoreFetcher) Fetch(ctx context.Context, doc *model.Document) ([]byte, error) {
	rc, err := f.store.Open(ctx, doc.FileKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// HTTPFetcher downloads through the store's public URL instead of the store
// API. Used when the store serves objects itself (public s3 buckets).
type HTTPFetcher struct {
	store   filestore.Store
	baseURL string
	client  *http.Client
}

func NewHTTPFetcher(store filestore.Store, baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		store:   store,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, doc *model.Document) ([]byte, error) {
	fileURL := f.store.URL(doc.FileKey, f.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("fetch file: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
