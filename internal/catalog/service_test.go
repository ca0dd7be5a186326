package catalog

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/logger"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/shopify"
)

type fakeProductAPI struct {
	mu       sync.Mutex
	products map[string]*shopify.Product
	err      error
	calls    int
}

func (f *fakeProductAPI) GetProduct(_ context.Context, _, productGID string) (*shopify.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.products[productGID], nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", errors.New("miss")
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	return nil
}

func (f *fakeCache) SnapshotKey(shop, productID string) string {
	return shop + ":" + productID
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestSnapshotConvertsPriceAndVariant(t *testing.T) {
	api := &fakeProductAPI{products: map[string]*shopify.Product{
		"gid://shopify/Product/10": {
			ID:        "gid://shopify/Product/10",
			Title:     "Widget",
			Handle:    "widget",
			ImageURL:  "https://cdn.example/widget.png",
			VariantID: "gid://shopify/ProductVariant/998877",
			Price:     "12.505",
		},
	}}
	svc, err := NewService(api, nil, time.Minute, testLogger())
	require.NoError(t, err)

	snapshot, err := svc.Snapshot(context.Background(), "demo.myshopify.com", "gid://shopify/Product/10")
	require.NoError(t, err)
	assert.Equal(t, "Widget", snapshot.Title)
	assert.Equal(t, "998877", snapshot.VariantID)
	assert.Equal(t, int64(1251), snapshot.PriceCents)
}

func TestSnapshotFallsBackToCache(t *testing.T) {
	cache := newFakeCache()
	api := &fakeProductAPI{products: map[string]*shopify.Product{
		"gid://shopify/Product/10": {Title: "Widget", Price: "5.00", VariantID: "gid://shopify/ProductVariant/1"},
	}}
	svc, err := NewService(api, cache, time.Minute, testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.Snapshot(ctx, "demo.myshopify.com", "gid://shopify/Product/10")
	require.NoError(t, err)

	api.err = errors.New("admin api down")
	snapshot, err := svc.Snapshot(ctx, "demo.myshopify.com", "gid://shopify/Product/10")
	require.NoError(t, err)
	assert.Equal(t, "Widget", snapshot.Title)
	assert.Equal(t, int64(500), snapshot.PriceCents)
}

func TestSnapshotErrorsWithoutCacheEntry(t *testing.T) {
	api := &fakeProductAPI{err: errors.New("admin api down")}
	svc, err := NewService(api, newFakeCache(), time.Minute, testLogger())
	require.NoError(t, err)

	_, err = svc.Snapshot(context.Background(), "demo.myshopify.com", "gid://shopify/Product/10")
	require.Error(t, err)
}

func TestSnapshotsSkipsFailures(t *testing.T) {
	api := &fakeProductAPI{products: map[string]*shopify.Product{
		"gid://shopify/Product/1": {Title: "One", Price: "1.00"},
	}}
	svc, err := NewService(api, nil, time.Minute, testLogger())
	require.NoError(t, err)

	out := svc.Snapshots(context.Background(), "demo.myshopify.com", []string{
		"gid://shopify/Product/1",
		"gid://shopify/Product/2",
		"",
	})
	require.Len(t, out, 1)
	assert.Equal(t, "One", out["gid://shopify/Product/1"].Title)
}

func TestNewServiceValidatesDeps(t *testing.T) {
	_, err := NewService(nil, nil, time.Minute, testLogger())
	require.Error(t, err)

	_, err = NewService(&fakeProductAPI{}, nil, time.Minute, nil)
	require.Error(t, err)
}
