package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/logger"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/shopify"
)

// Snapshot is the storefront-facing view of a product embedded in bundle
// projections. VariantID is numeric and price is in cents.
type Snapshot struct {
	ProductID  string `json:"productId"`
	Title      string `json:"title"`
	Handle     string `json:"handle"`
	Image      string `json:"image"`
	PriceCents int64  `json:"price"`
	VariantID  string `json:"variantId"`
}

// ProductAPI is the Admin API slice the snapshot service needs.
type ProductAPI interface {
	GetProduct(ctx context.Context, shop, productGID string) (*shopify.Product, error)
}

// Cache stores serialized snapshots keyed per shop and product.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SnapshotKey(shop, productID string) string
}

// Service resolves live product snapshots with a cache fallback.
type Service interface {
	Snapshot(ctx context.Context, shop, productGID string) (*Snapshot, error)
	Snapshots(ctx context.Context, shop string, productGIDs []string) map[string]*Snapshot
}

type service struct {
	api    ProductAPI
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewService wires the snapshot service. The cache is optional.
func NewService(api ProductAPI, cache Cache, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, errors.New("catalog: product api is required")
	}
	if logg == nil {
		return nil, errors.New("catalog: logger is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &service{api: api, cache: cache, ttl: ttl, logger: logg}, nil
}

// Snapshot fetches the product live, falling back to the last cached value
// when the Admin API is unavailable.
func (s *service) Snapshot(ctx context.Context, shop, productGID string) (*Snapshot, error) {
	product, err := s.api.GetProduct(ctx, shop, productGID)
	if err == nil && product != nil {
		snapshot := fromProduct(productGID, product)
		s.store(ctx, shop, productGID, snapshot)
		return snapshot, nil
	}
	if err == nil {
		err = errors.New("product not found")
	}

	if cached := s.lookup(ctx, shop, productGID); cached != nil {
		fields := map[string]any{"product_id": productGID, "error": err.Error()}
		s.logger.Warn(s.logger.WithFields(ctx, fields), "serving stale product snapshot")
		return cached, nil
	}
	return nil, err
}

// Snapshots resolves many products concurrently. Products that cannot be
// resolved are absent from the result; callers fall back to stored data.
func (s *service) Snapshots(ctx context.Context, shop string, productGIDs []string) map[string]*Snapshot {
	out := make(map[string]*Snapshot, len(productGIDs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, gid := range productGIDs {
		if gid == "" {
			continue
		}
		wg.Add(1)
		go func(gid string) {
			defer wg.Done()
			snapshot, err := s.Snapshot(ctx, shop, gid)
			if err != nil {
				return
			}
			mu.Lock()
			out[gid] = snapshot
			mu.Unlock()
		}(gid)
	}
	wg.Wait()
	return out
}

func (s *service) store(ctx context.Context, shop, productGID string, snapshot *Snapshot) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	key := s.cache.SnapshotKey(shop, shopify.NumericID(productGID))
	if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "product_id", productGID), "caching product snapshot failed")
	}
}

func (s *service) lookup(ctx context.Context, shop, productGID string) *Snapshot {
	if s.cache == nil {
		return nil
	}
	key := s.cache.SnapshotKey(shop, shopify.NumericID(productGID))
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return nil
	}
	var snapshot Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil
	}
	return &snapshot
}

func fromProduct(productGID string, product *shopify.Product) *Snapshot {
	snapshot := &Snapshot{
		ProductID: productGID,
		Title:     product.Title,
		Handle:    product.Handle,
		Image:     product.ImageURL,
		VariantID: shopify.NumericID(product.VariantID),
	}
	if product.Price != "" {
		if price, err := decimal.NewFromString(product.Price); err == nil {
			snapshot.PriceCents = price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
		}
	}
	return snapshot
}
