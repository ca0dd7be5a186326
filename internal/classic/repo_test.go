package classic

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

func setupClassicTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	bundles := `
CREATE TABLE IF NOT EXISTS bundles (
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL,
  name TEXT NOT NULL,
  buy_type TEXT NOT NULL,
  buy_reference TEXT NOT NULL,
  min_quantity INTEGER NOT NULL DEFAULT 1,
  get_product_id TEXT NOT NULL,
  discount_type TEXT NOT NULL,
  discount_value REAL NOT NULL,
  max_reward INTEGER NOT NULL DEFAULT 1,
  active INTEGER NOT NULL DEFAULT 1,
  discount_id TEXT,
  design_config TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(bundles).Error)
	require.NoError(t, db.Exec("DELETE FROM bundles").Error)
	return db
}

func newTestBundle(shop string) *models.Bundle {
	return &models.Bundle{
		ID:            uuid.New(),
		ShopID:        shop,
		Name:          "Buy 2 Get 1",
		BuyType:       enums.BuyTypeProduct,
		BuyReference:  "gid://shopify/Product/1",
		MinQuantity:   2,
		GetProductID:  "gid://shopify/Product/2",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: 50,
		MaxReward:     1,
		Active:        true,
	}
}

func TestRepositoryCreateAndFindByID(t *testing.T) {
	db := setupClassicTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestBundle("demo.myshopify.com"))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, "demo.myshopify.com", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, found.Name)
	assert.Equal(t, enums.BuyTypeProduct, found.BuyType)

	// Lookups are shop scoped.
	_, err = repo.FindByID(ctx, "other.myshopify.com", created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositorySetDiscountIDAndActive(t *testing.T) {
	db := setupClassicTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestBundle("demo.myshopify.com"))
	require.NoError(t, err)

	require.NoError(t, repo.SetDiscountID(ctx, created.ID, "gid://shopify/DiscountAutomaticApp/5"))
	require.NoError(t, repo.SetActive(ctx, created.ID, false))

	found, err := repo.FindByID(ctx, "demo.myshopify.com", created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.DiscountID)
	assert.Equal(t, "gid://shopify/DiscountAutomaticApp/5", *found.DiscountID)
	assert.False(t, found.Active)
}

func TestRepositoryListActiveFiltersInactive(t *testing.T) {
	db := setupClassicTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	active, err := repo.Create(ctx, newTestBundle("demo.myshopify.com"))
	require.NoError(t, err)

	inactive := newTestBundle("demo.myshopify.com")
	inactive.Active = false
	_, err = repo.Create(ctx, inactive)
	require.NoError(t, err)

	other := newTestBundle("other.myshopify.com")
	_, err = repo.Create(ctx, other)
	require.NoError(t, err)

	bundles, err := repo.ListActive(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	assert.Equal(t, active.ID, bundles[0].ID)

	all, err := repo.ListByShop(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepositoryDelete(t *testing.T) {
	db := setupClassicTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestBundle("demo.myshopify.com"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, "demo.myshopify.com", created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
