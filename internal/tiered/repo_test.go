package tiered

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

func setupTieredTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	table := `
CREATE TABLE IF NOT EXISTS tiered_bundles (
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL,
  name TEXT NOT NULL,
  trigger_type TEXT NOT NULL DEFAULT 'product',
  trigger_reference TEXT,
  product_ids TEXT NOT NULL DEFAULT '{}',
  tiers_config TEXT NOT NULL DEFAULT '[]',
  active INTEGER NOT NULL DEFAULT 1,
  discount_id TEXT,
  design_config TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(table).Error)
	require.NoError(t, db.Exec("DELETE FROM tiered_bundles").Error)
	return db
}

func newTestTieredBundle(shop string) *models.TieredBundle {
	return &models.TieredBundle{
		ID:          uuid.New(),
		ShopID:      shop,
		Name:        "Combo Builder",
		TriggerType: enums.TriggerTypeProduct,
		ProductIDs:  pq.StringArray{"gid://shopify/Product/1"},
		TiersConfig: `[{"buyQty":1,"freeQty":1,"discountPct":100}]`,
		Active:      true,
	}
}

func TestTieredRepositoryCreateAndFindByID(t *testing.T) {
	db := setupTieredTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestTieredBundle("demo.myshopify.com"))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, "demo.myshopify.com", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, found.Name)
	assert.Equal(t, []string{"gid://shopify/Product/1"}, []string(found.ProductIDs))

	// Lookups are shop scoped.
	_, err = repo.FindByID(ctx, "other.myshopify.com", created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTieredRepositorySetDiscountIDAndActive(t *testing.T) {
	db := setupTieredTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestTieredBundle("demo.myshopify.com"))
	require.NoError(t, err)

	require.NoError(t, repo.SetDiscountID(ctx, created.ID, "gid://shopify/DiscountAutomaticApp/5"))
	require.NoError(t, repo.SetActive(ctx, created.ID, false))

	found, err := repo.FindByID(ctx, "demo.myshopify.com", created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.DiscountID)
	assert.Equal(t, "gid://shopify/DiscountAutomaticApp/5", *found.DiscountID)
	assert.False(t, found.Active)
}

func TestTieredRepositoryListAggregateSkipsProductTriggers(t *testing.T) {
	db := setupTieredTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	productScoped := newTestTieredBundle("demo.myshopify.com")
	_, err := repo.Create(ctx, productScoped)
	require.NoError(t, err)

	ref := "gid://shopify/Collection/3"
	collectionScoped := newTestTieredBundle("demo.myshopify.com")
	collectionScoped.ID = uuid.New()
	collectionScoped.TriggerType = enums.TriggerTypeCollection
	collectionScoped.TriggerReference = &ref
	_, err = repo.Create(ctx, collectionScoped)
	require.NoError(t, err)

	inactive := newTestTieredBundle("demo.myshopify.com")
	inactive.ID = uuid.New()
	inactive.TriggerType = enums.TriggerTypeAll
	inactive.Active = false
	_, err = repo.Create(ctx, inactive)
	require.NoError(t, err)

	aggregate, err := repo.ListAggregate(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	require.Len(t, aggregate, 1)
	assert.Equal(t, collectionScoped.ID, aggregate[0].ID)

	all, err := repo.ListByShop(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTieredRepositoryDelete(t *testing.T) {
	db := setupTieredTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestTieredBundle("demo.myshopify.com"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, "demo.myshopify.com", created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
