package volume

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

func setupVolumeTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	table := `
CREATE TABLE IF NOT EXISTS volume_bundles (
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL,
  name TEXT NOT NULL,
  trigger_type TEXT NOT NULL DEFAULT 'product',
  trigger_reference TEXT,
  product_ids TEXT NOT NULL DEFAULT '{}',
  volume_tiers TEXT NOT NULL DEFAULT '[]',
  active INTEGER NOT NULL DEFAULT 1,
  discount_id TEXT,
  design_config TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(table).Error)
	require.NoError(t, db.Exec("DELETE FROM volume_bundles").Error)
	return db
}

func newTestVolumeBundle(shop string) *models.VolumeBundle {
	return &models.VolumeBundle{
		ID:          uuid.New(),
		ShopID:      shop,
		Name:        "Stock Up",
		TriggerType: enums.TriggerTypeProduct,
		ProductIDs:  pq.StringArray{"gid://shopify/Product/1"},
		VolumeTiers: `[{"label":"Duo","qty":2,"discountPct":15,"popular":true}]`,
		Active:      true,
	}
}

func TestVolumeRepositoryCreateAndFindByID(t *testing.T) {
	db := setupVolumeTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestVolumeBundle("demo.myshopify.com"))
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, "demo.myshopify.com", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, found.Name)
	assert.Equal(t, []string{"gid://shopify/Product/1"}, []string(found.ProductIDs))

	// Lookups are shop scoped.
	_, err = repo.FindByID(ctx, "other.myshopify.com", created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestVolumeRepositoryListAggregateSkipsProductTriggers(t *testing.T) {
	db := setupVolumeTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, newTestVolumeBundle("demo.myshopify.com"))
	require.NoError(t, err)

	catalogWide := newTestVolumeBundle("demo.myshopify.com")
	catalogWide.ID = uuid.New()
	catalogWide.TriggerType = enums.TriggerTypeAll
	catalogWide.ProductIDs = pq.StringArray{}
	_, err = repo.Create(ctx, catalogWide)
	require.NoError(t, err)

	aggregate, err := repo.ListAggregate(ctx, "demo.myshopify.com")
	require.NoError(t, err)
	require.Len(t, aggregate, 1)
	assert.Equal(t, catalogWide.ID, aggregate[0].ID)
}

func TestVolumeRepositoryDelete(t *testing.T) {
	db := setupVolumeTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newTestVolumeBundle("demo.myshopify.com"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.FindByID(ctx, "demo.myshopify.com", created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
