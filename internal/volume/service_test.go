package volume

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bxgy-bundles-backend/pkg/errors"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/logger"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/shopify"
)

type fakeRepo struct {
	bundles []*models.VolumeBundle
}

func (f *fakeRepo) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepo) Create(_ context.Context, bundle *models.VolumeBundle) (*models.VolumeBundle, error) {
	if bundle.ID == uuid.Nil {
		bundle.ID = uuid.New()
	}
	f.bundles = append(f.bundles, bundle)
	return bundle, nil
}

func (f *fakeRepo) Update(_ context.Context, bundle *models.VolumeBundle) error {
	for i, b := range f.bundles {
		if b.ID == bundle.ID {
			f.bundles[i] = bundle
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) SetDiscountID(_ context.Context, id uuid.UUID, discountID string) error {
	for _, b := range f.bundles {
		if b.ID == id {
			b.DiscountID = &discountID
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	for _, b := range f.bundles {
		if b.ID == id {
			b.Active = active
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, b := range f.bundles {
		if b.ID == id {
			f.bundles = append(f.bundles[:i], f.bundles[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByID(_ context.Context, shopID string, id uuid.UUID) (*models.VolumeBundle, error) {
	for _, b := range f.bundles {
		if b.ID == id && b.ShopID == shopID {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListByShop(_ context.Context, shopID string) ([]models.VolumeBundle, error) {
	var out []models.VolumeBundle
	for _, b := range f.bundles {
		if b.ShopID == shopID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAggregate(_ context.Context, shopID string) ([]models.VolumeBundle, error) {
	var out []models.VolumeBundle
	for _, b := range f.bundles {
		if b.ShopID == shopID && b.Active && b.TriggerType != enums.TriggerTypeProduct {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeAdmin struct {
	createErr          error
	collectionProducts []string
	createdDiscounts   []shopify.DiscountInput
	updatedTitles      []string
	pushedConfigs      []string
	deletedDiscounts   []string
	metafields         map[string]string
	deletedMetafields  []string
}

func newFakeAdmin() *fakeAdmin {
	return &fakeAdmin{metafields: make(map[string]string)}
}

func (f *fakeAdmin) DiscountFunctionID(context.Context, string) (string, error) {
	return "fn-1", nil
}

func (f *fakeAdmin) CreateDiscount(_ context.Context, _ string, input shopify.DiscountInput) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.createdDiscounts = append(f.createdDiscounts, input)
	return "gid://shopify/DiscountAutomaticApp/1", nil
}

func (f *fakeAdmin) UpdateDiscountTitle(_ context.Context, _, _, title string) error {
	f.updatedTitles = append(f.updatedTitles, title)
	return nil
}

func (f *fakeAdmin) SetDiscountConfig(_ context.Context, _, _, configJSON string) error {
	f.pushedConfigs = append(f.pushedConfigs, configJSON)
	return nil
}

func (f *fakeAdmin) SetDiscountDates(context.Context, string, string, *time.Time, *time.Time) error {
	return nil
}

func (f *fakeAdmin) DeleteDiscount(_ context.Context, _, discountGID string) error {
	f.deletedDiscounts = append(f.deletedDiscounts, discountGID)
	return nil
}

func (f *fakeAdmin) SetMetafield(_ context.Context, _, ownerGID, namespace, key, valueJSON string) error {
	f.metafields[ownerGID+"|"+namespace+"|"+key] = valueJSON
	return nil
}

func (f *fakeAdmin) DeleteProductMetafield(_ context.Context, _, productGID, namespace, key string) error {
	delete(f.metafields, productGID+"|"+namespace+"|"+key)
	f.deletedMetafields = append(f.deletedMetafields, productGID)
	return nil
}

func (f *fakeAdmin) ShopGID(context.Context, string) (string, error) {
	return "gid://shopify/Shop/1", nil
}

func (f *fakeAdmin) CollectionProductIDs(context.Context, string, string) ([]string, error) {
	return f.collectionProducts, nil
}

func newTestService(t *testing.T, repo *fakeRepo, admin *fakeAdmin) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(repo, admin, logg, nil)
	require.NoError(t, err)
	return svc
}

func volumeInput() BundleInput {
	return BundleInput{
		Name:        "Stock Up",
		TriggerType: "product",
		ProductIDs:  []string{"gid://shopify/Product/1"},
		Tiers: []TierInput{
			{Label: "Single", Qty: 1, DiscountPct: 0},
			{Label: "Duo", Qty: 2, DiscountPct: 15, Popular: true},
			{Label: "Trio", Qty: 3, DiscountPct: 25, Popular: true},
		},
	}
}

func TestVolumeCreateWritesBreaksAndProductConfig(t *testing.T) {
	repo := &fakeRepo{}
	admin := newFakeAdmin()
	svc := newTestService(t, repo, admin)

	resp, err := svc.Create(context.Background(), "demo.myshopify.com", volumeInput())
	require.NoError(t, err)
	require.NotNil(t, resp.DiscountID)

	require.Len(t, admin.createdDiscounts, 1)
	var config map[string]any
	require.NoError(t, json.Unmarshal([]byte(admin.createdDiscounts[0].Config), &config))
	assert.Equal(t, "product", config["buyType"])
	assert.Equal(t, "gid://shopify/Product/1", config["buyProductId"])
	assert.Equal(t, float64(0), config["discountValue"])
	assert.Equal(t, float64(0), config["maxReward"])

	raw, ok := admin.metafields["gid://shopify/Product/1|bxgy_bundle|volume_config"]
	require.True(t, ok, "expected volume_config on the trigger product")
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	assert.Equal(t, "Stock Up", payload["bundleName"])
	tiers := payload["volumeTiers"].([]any)
	require.Len(t, tiers, 3)
	// Presentation fields survive projection even when duplicated; the
	// widget resolves which break to highlight.
	second := tiers[1].(map[string]any)
	assert.Equal(t, "Duo", second["label"])
	assert.Equal(t, true, second["popular"])
	third := tiers[2].(map[string]any)
	assert.Equal(t, true, third["popular"])
}

func TestVolumeCreateCollectionStoresResolvedProducts(t *testing.T) {
	repo := &fakeRepo{}
	admin := newFakeAdmin()
	admin.collectionProducts = []string{"gid://shopify/Product/5", "gid://shopify/Product/6"}
	svc := newTestService(t, repo, admin)

	ref := "gid://shopify/Collection/2"
	input := volumeInput()
	input.TriggerType = "collection"
	input.TriggerReference = &ref
	input.ProductIDs = nil

	resp, err := svc.Create(context.Background(), "demo.myshopify.com", input)
	require.NoError(t, err)
	assert.Equal(t, admin.collectionProducts, resp.ProductIDs)

	var config map[string]any
	require.NoError(t, json.Unmarshal([]byte(admin.createdDiscounts[0].Config), &config))
	assert.Equal(t, "product", config["buyType"])
	assert.Equal(t, "gid://shopify/Product/5", config["buyProductId"])

	// Collection triggers publish through the shop aggregate only.
	for key := range admin.metafields {
		assert.NotContains(t, key, "volume_config")
	}
	aggregate := admin.metafields["gid://shopify/Shop/1|bxgy_bundle|volume_bundles"]
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(aggregate), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "collection", entries[0]["triggerType"])
}

func TestVolumeUpdateRewritesProductConfigs(t *testing.T) {
	repo := &fakeRepo{}
	admin := newFakeAdmin()
	svc := newTestService(t, repo, admin)

	created, err := svc.Create(context.Background(), "demo.myshopify.com", volumeInput())
	require.NoError(t, err)

	input := volumeInput()
	input.ProductIDs = []string{"gid://shopify/Product/2"}
	_, err = svc.Update(context.Background(), "demo.myshopify.com", created.ID, input)
	require.NoError(t, err)

	assert.Equal(t, []string{"gid://shopify/Product/1"}, admin.deletedMetafields)
	_, hasNew := admin.metafields["gid://shopify/Product/2|bxgy_bundle|volume_config"]
	assert.True(t, hasNew)
	assert.Equal(t, []string{"Stock Up"}, admin.updatedTitles)
	require.Len(t, admin.pushedConfigs, 1)
}

func TestVolumeToggleInactiveRemovesProductConfigs(t *testing.T) {
	repo := &fakeRepo{}
	admin := newFakeAdmin()
	svc := newTestService(t, repo, admin)

	created, err := svc.Create(context.Background(), "demo.myshopify.com", volumeInput())
	require.NoError(t, err)

	resp, err := svc.Toggle(context.Background(), "demo.myshopify.com", created.ID)
	require.NoError(t, err)
	assert.False(t, resp.Active)

	for key := range admin.metafields {
		assert.NotContains(t, key, "volume_config")
	}
}

func TestVolumeDeleteRemovesDiscountAndConfigs(t *testing.T) {
	repo := &fakeRepo{}
	admin := newFakeAdmin()
	svc := newTestService(t, repo, admin)

	created, err := svc.Create(context.Background(), "demo.myshopify.com", volumeInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "demo.myshopify.com", created.ID))
	assert.Equal(t, []string{"gid://shopify/DiscountAutomaticApp/1"}, admin.deletedDiscounts)
	assert.Equal(t, []string{"gid://shopify/Product/1"}, admin.deletedMetafields)
	assert.Empty(t, repo.bundles)
}

func TestVolumeGetUnknownReturnsNotFound(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, newFakeAdmin())

	_, err := svc.Get(context.Background(), "demo.myshopify.com", uuid.New())
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeNotFound, domainErr.Code())
}
