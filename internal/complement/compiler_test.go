package complement

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bxgy-bundles-backend/internal/discount"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

func TestCompileSentinelsNeverMatchRealCarts(t *testing.T) {
	ref := "gid://shopify/Product/1"
	bundle := &models.ComplementBundle{
		Name:             "Often Bought Together",
		TriggerType:      enums.TriggerTypeProduct,
		TriggerReference: &ref,
		Mode:             enums.ComplementModeFBT,
		Complements:      `[{"productId":"gid://shopify/Product/2","discountPct":10,"quantity":2},{"productId":"gid://shopify/Product/3","discountPct":5}]`,
	}

	config := Compile(bundle)

	assert.Equal(t, 999999, config.MinQuantity)
	assert.Equal(t, "gid://shopify/Product/0", config.GetProductID)
	assert.Nil(t, config.BuyProductID)
	assert.Equal(t, float64(0), config.DiscountValue)
	assert.Equal(t, 0, config.MaxReward)

	require.Len(t, config.ComplementProducts, 2)
	assert.Equal(t, discount.ComplementProduct{ProductID: "gid://shopify/Product/2", DiscountPct: 10, Quantity: 2}, config.ComplementProducts[0])
	// Missing quantity defaults to one unit.
	assert.Equal(t, 1, config.ComplementProducts[1].Quantity)

	require.NotNil(t, config.TriggerProductID)
	assert.Equal(t, ref, *config.TriggerProductID)
	assert.Equal(t, "fbt", config.Mode)
}

func TestCompileNonProductTriggerHasNullTrigger(t *testing.T) {
	ref := "gid://shopify/Collection/4"
	bundle := &models.ComplementBundle{
		TriggerType:        enums.TriggerTypeCollection,
		TriggerReference:   &ref,
		Mode:               enums.ComplementModeCombo,
		TriggerDiscountPct: 15,
		Complements:        `[]`,
	}

	encoded, err := discount.Encode(Compile(bundle))
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal([]byte(encoded), &wire))
	assert.Contains(t, wire, "triggerProductId")
	assert.Nil(t, wire["triggerProductId"])
	assert.Equal(t, "combo", wire["mode"])
	assert.Equal(t, float64(15), wire["triggerDiscountPct"])
	// Empty complements serialize as an array, not null.
	assert.Equal(t, []any{}, wire["complementProducts"])
	assert.Equal(t, "product", wire["buyType"])
	assert.Nil(t, wire["buyProductId"])
}

func TestCompileMalformedComplementsDegrades(t *testing.T) {
	bundle := &models.ComplementBundle{
		TriggerType: enums.TriggerTypeAll,
		Mode:        enums.ComplementModeFBT,
		Complements: "{broken",
	}

	config := Compile(bundle)
	assert.Empty(t, config.ComplementProducts)
	assert.NotNil(t, config.ComplementProducts)
}
