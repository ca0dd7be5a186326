package volume

import (
	"github.com/angelmondragon/bxgy-bundles-backend/internal/discount"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// Compile translates a volume bundle into its function configuration. The
// stored product ids already reflect the resolved set for collection
// triggers, so compilation reads the row as-is. The base discount fields
// stay zeroed; the function prices entirely from the quantity breaks, and
// presentation-only tier fields never reach the wire.
func Compile(bundle *models.VolumeBundle) discount.VolumeConfig {
	products := []string(bundle.ProductIDs)
	if products == nil {
		products = []string{}
	}

	buyType := "product"
	if bundle.TriggerType == enums.TriggerTypeAll {
		buyType = "all"
	}
	first := ""
	if len(products) > 0 {
		first = products[0]
	}

	tiers := ParseTiers(bundle.VolumeTiers)
	breaks := make([]discount.VolumeTier, 0, len(tiers))
	for _, tier := range tiers {
		breaks = append(breaks, discount.VolumeTier{
			Qty:         tier.Qty,
			DiscountPct: tier.DiscountPct,
		})
	}

	return discount.VolumeConfig{
		Config: discount.Config{
			BuyType:      buyType,
			BuyProductID: discount.StringPtr(first),
			MinQuantity:  1,
			GetProductID: first,
			DiscountType: enums.DiscountTypePercentage.String(),
		},
		BuyProductIDs: products,
		GetProductIDs: products,
		VolumeTiers:   breaks,
	}
}
