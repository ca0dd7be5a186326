package tiered

import (
	"github.com/angelmondragon/bxgy-bundles-backend/internal/discount"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// Compile translates a tiered bundle into its function configuration.
// resolved carries the product set the discount applies to; for product
// triggers it equals the stored product ids, for collection and all triggers
// the caller resolves it from the live catalog. Compilation never errors:
// missing tiers collapse to permissive defaults.
func Compile(bundle *models.TieredBundle, resolved []string) discount.TieredConfig {
	tiers := ParseTiers(bundle.TiersConfig)
	stored := []string(bundle.ProductIDs)

	applied := resolved
	if bundle.TriggerType == enums.TriggerTypeProduct {
		applied = stored
	}
	if applied == nil {
		applied = []string{}
	}

	minQuantity := 1
	discountValue := float64(100)
	if len(tiers) > 0 {
		if tiers[0].BuyQty != 0 {
			minQuantity = tiers[0].BuyQty
		}
		if tiers[0].DiscountPct != 0 {
			discountValue = tiers[0].DiscountPct
		}
	}
	maxReward := 0
	compiled := make([]discount.Tier, 0, len(tiers))
	for _, tier := range tiers {
		if tier.FreeQty > maxReward {
			maxReward = tier.FreeQty
		}
		compiled = append(compiled, discount.Tier{
			MinQuantity:   tier.BuyQty,
			MaxReward:     tier.FreeQty,
			DiscountValue: tier.DiscountPct,
		})
	}

	config := discount.TieredConfig{
		Config: discount.Config{
			BuyType:       bundle.TriggerType.String(),
			MinQuantity:   minQuantity,
			GetProductID:  discount.SentinelGetProductID,
			DiscountType:  enums.DiscountTypePercentage.String(),
			DiscountValue: discountValue,
			MaxReward:     maxReward,
		},
		BuyProductIDs: applied,
		GetProductIDs: applied,
		Tiers:         compiled,
	}
	if len(stored) > 0 {
		config.BuyProductID = discount.StringPtr(stored[0])
		config.GetProductID = stored[0]
	}
	if bundle.TriggerType == enums.TriggerTypeCollection && bundle.TriggerReference != nil {
		config.BuyCollectionIDs = []string{*bundle.TriggerReference}
	}
	return config
}
