package complement

import (
	"github.com/angelmondragon/bxgy-bundles-backend/internal/discount"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// Compile translates a complement bundle into its function configuration.
// The base buy condition uses sentinel values no cart can satisfy, so the
// shared reward path never fires; the function evaluates complementProducts
// and the trigger fields exclusively.
func Compile(bundle *models.ComplementBundle) discount.ComplementConfig {
	entries := ParseEntries(bundle.Complements)
	products := make([]discount.ComplementProduct, 0, len(entries))
	for _, entry := range entries {
		quantity := entry.Quantity
		if quantity == 0 {
			quantity = 1
		}
		products = append(products, discount.ComplementProduct{
			ProductID:   entry.ProductID,
			DiscountPct: entry.DiscountPct,
			Quantity:    quantity,
		})
	}

	config := discount.ComplementConfig{
		Config: discount.Config{
			BuyType:      enums.TriggerTypeProduct.String(),
			MinQuantity:  discount.SentinelMinQuantity,
			GetProductID: discount.SentinelGetProductID,
			DiscountType: enums.DiscountTypePercentage.String(),
		},
		ComplementProducts: products,
		Mode:               bundle.Mode.String(),
		TriggerDiscountPct: bundle.TriggerDiscountPct,
	}
	if bundle.TriggerType == enums.TriggerTypeProduct && bundle.TriggerReference != nil {
		config.TriggerProductID = bundle.TriggerReference
	}
	return config
}
