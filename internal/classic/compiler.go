package classic

import (
	"github.com/angelmondragon/bxgy-bundles-backend/internal/discount"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// Compile maps a classic bundle onto the function configuration envelope.
// The buy reference lands on buyProductId or buyCollectionIds depending on
// the buy type; the other side stays null.
func Compile(bundle *models.Bundle) discount.Config {
	cfg := discount.Config{
		BuyType:       bundle.BuyType.String(),
		MinQuantity:   bundle.MinQuantity,
		GetProductID:  bundle.GetProductID,
		DiscountType:  bundle.DiscountType.String(),
		DiscountValue: bundle.DiscountValue,
		MaxReward:     bundle.MaxReward,
	}
	switch bundle.BuyType {
	case enums.BuyTypeCollection:
		cfg.BuyCollectionIDs = []string{bundle.BuyReference}
	default:
		cfg.BuyProductID = discount.StringPtr(bundle.BuyReference)
	}
	return cfg
}
