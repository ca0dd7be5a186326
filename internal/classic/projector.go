package classic

import (
	"context"

	"github.com/angelmondragon/bxgy-bundles-backend/internal/catalog"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/design"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// Metafield keys the storefront widget reads.
const (
	productConfigKey = "config"
	shopAggregateKey = "active_bundles"
)

type projector struct {
	catalog catalog.Service
}

func newProjector(catalogSvc catalog.Service) *projector {
	return &projector{catalog: catalogSvc}
}

// productPayload builds the config document written to the buy product,
// enriched with live buy/reward product data when available.
func (p *projector) productPayload(ctx context.Context, shop string, bundle *models.Bundle) map[string]any {
	payload := map[string]any{
		"id":              bundle.ID.String(),
		"bundleName":      bundle.Name,
		"buyProductId":    bundle.BuyReference,
		"minQuantity":     bundle.MinQuantity,
		"rewardProductId": bundle.GetProductID,
		"discountType":    bundle.DiscountType.String(),
		"discountValue":   bundle.DiscountValue,
		"maxReward":       bundle.MaxReward,
	}

	snapshots := p.catalog.Snapshots(ctx, shop, []string{bundle.BuyReference, bundle.GetProductID})
	if snap := snapshots[bundle.BuyReference]; snap != nil {
		payload["buyProductTitle"] = snap.Title
		payload["buyProductImage"] = snap.Image
		payload["buyProductPrice"] = snap.PriceCents
		payload["buyVariantId"] = snap.VariantID
	}
	if snap := snapshots[bundle.GetProductID]; snap != nil {
		payload["rewardProductTitle"] = snap.Title
		payload["rewardProductImage"] = snap.Image
		payload["rewardProductPrice"] = snap.PriceCents
		payload["rewardVariantId"] = snap.VariantID
	}

	for k, v := range design.Flatten(enums.BundleFamilyClassic, deref(bundle.DesignConfig)) {
		payload[k] = v
	}
	return payload
}

// aggregateEntries shapes the shop-wide active_bundles array from stored
// fields only; no live enrichment on the aggregate path.
func (p *projector) aggregateEntries(bundles []models.Bundle) []map[string]any {
	entries := make([]map[string]any, 0, len(bundles))
	for i := range bundles {
		bundle := &bundles[i]
		entry := map[string]any{
			"id":            bundle.ID.String(),
			"name":          bundle.Name,
			"bundleName":    bundle.Name,
			"buyType":       bundle.BuyType.String(),
			"buyReference":  bundle.BuyReference,
			"minQuantity":   bundle.MinQuantity,
			"getProductId":  bundle.GetProductID,
			"discountType":  bundle.DiscountType.String(),
			"discountValue": bundle.DiscountValue,
			"maxReward":     bundle.MaxReward,
		}
		for k, v := range design.Flatten(enums.BundleFamilyClassic, deref(bundle.DesignConfig)) {
			entry[k] = v
		}
		entries = append(entries, entry)
	}
	return entries
}
