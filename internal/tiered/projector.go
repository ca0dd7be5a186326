package tiered

import (
	"github.com/angelmondragon/bxgy-bundles-backend/internal/design"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// Metafield keys the storefront widget reads.
const (
	productConfigKey = "tiered_config"
	shopAggregateKey = "tiered_bundles"
)

type projector struct{}

// productPayload builds the config document written to each trigger product.
func (projector) productPayload(bundle *models.TieredBundle) map[string]any {
	payload := map[string]any{
		"id":         bundle.ID.String(),
		"bundleName": bundle.Name,
		"tiers":      ParseTiers(bundle.TiersConfig),
	}
	for k, v := range design.Flatten(enums.BundleFamilyTiered, deref(bundle.DesignConfig)) {
		payload[k] = v
	}
	return payload
}

// aggregateEntries shapes the shop-wide tiered_bundles array for collection
// and catalog-wide bundles.
func (projector) aggregateEntries(bundles []models.TieredBundle) []map[string]any {
	entries := make([]map[string]any, 0, len(bundles))
	for i := range bundles {
		bundle := &bundles[i]
		entry := map[string]any{
			"id":               bundle.ID.String(),
			"name":             bundle.Name,
			"bundleName":       bundle.Name,
			"triggerType":      bundle.TriggerType.String(),
			"triggerReference": bundle.TriggerReference,
			"tiers":            ParseTiers(bundle.TiersConfig),
		}
		for k, v := range design.Flatten(enums.BundleFamilyTiered, deref(bundle.DesignConfig)) {
			entry[k] = v
		}
		entries = append(entries, entry)
	}
	return entries
}
