package volume

import (
	"github.com/angelmondragon/bxgy-bundles-backend/internal/design"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// Metafield keys the storefront widget reads.
const (
	productConfigKey = "volume_config"
	shopAggregateKey = "volume_bundles"
)

type projector struct{}

// productPayload builds the config document written to each trigger product.
// Tiers pass through with their presentation fields intact.
func (projector) productPayload(bundle *models.VolumeBundle) map[string]any {
	payload := map[string]any{
		"bundleName":  bundle.Name,
		"volumeTiers": ParseTiers(bundle.VolumeTiers),
	}
	for k, v := range design.Flatten(enums.BundleFamilyVolume, deref(bundle.DesignConfig)) {
		payload[k] = v
	}
	return payload
}

// aggregateEntries shapes the shop-wide volume_bundles array for collection
// and catalog-wide bundles.
func (projector) aggregateEntries(bundles []models.VolumeBundle) []map[string]any {
	entries := make([]map[string]any, 0, len(bundles))
	for i := range bundles {
		bundle := &bundles[i]
		entry := map[string]any{
			"id":               bundle.ID.String(),
			"name":             bundle.Name,
			"bundleName":       bundle.Name,
			"triggerType":      bundle.TriggerType.String(),
			"triggerReference": bundle.TriggerReference,
			"volumeTiers":      ParseTiers(bundle.VolumeTiers),
		}
		for k, v := range design.Flatten(enums.BundleFamilyVolume, deref(bundle.DesignConfig)) {
			entry[k] = v
		}
		entries = append(entries, entry)
	}
	return entries
}
