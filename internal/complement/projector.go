package complement

import (
	"context"

	"github.com/angelmondragon/bxgy-bundles-backend/internal/catalog"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/design"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// Metafield keys the storefront widget reads.
const (
	productConfigKey = "complement_config"
	shopAggregateKey = "complement_bundles"
)

type projector struct {
	catalog catalog.Service
}

func newProjector(catalogSvc catalog.Service) *projector {
	return &projector{catalog: catalogSvc}
}

// productPayload builds the config document written to the trigger product.
// Complements are refreshed from the live catalog so the widget renders
// current titles, images, prices and variant ids; entries whose lookup fails
// keep their stored values.
func (p *projector) productPayload(ctx context.Context, shop string, bundle *models.ComplementBundle) map[string]any {
	entries := ParseEntries(bundle.Complements)
	payload := map[string]any{
		"bundleName":         bundle.Name,
		"complements":        p.enrich(ctx, shop, entries),
		"mode":               bundle.Mode.String(),
		"triggerDiscountPct": bundle.TriggerDiscountPct,
	}
	for k, v := range design.Flatten(enums.BundleFamilyComplement, deref(bundle.DesignConfig)) {
		payload[k] = v
	}
	return payload
}

func (p *projector) enrich(ctx context.Context, shop string, entries []Entry) []Entry {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ProductID)
	}
	snapshots := p.catalog.Snapshots(ctx, shop, ids)

	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Quantity == 0 {
			entry.Quantity = 1
		}
		snap := snapshots[entry.ProductID]
		if snap == nil {
			out = append(out, entry)
			continue
		}
		if snap.Title != "" {
			entry.Title = snap.Title
		}
		if snap.Handle != "" {
			entry.Handle = snap.Handle
		}
		if snap.Image != "" {
			entry.Image = snap.Image
		}
		if snap.PriceCents != 0 {
			entry.Price = snap.PriceCents
		}
		entry.VariantID = snap.VariantID
		out = append(out, entry)
	}
	return out
}

// aggregateEntries shapes the shop-wide complement_bundles array for
// collection and catalog-wide bundles from stored fields only; no live
// enrichment on the aggregate path.
func (p *projector) aggregateEntries(bundles []models.ComplementBundle) []map[string]any {
	entries := make([]map[string]any, 0, len(bundles))
	for i := range bundles {
		bundle := &bundles[i]
		entry := map[string]any{
			"id":                 bundle.ID.String(),
			"name":               bundle.Name,
			"triggerType":        bundle.TriggerType.String(),
			"triggerReference":   bundle.TriggerReference,
			"complements":        ParseEntries(bundle.Complements),
			"mode":               bundle.Mode.String(),
			"triggerDiscountPct": bundle.TriggerDiscountPct,
		}
		for k, v := range design.Flatten(enums.BundleFamilyComplement, deref(bundle.DesignConfig)) {
			entry[k] = v
		}
		entries = append(entries, entry)
	}
	return entries
}
