package tiered

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bxgy-bundles-backend/internal/design"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// TierEntry is the stored and projected tier shape: buy buyQty units, get
// freeQty units at discountPct off.
type TierEntry struct {
	BuyQty      int     `json:"buyQty"`
	FreeQty     int     `json:"freeQty"`
	DiscountPct float64 `json:"discountPct"`
}

// ParseTiers decodes a stored tier blob. Malformed input degrades to an
// empty ladder rather than an error.
func ParseTiers(raw string) []TierEntry {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []TierEntry{}
	}
	var tiers []TierEntry
	if err := json.Unmarshal([]byte(raw), &tiers); err != nil || tiers == nil {
		return []TierEntry{}
	}
	return tiers
}

// TierInput is one ladder step in the create/update payload.
type TierInput struct {
	BuyQty      int     `json:"buy_qty" validate:"required,min=1"`
	FreeQty     int     `json:"free_qty" validate:"required,min=1"`
	DiscountPct float64 `json:"discount_pct" validate:"required,gt=0,lte=100"`
}

// BundleInput is the create/update payload for a tiered bundle.
type BundleInput struct {
	Name             string      `json:"name" validate:"required,max=255"`
	TriggerType      string      `json:"trigger_type" validate:"required,oneof=product collection all"`
	TriggerReference *string     `json:"trigger_reference"`
	ProductIDs       []string    `json:"product_ids"`
	Tiers            []TierInput `json:"tiers" validate:"required,min=1,dive"`
	DesignConfig     *string     `json:"design_config"`
}

// BundleResponse is the API view of a tiered bundle.
type BundleResponse struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	TriggerType      string         `json:"trigger_type"`
	TriggerReference *string        `json:"trigger_reference"`
	ProductIDs       []string       `json:"product_ids"`
	Tiers            []TierInput    `json:"tiers"`
	Active           bool           `json:"active"`
	DiscountID       *string        `json:"discount_id"`
	Design           map[string]any `json:"design"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func toResponse(bundle *models.TieredBundle) *BundleResponse {
	tiers := ParseTiers(bundle.TiersConfig)
	inputTiers := make([]TierInput, 0, len(tiers))
	for _, tier := range tiers {
		inputTiers = append(inputTiers, TierInput{
			BuyQty:      tier.BuyQty,
			FreeQty:     tier.FreeQty,
			DiscountPct: tier.DiscountPct,
		})
	}
	return &BundleResponse{
		ID:               bundle.ID,
		Name:             bundle.Name,
		TriggerType:      bundle.TriggerType.String(),
		TriggerReference: bundle.TriggerReference,
		ProductIDs:       append([]string{}, bundle.ProductIDs...),
		Tiers:            inputTiers,
		Active:           bundle.Active,
		DiscountID:       bundle.DiscountID,
		Design:           design.Merge(enums.BundleFamilyTiered, deref(bundle.DesignConfig)),
		CreatedAt:        bundle.CreatedAt,
		UpdatedAt:        bundle.UpdatedAt,
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
