package complement

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bxgy-bundles-backend/internal/design"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// Entry is the stored and projected complement shape. Price is in cents;
// VariantID is the numeric variant id the cart mutation needs. Group buckets
// combo-mode options; FBT bundles leave every entry in group 0.
type Entry struct {
	ProductID   string  `json:"productId"`
	Title       string  `json:"title"`
	Handle      string  `json:"handle"`
	Image       string  `json:"image"`
	Price       int64   `json:"price"`
	VariantID   string  `json:"variantId"`
	DiscountPct float64 `json:"discountPct"`
	Quantity    int     `json:"quantity"`
	Group       int     `json:"group"`
}

// ParseEntries decodes a stored complement blob. Malformed input degrades to
// an empty list rather than an error.
func ParseEntries(raw string) []Entry {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []Entry{}
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil || entries == nil {
		return []Entry{}
	}
	return entries
}

// EntryInput is one complement in the create/update payload.
type EntryInput struct {
	ProductID   string  `json:"product_id" validate:"required"`
	Title       string  `json:"title"`
	Handle      string  `json:"handle"`
	Image       string  `json:"image"`
	Price       int64   `json:"price" validate:"min=0"`
	VariantID   string  `json:"variant_id"`
	DiscountPct float64 `json:"discount_pct" validate:"min=0,lte=100"`
	Quantity    int     `json:"quantity" validate:"min=0"`
	Group       int     `json:"group" validate:"min=0"`
}

// BundleInput is the create/update payload for a complement bundle.
type BundleInput struct {
	Name               string       `json:"name" validate:"required,max=255"`
	TriggerType        string       `json:"trigger_type" validate:"required,oneof=product collection all"`
	TriggerReference   *string      `json:"trigger_reference"`
	Mode               string       `json:"mode" validate:"required,oneof=fbt combo"`
	TriggerDiscountPct float64      `json:"trigger_discount_pct" validate:"min=0,lte=100"`
	Complements        []EntryInput `json:"complements" validate:"required,min=1,dive"`
	DesignConfig       *string      `json:"design_config"`
}

// BundleResponse is the API view of a complement bundle.
type BundleResponse struct {
	ID                 uuid.UUID      `json:"id"`
	Name               string         `json:"name"`
	TriggerType        string         `json:"trigger_type"`
	TriggerReference   *string        `json:"trigger_reference"`
	Mode               string         `json:"mode"`
	TriggerDiscountPct float64        `json:"trigger_discount_pct"`
	Complements        []EntryInput   `json:"complements"`
	Active             bool           `json:"active"`
	DiscountID         *string        `json:"discount_id"`
	Design             map[string]any `json:"design"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func toEntryInputs(entries []Entry) []EntryInput {
	inputs := make([]EntryInput, 0, len(entries))
	for _, entry := range entries {
		inputs = append(inputs, EntryInput{
			ProductID:   entry.ProductID,
			Title:       entry.Title,
			Handle:      entry.Handle,
			Image:       entry.Image,
			Price:       entry.Price,
			VariantID:   entry.VariantID,
			DiscountPct: entry.DiscountPct,
			Quantity:    entry.Quantity,
			Group:       entry.Group,
		})
	}
	return inputs
}

func toResponse(bundle *models.ComplementBundle) *BundleResponse {
	inputs := toEntryInputs(ParseEntries(bundle.Complements))
	return &BundleResponse{
		ID:                 bundle.ID,
		Name:               bundle.Name,
		TriggerType:        bundle.TriggerType.String(),
		TriggerReference:   bundle.TriggerReference,
		Mode:               bundle.Mode.String(),
		TriggerDiscountPct: bundle.TriggerDiscountPct,
		Complements:        inputs,
		Active:             bundle.Active,
		DiscountID:         bundle.DiscountID,
		Design:             design.Merge(enums.BundleFamilyComplement, deref(bundle.DesignConfig)),
		CreatedAt:          bundle.CreatedAt,
		UpdatedAt:          bundle.UpdatedAt,
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
