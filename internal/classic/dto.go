package classic

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bxgy-bundles-backend/internal/catalog"
	"github.com/angelmondragon/bxgy-bundles-backend/internal/design"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/db/models"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// BundleInput is the create/update payload for a classic bundle.
type BundleInput struct {
	Name          string  `json:"name" validate:"required,max=255"`
	BuyType       string  `json:"buy_type" validate:"required,oneof=product collection"`
	BuyReference  string  `json:"buy_reference" validate:"required"`
	MinQuantity   int     `json:"min_quantity" validate:"required,min=1"`
	GetProductID  string  `json:"get_product_id" validate:"required"`
	DiscountType  string  `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue float64 `json:"discount_value" validate:"required,gt=0"`
	MaxReward     int     `json:"max_reward" validate:"required,min=1"`
	DesignConfig  *string `json:"design_config"`
}

// BundleResponse is the API view of a classic bundle. Design always carries
// the effective (default-merged) design record.
type BundleResponse struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	BuyType       string         `json:"buy_type"`
	BuyReference  string         `json:"buy_reference"`
	MinQuantity   int            `json:"min_quantity"`
	GetProductID  string         `json:"get_product_id"`
	DiscountType  string         `json:"discount_type"`
	DiscountValue float64        `json:"discount_value"`
	MaxReward     int            `json:"max_reward"`
	Active        bool           `json:"active"`
	DiscountID    *string        `json:"discount_id"`
	Design        map[string]any `json:"design"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	// Products carries live snapshots of the referenced products, keyed by
	// gid. Populated on detail reads only.
	Products map[string]*catalog.Snapshot `json:"products,omitempty"`
}

func toResponse(bundle *models.Bundle) *BundleResponse {
	return &BundleResponse{
		ID:            bundle.ID,
		Name:          bundle.Name,
		BuyType:       bundle.BuyType.String(),
		BuyReference:  bundle.BuyReference,
		MinQuantity:   bundle.MinQuantity,
		GetProductID:  bundle.GetProductID,
		DiscountType:  bundle.DiscountType.String(),
		DiscountValue: bundle.DiscountValue,
		MaxReward:     bundle.MaxReward,
		Active:        bundle.Active,
		DiscountID:    bundle.DiscountID,
		Design:        design.Merge(enums.BundleFamilyClassic, deref(bundle.DesignConfig)),
		CreatedAt:     bundle.CreatedAt,
		UpdatedAt:     bundle.UpdatedAt,
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
