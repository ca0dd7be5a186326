package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// VolumeBundle discounts a single product at quantity break points.
// VolumeTiers holds the raw JSON tier array as entered by the merchant.
type VolumeBundle struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID           string            `gorm:"column:shop_id;not null;index"`
	Name             string            `gorm:"column:name;not null"`
	TriggerType      enums.TriggerType `gorm:"column:trigger_type;not null;default:product"`
	TriggerReference *string           `gorm:"column:trigger_reference"`
	ProductIDs       pq.StringArray    `gorm:"column:product_ids;type:text[];not null;default:ARRAY[]::text[]"`
	VolumeTiers      string            `gorm:"column:volume_tiers;not null;default:'[]'"`
	Active           bool              `gorm:"column:active;not null;default:true"`
	DiscountID       *string           `gorm:"column:discount_id"`
	DesignConfig     *string           `gorm:"column:design_config"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
