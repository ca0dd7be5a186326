package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// ComplementBundle offers discounted companion products alongside a trigger
// product ("frequently bought together" or grouped combo options).
// Complements holds the raw JSON complement array as entered by the merchant.
type ComplementBundle struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID             string               `gorm:"column:shop_id;not null;index"`
	Name               string               `gorm:"column:name;not null"`
	TriggerType        enums.TriggerType    `gorm:"column:trigger_type;not null;default:product"`
	TriggerReference   *string              `gorm:"column:trigger_reference"`
	Mode               enums.ComplementMode `gorm:"column:mode;not null;default:fbt"`
	TriggerDiscountPct float64              `gorm:"column:trigger_discount_pct;not null;default:0"`
	Complements        string               `gorm:"column:complements;not null;default:'[]'"`
	Active             bool                 `gorm:"column:active;not null;default:true"`
	DiscountID         *string              `gorm:"column:discount_id"`
	DesignConfig       *string              `gorm:"column:design_config"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
