package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// Bundle is a classic Buy X Get Y rule: buy minQuantity of the trigger,
// get the reward product discounted.
type Bundle struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID        string             `gorm:"column:shop_id;not null;index"`
	Name          string             `gorm:"column:name;not null"`
	BuyType       enums.BuyType      `gorm:"column:buy_type;not null"`
	BuyReference  string             `gorm:"column:buy_reference;not null"`
	MinQuantity   int                `gorm:"column:min_quantity;not null;default:1"`
	GetProductID  string             `gorm:"column:get_product_id;not null"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue float64            `gorm:"column:discount_value;not null"`
	MaxReward     int                `gorm:"column:max_reward;not null;default:1"`
	Active        bool               `gorm:"column:active;not null;default:true"`
	DiscountID    *string            `gorm:"column:discount_id"`
	DesignConfig  *string            `gorm:"column:design_config"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
