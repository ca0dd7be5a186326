// Package discount defines the function configuration envelopes the deployed
// checkout function evaluates. Every family serializes the shared base plus
// its own extension keys; compilers must keep zero values explicit because
// the evaluator distinguishes 0 from absent.
package discount

import "encoding/json"

// Complement bundles publish an unsatisfiable buy condition so the function
// never grants the base reward; complement pricing happens client-side.
const (
	SentinelMinQuantity  = 999999
	SentinelGetProductID = "gid://shopify/Product/0"
)

// Config is the base envelope shared by every family.
type Config struct {
	BuyType          string   `json:"buyType"`
	BuyProductID     *string  `json:"buyProductId"`
	BuyCollectionIDs []string `json:"buyCollectionIds"`
	MinQuantity      int      `json:"minQuantity"`
	GetProductID     string   `json:"getProductId"`
	DiscountType     string   `json:"discountType"`
	DiscountValue    float64  `json:"discountValue"`
	MaxReward        int      `json:"maxReward"`
}

// Tier maps a buy-quantity threshold onto its free-quantity reward.
type Tier struct {
	MinQuantity   int     `json:"minQuantity"`
	MaxReward     int     `json:"maxReward"`
	DiscountValue float64 `json:"discountValue"`
}

// TieredConfig extends the base with the per-threshold ladder.
type TieredConfig struct {
	Config
	BuyProductIDs []string `json:"buyProductIds"`
	GetProductIDs []string `json:"getProductIds"`
	Tiers         []Tier   `json:"tiers"`
}

// VolumeTier is a quantity break.
type VolumeTier struct {
	Qty         int     `json:"qty"`
	DiscountPct float64 `json:"discountPct"`
}

// VolumeConfig extends the base with quantity breaks. The base discount
// fields stay zeroed; the function prices entirely from volumeTiers.
type VolumeConfig struct {
	Config
	BuyProductIDs []string     `json:"buyProductIds"`
	GetProductIDs []string     `json:"getProductIds"`
	VolumeTiers   []VolumeTier `json:"volumeTiers"`
}

// ComplementProduct is one discounted add-on.
type ComplementProduct struct {
	ProductID   string  `json:"productId"`
	DiscountPct float64 `json:"discountPct"`
	Quantity    int     `json:"quantity"`
}

// ComplementConfig extends the base with the add-on list and trigger info.
type ComplementConfig struct {
	Config
	ComplementProducts []ComplementProduct `json:"complementProducts"`
	TriggerProductID   *string             `json:"triggerProductId"`
	Mode               string              `json:"mode"`
	TriggerDiscountPct float64             `json:"triggerDiscountPct"`
}

// Encode serializes an envelope for the function configuration metafield.
func Encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// StringPtr returns a pointer to s for nullable envelope fields.
func StringPtr(s string) *string {
	return &s
}
