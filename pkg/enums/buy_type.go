package enums

import "fmt"

// BuyType describes what a classic bundle's buy condition references.
type BuyType string

const (
	BuyTypeProduct    BuyType = "product"
	BuyTypeCollection BuyType = "collection"
)

var validBuyTypes = []BuyType{
	BuyTypeProduct,
	BuyTypeCollection,
}

// String implements fmt.Stringer.
func (b BuyType) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BuyType.
func (b BuyType) IsValid() bool {
	for _, candidate := range validBuyTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBuyType converts raw input into a BuyType.
func ParseBuyType(value string) (BuyType, error) {
	for _, candidate := range validBuyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid buy type %q", value)
}
