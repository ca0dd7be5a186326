package enums

import "fmt"

// TriggerType scopes a bundle to specific products, a collection, or the
// whole catalog.
type TriggerType string

const (
	TriggerTypeProduct    TriggerType = "product"
	TriggerTypeCollection TriggerType = "collection"
	TriggerTypeAll        TriggerType = "all"
)

var validTriggerTypes = []TriggerType{
	TriggerTypeProduct,
	TriggerTypeCollection,
	TriggerTypeAll,
}

// String implements fmt.Stringer.
func (t TriggerType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TriggerType.
func (t TriggerType) IsValid() bool {
	for _, candidate := range validTriggerTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTriggerType converts raw input into a TriggerType.
func ParseTriggerType(value string) (TriggerType, error) {
	for _, candidate := range validTriggerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trigger type %q", value)
}
