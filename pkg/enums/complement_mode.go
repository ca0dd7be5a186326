package enums

import "fmt"

// ComplementMode distinguishes "frequently bought together" offers from
// grouped combo options.
type ComplementMode string

const (
	ComplementModeFBT   ComplementMode = "fbt"
	ComplementModeCombo ComplementMode = "combo"
)

var validComplementModes = []ComplementMode{
	ComplementModeFBT,
	ComplementModeCombo,
}

// String implements fmt.Stringer.
func (m ComplementMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known ComplementMode.
func (m ComplementMode) IsValid() bool {
	for _, candidate := range validComplementModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseComplementMode converts raw input into a ComplementMode.
func ParseComplementMode(value string) (ComplementMode, error) {
	for _, candidate := range validComplementModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid complement mode %q", value)
}
