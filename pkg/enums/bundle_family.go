package enums

import "fmt"

// BundleFamily names the four bundle variants the app manages. It is used
// for metric labels and metafield key selection.
type BundleFamily string

const (
	BundleFamilyClassic    BundleFamily = "classic"
	BundleFamilyTiered     BundleFamily = "tiered"
	BundleFamilyVolume     BundleFamily = "volume"
	BundleFamilyComplement BundleFamily = "complement"
)

var validBundleFamilies = []BundleFamily{
	BundleFamilyClassic,
	BundleFamilyTiered,
	BundleFamilyVolume,
	BundleFamilyComplement,
}

// String implements fmt.Stringer.
func (f BundleFamily) String() string {
	return string(f)
}

// IsValid reports whether the value is a known BundleFamily.
func (f BundleFamily) IsValid() bool {
	for _, candidate := range validBundleFamilies {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseBundleFamily converts raw input into a BundleFamily.
func ParseBundleFamily(value string) (BundleFamily, error) {
	for _, candidate := range validBundleFamilies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bundle family %q", value)
}
