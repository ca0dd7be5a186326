package design

import (
	"encoding/json"
	"strings"

	"github.com/angelmondragon/bxgy-bundles-backend/pkg/enums"
)

// Per-family editor defaults. The storefront widgets ship with these values
// until a merchant overrides them in the design editor.
var classicDefaults = map[string]any{
	"accentColor":      "#e85d04",
	"backgroundColor":  "#fff8f0",
	"borderColor":      "#e85d04",
	"textColor":        "#1a1a1a",
	"buttonColor":      "#e85d04",
	"buttonTextColor":  "#ffffff",
	"borderRadius":     float64(12),
	"imageSizePx":      float64(120),
	"fontSizePx":       float64(14),
	"buttonFontSizePx": float64(16),
	"badgeText":        "Bundle Deal",
}

var tieredDefaults = map[string]any{
	"accentColor":     "#8cb600",
	"backgroundColor": "#fafff0",
	"textColor":       "#1a1a1a",
	"buttonColor":     "#8cb600",
	"buttonTextColor": "#ffffff",
	"borderRadius":    float64(12),
	"headerText":      "BUILD YOUR COMBO & SAVE",
	"giftText":        "+ FREE special gift!",
	"cardLayout":      "vertical",
}

var volumeDefaults = map[string]any{
	"accentColor":     "#8cb600",
	"backgroundColor": "#fafff0",
	"textColor":       "#1a1a1a",
	"buttonColor":     "#8cb600",
	"buttonTextColor": "#ffffff",
	"borderRadius":    float64(12),
	"headerText":      "BUY MORE & SAVE",
	"badgeText":       "Most Popular",
	"cardLayout":      "vertical",
}

var complementDefaults = map[string]any{
	"accentColor":     "#2563eb",
	"backgroundColor": "#f0f6ff",
	"textColor":       "#1a1a1a",
	"buttonColor":     "#2563eb",
	"buttonTextColor": "#ffffff",
	"borderRadius":    float64(12),
	"headerText":      "FREQUENTLY BOUGHT TOGETHER",
	"cardLayout":      "vertical",
}

// projectedKeys lists, per family, the design keys flattened into metafield
// payloads. Order is fixed so payloads stay diffable.
var projectedKeys = map[enums.BundleFamily][]string{
	enums.BundleFamilyClassic: {
		"accentColor", "backgroundColor", "borderColor", "textColor",
		"buttonColor", "buttonTextColor", "borderRadius",
		"imageSizePx", "fontSizePx", "buttonFontSizePx", "badgeText",
	},
	enums.BundleFamilyTiered: {
		"accentColor", "backgroundColor", "textColor", "buttonColor",
		"buttonTextColor", "borderRadius", "headerText", "giftText", "cardLayout",
	},
	enums.BundleFamilyVolume: {
		"accentColor", "backgroundColor", "textColor", "buttonColor",
		"buttonTextColor", "borderRadius", "headerText", "badgeText", "cardLayout",
	},
	enums.BundleFamilyComplement: {
		"accentColor", "backgroundColor", "textColor", "buttonColor",
		"buttonTextColor", "borderRadius", "headerText", "cardLayout",
	},
}

// Defaults returns a copy of the family's editor defaults.
func Defaults(family enums.BundleFamily) map[string]any {
	var source map[string]any
	switch family {
	case enums.BundleFamilyClassic:
		source = classicDefaults
	case enums.BundleFamilyTiered:
		source = tieredDefaults
	case enums.BundleFamilyVolume:
		source = volumeDefaults
	case enums.BundleFamilyComplement:
		source = complementDefaults
	default:
		source = map[string]any{}
	}
	out := make(map[string]any, len(source))
	for k, v := range source {
		out[k] = v
	}
	return out
}

// Parse decodes a stored design blob. Empty or malformed input yields an
// empty map, never an error.
func Parse(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || parsed == nil {
		return map[string]any{}
	}
	return parsed
}

// Merge overlays the stored overrides onto the family defaults, producing the
// effective design the editor round-trips.
func Merge(family enums.BundleFamily, raw string) map[string]any {
	merged := Defaults(family)
	for k, v := range Parse(raw) {
		if v == nil {
			continue
		}
		merged[k] = v
	}
	return merged
}

// Flatten produces the design-prefixed keys embedded in metafield payloads.
// Unset values project as null; cardLayout alone falls back to "vertical".
func Flatten(family enums.BundleFamily, raw string) map[string]any {
	stored := Parse(raw)
	out := make(map[string]any, len(projectedKeys[family]))
	for _, key := range projectedKeys[family] {
		value, ok := stored[key]
		if !ok || value == nil {
			if key == "cardLayout" {
				out[flattenKey(key)] = "vertical"
			} else {
				out[flattenKey(key)] = nil
			}
			continue
		}
		out[flattenKey(key)] = value
	}
	return out
}

func flattenKey(key string) string {
	return "design" + strings.ToUpper(key[:1]) + key[1:]
}
