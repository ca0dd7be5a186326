package enums

import "testing"

func TestParseTriggerType(t *testing.T) {
	t.Run("known", func(t *testing.T) {
		for _, raw := range []string{"product", "collection", "all"} {
			parsed, err := ParseTriggerType(raw)
			if err != nil {
				t.Fatalf("parse %q: %v", raw, err)
			}
			if !parsed.IsValid() {
				t.Fatalf("expected %q to be valid", raw)
			}
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseTriggerType("variant"); err == nil {
			t.Fatal("expected error for unknown trigger type")
		}
	})
}

func TestParseDiscountType(t *testing.T) {
	if _, err := ParseDiscountType("percentage"); err != nil {
		t.Fatalf("parse percentage: %v", err)
	}
	if _, err := ParseDiscountType("bogo"); err == nil {
		t.Fatal("expected error for unknown discount type")
	}
}

func TestParseComplementModeDefaultsNothing(t *testing.T) {
	if _, err := ParseComplementMode(""); err == nil {
		t.Fatal("expected empty mode to be rejected")
	}
}

func TestBundleFamilyValues(t *testing.T) {
	for _, f := range []BundleFamily{BundleFamilyClassic, BundleFamilyTiered, BundleFamilyVolume, BundleFamilyComplement} {
		if !f.IsValid() {
			t.Fatalf("expected %s to be valid", f)
		}
	}
	if BundleFamily("mystery").IsValid() {
		t.Fatal("unexpected valid family")
	}
}
