package feature

import "testing"

func TestPattern_Valid(t *testing.T) {
	valid := []Pattern{PatternLight, PatternMedium, PatternHeavy, PatternSuccess, PatternWarning, PatternError}
	for _, p := range valid {
		if !p.Valid() {
			t.Errorf("Valid(%q) = false", p)
		}
	}

	for _, p := range []Pattern{"", "strong", "LIGHT"} {
		if p.Valid() {
			t.Errorf("Valid(%q) = true", p)
		}
	}
}

func TestIDs_Stable(t *testing.T) {
	// These strings are registry keys shared with platform bootstrap
	// code; changing them is a wire-compatibility break.
	if got := HapticsID.String(); got != "feature.haptics" {
		t.Errorf("HapticsID = %q", got)
	}
	if got := NotifierID.String(); got != "feature.notifier" {
		t.Errorf("NotifierID = %q", got)
	}
}
