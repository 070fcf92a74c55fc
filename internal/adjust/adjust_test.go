package adjust

import "testing"

func TestMerge_PresetOverridesBaseline(t *testing.T) {
	base := Baseline()
	over := Adjustments{"contrast": 20.0, "exposure": 0.5}

	merged := Merge(base, over)

	if merged["contrast"] != 20.0 {
		t.Errorf("Expected contrast 20.0, got %v", merged["contrast"])
	}
	if merged["exposure"] != 0.5 {
		t.Errorf("Expected exposure 0.5, got %v", merged["exposure"])
	}
}

func TestMerge_MissingKeysKeepBaseline(t *testing.T) {
	base := Baseline()
	merged := Merge(base, Adjustments{"contrast": 20.0})

	if merged["sharpness"] != base["sharpness"] {
		t.Errorf("Expected baseline sharpness %v, got %v", base["sharpness"], merged["sharpness"])
	}
	if merged["lutIntensity"] != base["lutIntensity"] {
		t.Errorf("Expected baseline lutIntensity %v, got %v", base["lutIntensity"], merged["lutIntensity"])
	}
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	base := Adjustments{"contrast": 0.0}
	over := Adjustments{"contrast": 50.0}

	Merge(base, over)

	if base["contrast"] != 0.0 {
		t.Errorf("Expected base untouched, got %v", base["contrast"])
	}
}

func TestMerge_NilOverlay(t *testing.T) {
	base := Baseline()
	merged := Merge(base, nil)

	if len(merged) != len(base) {
		t.Errorf("Expected %d keys, got %d", len(base), len(merged))
	}
}

func TestMerge_UnknownPresetKeysAreKept(t *testing.T) {
	merged := Merge(Baseline(), Adjustments{"aiPatches": []any{}})

	if _, ok := merged["aiPatches"]; !ok {
		t.Error("Expected unknown preset key to survive the merge")
	}
}
