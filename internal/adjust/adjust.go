// Package adjust models the opaque adjustment sets carried by presets.
package adjust

// Adjustments maps parameter names to values. Values come from frontend
// JSON and stay untyped; the rendering backend interprets them.
type Adjustments map[string]any

// Baseline returns the fixed default adjustment set every preview render
// starts from. Preset values are merged over it.
func Baseline() Adjustments {
	return Adjustments{
		"exposure":       0.0,
		"contrast":       0.0,
		"highlights":     0.0,
		"shadows":        0.0,
		"whites":         0.0,
		"blacks":         0.0,
		"saturation":     0.0,
		"vibrance":       0.0,
		"temperature":    0.0,
		"tint":           0.0,
		"clarity":        0.0,
		"dehaze":         0.0,
		"sharpness":      25.0,
		"vignetteAmount": 0.0,
		"grainAmount":    0.0,
		"lutPath":        "",
		"lutIntensity":   100.0,
	}
}

// Merge overlays preset values on top of base. Keys missing from over keep
// the base value; neither input is modified.
func Merge(base, over Adjustments) Adjustments {
	merged := make(Adjustments, len(base)+len(over))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range over {
		merged[k] = v
	}
	return merged
}
