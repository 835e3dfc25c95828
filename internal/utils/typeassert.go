// Package utils provides typed reads from the loosely typed maps that carry
// per-tick phase metadata. Values may be native Go numbers from a live run
// or float64 after a JSON round trip, so numeric getters accept both.
package utils

// GetString extracts a string from m, returning defaultVal if absent or mistyped.
func GetString(m map[string]any, key, defaultVal string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return defaultVal
}

// GetFloat64 extracts a number from m as a float64.
func GetFloat64(m map[string]any, key string, defaultVal float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return defaultVal
}

// GetInt extracts a number from m as an int. JSON numbers arrive as
// float64 and are truncated.
func GetInt(m map[string]any, key string, defaultVal int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultVal
}

// GetBool extracts a bool from m.
func GetBool(m map[string]any, key string, defaultVal bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return defaultVal
}
