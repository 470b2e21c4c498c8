package frame

import "strings"

// Header is a flat view of a FITS primary header: keyword to value. Keys
// are stored upper-cased and lookups fold case to match.
type Header map[string]any

// Float returns the header value for key coerced to float64. The boolean is
// false when the key is absent or the value is not numeric.
func (h Header) Float(key string) (float64, bool) {
	v, ok := h[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	default:
		return 0, false
	}
}

// String returns the header value for key as a whitespace-trimmed string.
// The boolean is false when the key is absent or not a string.
func (h Header) String(key string) (string, bool) {
	v, ok := h[strings.ToUpper(key)]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}
