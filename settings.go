package drivekit

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// Settings is a driver-specific configuration mapping. Consult each driver's
// documentation for the keys it recognizes. Settings are always replaced
// wholesale, never merged.
type Settings map[string]any

// Clone returns a shallow copy so a driver never shares its map with the
// caller.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// String returns the string stored under key, or "" when the key is absent.
func (s Settings) String(key string) (string, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return "", nil
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return "", fmt.Errorf("setting %q: expected string, got %T", key, v)
	}
}

// Bool returns the boolean stored under key, or def when the key is absent.
// String values are parsed with strconv.ParseBool so settings sourced from
// the environment work unchanged.
func (s Settings) Bool(key string, def bool) (bool, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return def, nil
	}
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return false, fmt.Errorf("setting %q: %w", key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("setting %q: expected bool, got %T", key, v)
	}
}

// Bytes returns raw bytes stored under key. A string value is treated as
// standard base64.
func (s Settings) Bytes(key string) ([]byte, error) {
	v, ok := s[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		b, err := base64.StdEncoding.DecodeString(x)
		if err != nil {
			return nil, fmt.Errorf("setting %q: %w", key, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("setting %q: expected []byte or base64 string, got %T", key, v)
	}
}
