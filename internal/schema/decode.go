package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Decode parses JSON or YAML schema bytes into a generic value.
// Blank input decodes to nil, which normalizes to an empty schema.
func Decode(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}

	return v, nil
}

// decodeRaw turns byte payloads into generic values and passes anything else through.
func decodeRaw(raw any) (any, error) {
	switch v := raw.(type) {
	case json.RawMessage:
		return Decode(v)
	case []byte:
		return Decode(v)
	default:
		return raw, nil
	}
}

// asObject returns v as a string-keyed map.
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}

		return out, true
	default:
		return nil, false
	}
}
