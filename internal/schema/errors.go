package schema

import "fmt"

// NormalizationError reports a schema value whose shape cannot be interpreted.
// The analysis layer skips the schema and records the reason.
type NormalizationError struct {
	Path   string
	Reason string
}

func (e *NormalizationError) Error() string {
	if e == nil {
		return "schema normalization error"
	}

	return fmt.Sprintf("schema normalization failed at %s: %s", pathOrRoot(e.Path), e.Reason)
}

func pathOrRoot(path string) string {
	if path == "" {
		return "<root>"
	}

	return path
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64, float32:
		return "number"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
