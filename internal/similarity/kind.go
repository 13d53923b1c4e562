package similarity

import (
	"fmt"

	"schema-atlas/internal/common"
)

// Kind is the relationship classification of a schema pair.
// Lower values take priority when several kinds apply.
type Kind int

const (
	KindSimilarSchema Kind = iota
	KindCommonFields
	KindDataFlow
	KindCrudPair
)

// AllKinds lists every kind in priority order.
var AllKinds = []Kind{KindSimilarSchema, KindCommonFields, KindDataFlow, KindCrudPair}

// String returns the stored name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSimilarSchema:
		return "similar_schema"
	case KindCommonFields:
		return "common_fields"
	case KindDataFlow:
		return "data_flow"
	case KindCrudPair:
		return "crud_pair"
	default:
		return common.UnknownStr
	}
}

// ParseKind parses a stored kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds {
		if k.String() == s {
			return k, nil
		}
	}

	return 0, fmt.Errorf("unknown relationship kind %q", s)
}

// IsEndpointLevel reports whether the kind describes how two endpoints
// interact rather than how similar their bodies are.
func (k Kind) IsEndpointLevel() bool {
	return k == KindDataFlow || k == KindCrudPair
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}
