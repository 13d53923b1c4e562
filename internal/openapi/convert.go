package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"

	"schema-atlas/internal/common"
)

// Convert turns a loaded schema into the generic map form the normalizer
// reads. References are inlined; a reference cycle is cut with a bare
// {"$ref": ...} node. A nil schema converts to an empty map.
func Convert(ref *openapi3.SchemaRef) map[string]any {
	return convert(ref, map[*openapi3.Schema]bool{})
}

func convert(ref *openapi3.SchemaRef, active map[*openapi3.Schema]bool) map[string]any {
	if ref == nil {
		return map[string]any{}
	}

	s := ref.Value
	if s == nil {
		if ref.Ref != "" {
			return map[string]any{"$ref": ref.Ref}
		}

		return map[string]any{}
	}

	if active[s] {
		return map[string]any{"$ref": refName(ref)}
	}

	active[s] = true
	defer delete(active, s)

	out := map[string]any{}

	if s.Type != nil {
		switch types := s.Type.Slice(); len(types) {
		case 0:
		case 1:
			out["type"] = types[0]
		default:
			list := make([]any, 0, len(types))
			for _, t := range types {
				list = append(list, t)
			}

			out["type"] = list
		}
	}

	if s.Nullable {
		out["nullable"] = true
	}

	if v, ok := s.Extensions["x-nullable"]; ok {
		out["x-nullable"] = v
	}

	if s.Format != "" {
		out["format"] = s.Format
	}

	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for _, name := range common.SortedKeys(s.Properties) {
			props[name] = convert(s.Properties[name], active)
		}

		out["properties"] = props
	}

	if s.Items != nil {
		out["items"] = convert(s.Items, active)
	}

	for keyword, members := range map[string]openapi3.SchemaRefs{
		"allOf": s.AllOf,
		"oneOf": s.OneOf,
		"anyOf": s.AnyOf,
	} {
		if len(members) == 0 {
			continue
		}

		list := make([]any, 0, len(members))
		for _, m := range members {
			list = append(list, convert(m, active))
		}

		out[keyword] = list
	}

	return out
}

func refName(ref *openapi3.SchemaRef) string {
	if ref.Ref != "" {
		return ref.Ref
	}

	return "#"
}
