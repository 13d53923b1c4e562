package schema

import (
	"fmt"
	"slices"

	"schema-atlas/internal/common"
	"schema-atlas/internal/match"
)

// DefaultMaxDepth bounds container nesting. Deeper fields are truncated and
// reported as TypeUnknown, which also terminates self-referencing schemas.
const DefaultMaxDepth = 10

// Normalizer flattens schemas. The zero value uses DefaultMaxDepth.
// A Normalizer holds no state between calls and is safe for concurrent use.
type Normalizer struct {
	MaxDepth int
}

// Normalize flattens in.Schema using the default depth bound.
func Normalize(in Input) (NormalizedSchema, error) {
	return Normalizer{}.Normalize(in)
}

// Normalize flattens in.Schema depth-first into field descriptors.
//
// Properties are visited in name order. Each property yields a descriptor,
// objects recurse into their properties and arrays into their items, with
// "[]" marking array containment ("pets[].id"). A nil or empty schema yields
// no fields; a value that is not a JSON object yields a *NormalizationError.
func (n Normalizer) Normalize(in Input) (NormalizedSchema, error) {
	out := NormalizedSchema{Owner: in.Owner, Role: in.Role}

	raw, err := decodeRaw(in.Schema)
	if err != nil {
		return NormalizedSchema{}, &NormalizationError{Reason: err.Error()}
	}

	if raw == nil {
		return out, nil
	}

	// JSON Schema allows boolean schemas; they carry no fields.
	if _, ok := raw.(bool); ok {
		return out, nil
	}

	root, ok := asObject(raw)
	if !ok {
		return NormalizedSchema{}, &NormalizationError{
			Reason: fmt.Sprintf("schema must be an object, got %s", describe(raw)),
		}
	}

	w := &walker{maxDepth: n.maxDepth()}
	if err := w.root(root); err != nil {
		return NormalizedSchema{}, err
	}

	out.Fields = w.fields

	return out, nil
}

func (n Normalizer) maxDepth() int {
	if n.MaxDepth <= 0 {
		return DefaultMaxDepth
	}

	return n.MaxDepth
}

type walker struct {
	maxDepth int
	fields   []FieldDescriptor
}

func (w *walker) root(node map[string]any) error {
	typ, _, err := resolveType(node, "")
	if err != nil {
		return err
	}

	switch typ {
	case TypeObject:
		return w.properties(node, "", 0, false)
	case TypeArray:
		return w.elements(node, "", 0)
	default:
		// Primitive or unknown bodies carry no named fields.
		return nil
	}
}

// properties emits every property of node at depth.
func (w *walker) properties(node map[string]any, prefix string, depth int, inArray bool) error {
	props, err := collectProperties(node, prefix, 0, w.maxDepth)
	if err != nil {
		return err
	}

	for _, name := range common.SortedKeys(props) {
		if err := w.field(props[name], joinPath(prefix, name), depth, inArray); err != nil {
			return err
		}
	}

	return nil
}

// field emits one property descriptor and descends into containers.
func (w *walker) field(raw any, path string, depth int, inArray bool) error {
	if _, ok := raw.(bool); ok {
		w.emit(path, TypeUnknown, false, depth, inArray)
		return nil
	}

	node, ok := asObject(raw)
	if !ok {
		return &NormalizationError{
			Path:   path,
			Reason: fmt.Sprintf("property schema must be an object, got %s", describe(raw)),
		}
	}

	if depth > w.maxDepth {
		w.emit(path, TypeUnknown, false, depth, inArray)
		return nil
	}

	typ, nullable, err := resolveType(node, path)
	if err != nil {
		return err
	}

	w.emit(path, typ, nullable, depth, inArray)

	switch typ {
	case TypeObject:
		return w.properties(node, path, depth+1, inArray)
	case TypeArray:
		return w.elements(node, path, depth+1)
	default:
		return nil
	}
}

// elements descends into the items of an array node. Object items contribute
// their properties under "path[]"; other items are emitted as "path[]".
func (w *walker) elements(node map[string]any, path string, depth int) error {
	raw, ok := node["items"]
	if !ok {
		return nil
	}

	// Tuple-style items: the first entry stands for the element shape.
	if list, isList := raw.([]any); isList {
		if len(list) == 0 {
			return nil
		}

		raw = list[0]
	}

	elemPath := path + "[]"

	if _, isBool := raw.(bool); isBool {
		return nil
	}

	item, ok := asObject(raw)
	if !ok {
		return &NormalizationError{
			Path:   elemPath,
			Reason: fmt.Sprintf("items must be an object, got %s", describe(raw)),
		}
	}

	if depth > w.maxDepth {
		w.emit(elemPath, TypeUnknown, false, depth, true)
		return nil
	}

	typ, nullable, err := resolveType(item, elemPath)
	if err != nil {
		return err
	}

	switch typ {
	case TypeObject:
		return w.properties(item, elemPath, depth, true)
	case TypeArray:
		w.emit(elemPath, typ, nullable, depth, true)
		return w.elements(item, elemPath, depth+1)
	default:
		w.emit(elemPath, typ, nullable, depth, true)
		return nil
	}
}

func (w *walker) emit(path string, typ FieldType, nullable bool, depth int, inArray bool) {
	leaf := leafName(path)
	if leaf == "" {
		return
	}

	w.fields = append(w.fields, FieldDescriptor{
		Path:           path,
		Type:           typ,
		Nullable:       nullable || typ == TypeNull,
		IsIdentifier:   match.IsIdentifierName(leaf),
		ContainerDepth: depth,
		InArray:        inArray,
	})
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}

	return prefix + "." + name
}

var compositionKeywords = []string{"allOf", "oneOf", "anyOf"}

// collectProperties merges a node's own properties with those of its
// allOf/oneOf/anyOf members. Earlier definitions win on name clashes.
func collectProperties(node map[string]any, path string, level, maxLevel int) (map[string]any, error) {
	out := map[string]any{}

	if raw, ok := node["properties"]; ok && raw != nil {
		props, ok := asObject(raw)
		if !ok {
			return nil, &NormalizationError{
				Path:   path,
				Reason: fmt.Sprintf("properties must be an object, got %s", describe(raw)),
			}
		}

		for name, prop := range props {
			out[name] = prop
		}
	}

	if level >= maxLevel {
		return out, nil
	}

	for _, kw := range compositionKeywords {
		members, err := compositionMembers(node, kw, path)
		if err != nil {
			return nil, err
		}

		for _, member := range members {
			nested, err := collectProperties(member, path, level+1, maxLevel)
			if err != nil {
				return nil, err
			}

			for name, prop := range nested {
				if _, exists := out[name]; !exists {
					out[name] = prop
				}
			}
		}
	}

	return out, nil
}

func compositionMembers(node map[string]any, keyword, path string) ([]map[string]any, error) {
	raw, ok := node[keyword]
	if !ok || raw == nil {
		return nil, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, &NormalizationError{
			Path:   path,
			Reason: fmt.Sprintf("%s must be an array, got %s", keyword, describe(raw)),
		}
	}

	members := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := asObject(item); ok {
			members = append(members, m)
		}
	}

	return members, nil
}

// resolveType determines a node's type and nullability.
//
// Accepted forms: "type": "string", "type": ["string", "null"] (OpenAPI 3.1),
// "nullable": true (OpenAPI 3.0) and "x-nullable": true (Swagger extensions).
// A missing type is inferred from properties/items/composition and otherwise
// defaults to TypeUnknown.
func resolveType(node map[string]any, path string) (FieldType, bool, error) {
	nullable := isTrue(node["nullable"]) || isTrue(node["x-nullable"])

	raw, ok := node["type"]
	if !ok || raw == nil {
		return inferType(node), nullable, nil
	}

	switch v := raw.(type) {
	case string:
		t, _ := ParseFieldType(v)
		return t, nullable || t == TypeNull, nil

	case []any:
		var concrete []FieldType

		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				return TypeUnknown, false, &NormalizationError{
					Path:   path,
					Reason: "type array must contain only strings",
				}
			}

			t, _ := ParseFieldType(name)
			if t == TypeNull {
				nullable = true
				continue
			}

			if !slices.Contains(concrete, t) {
				concrete = append(concrete, t)
			}
		}

		switch len(concrete) {
		case 0:
			return TypeNull, true, nil
		case 1:
			return concrete[0], nullable, nil
		default:
			return TypeUnknown, nullable, nil
		}

	default:
		return TypeUnknown, false, &NormalizationError{
			Path:   path,
			Reason: fmt.Sprintf("type must be a string or array of strings, got %s", describe(raw)),
		}
	}
}

func inferType(node map[string]any) FieldType {
	if _, ok := node["properties"]; ok {
		return TypeObject
	}

	if _, ok := node["items"]; ok {
		return TypeArray
	}

	for _, kw := range compositionKeywords {
		members, _ := compositionMembers(node, kw, "")
		for _, m := range members {
			if _, ok := m["properties"]; ok || m["type"] == "object" {
				return TypeObject
			}
		}
	}

	return TypeUnknown
}

func isTrue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
