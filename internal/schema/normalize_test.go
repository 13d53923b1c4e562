package schema

import (
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, src string) any {
	t.Helper()

	v, err := Decode([]byte(src))
	require.NoError(t, err)

	return v
}

func paths(s NormalizedSchema) []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Path)
	}

	return out
}

func TestNormalize_NestedObjectAndArrays(t *testing.T) {
	raw := mustDecode(t, `{
		"type": "object",
		"properties": {
			"id": {"type": "integer"},
			"name": {"type": "string"},
			"owner": {
				"type": "object",
				"properties": {
					"ownerId": {"type": "string"},
					"email": {"type": ["string", "null"]}
				}
			},
			"tags": {"type": "array", "items": {"type": "string"}},
			"photos": {
				"type": "array",
				"items": {"type": "object", "properties": {"url": {"type": "string"}}}
			}
		}
	}`)

	got, err := Normalize(Input{Owner: Owner{ID: "pets"}, Role: RoleResponse, Schema: raw})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"id", "name", "owner", "owner.email", "owner.ownerId",
		"photos", "photos[].url", "tags", "tags[]",
	}, paths(got), spew.Sdump(got))

	byPath := map[string]FieldDescriptor{}
	for _, f := range got.Fields {
		byPath[f.Path] = f
	}

	assert.Equal(t, TypeInteger, byPath["id"].Type)
	assert.True(t, byPath["id"].IsIdentifier)
	assert.Equal(t, 0, byPath["id"].ContainerDepth)

	assert.Equal(t, TypeObject, byPath["owner"].Type)
	assert.True(t, byPath["owner.ownerId"].IsIdentifier)
	assert.Equal(t, 1, byPath["owner.ownerId"].ContainerDepth)

	email := byPath["owner.email"]
	assert.Equal(t, TypeString, email.Type)
	assert.True(t, email.Nullable)

	assert.Equal(t, TypeArray, byPath["tags"].Type)
	assert.Equal(t, TypeString, byPath["tags[]"].Type)
	assert.True(t, byPath["tags[]"].InArray)
	assert.Equal(t, 1, byPath["tags[]"].ContainerDepth)

	url := byPath["photos[].url"]
	assert.True(t, url.InArray)
	assert.Equal(t, 1, url.ContainerDepth)
	assert.Equal(t, Signature("url:string"), url.Signature())
}

func TestNormalize_RootArray(t *testing.T) {
	raw := mustDecode(t, `
type: array
items:
  type: object
  properties:
    id: {type: integer}
`)

	got, err := Normalize(Input{Owner: Owner{ID: "list"}, Role: RoleResponse, Schema: raw})
	require.NoError(t, err)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, "[].id", got.Fields[0].Path)
	assert.True(t, got.Fields[0].InArray)
	assert.Equal(t, Signature("id:integer"), got.Fields[0].Signature())
}

func TestNormalize_MissingTypeDefaultsToUnknown(t *testing.T) {
	raw := mustDecode(t, `{"properties": {"blob": {}, "ref": {"$ref": "#/components/schemas/X"}}}`)

	got, err := Normalize(Input{Owner: Owner{ID: "x"}, Role: RoleRequest, Schema: raw})
	require.NoError(t, err)
	require.Len(t, got.Fields, 2)

	for _, f := range got.Fields {
		assert.Equal(t, TypeUnknown, f.Type, f.Path)
	}
}

func TestNormalize_EmptyAndNonObjectSchemasAreEmpty(t *testing.T) {
	tests := []struct {
		name   string
		schema any
	}{
		{"nil", nil},
		{"empty object", map[string]any{}},
		{"primitive body", map[string]any{"type": "string"}},
		{"boolean schema", true},
		{"blank bytes", []byte("   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(Input{Owner: Owner{ID: "e"}, Role: RoleRequest, Schema: tt.schema})
			require.NoError(t, err)
			assert.True(t, got.IsEmpty())
			assert.Equal(t, "e", got.Owner.ID)
		})
	}
}

func TestNormalize_MalformedSchemas(t *testing.T) {
	tests := []struct {
		name   string
		schema any
		path   string
	}{
		{"string value", "not a schema", ""},
		{"number value", 42, ""},
		{"array value", []any{"a"}, ""},
		{"invalid bytes", []byte("{unclosed: [}"), ""},
		{"properties not object", map[string]any{"properties": []any{"a"}}, ""},
		{"property not object", map[string]any{"properties": map[string]any{"a": 3}}, "a"},
		{"type is number", map[string]any{"type": 7}, ""},
		{"items not object", map[string]any{
			"properties": map[string]any{"a": map[string]any{"type": "array", "items": "x"}},
		}, "a[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(Input{Owner: Owner{ID: "bad"}, Role: RoleRequest, Schema: tt.schema})
			require.Error(t, err)

			var nerr *NormalizationError
			require.True(t, errors.As(err, &nerr))
			assert.Equal(t, tt.path, nerr.Path)
		})
	}
}

func TestNormalize_DepthCapTerminatesCycles(t *testing.T) {
	node := map[string]any{"type": "object"}
	node["properties"] = map[string]any{"child": node}

	got, err := Normalizer{MaxDepth: 3}.Normalize(Input{Owner: Owner{ID: "cyclic"}, Schema: node})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"child",
		"child.child",
		"child.child.child",
		"child.child.child.child",
		"child.child.child.child.child",
	}, paths(got))

	last := got.Fields[len(got.Fields)-1]
	assert.Equal(t, TypeUnknown, last.Type)
	assert.Equal(t, 4, last.ContainerDepth)
	assert.Equal(t, TypeObject, got.Fields[3].Type)
}

func TestNormalize_DefaultDepthBound(t *testing.T) {
	node := map[string]any{"type": "object"}
	node["properties"] = map[string]any{"n": node}

	got, err := Normalize(Input{Owner: Owner{ID: "deep"}, Schema: node})
	require.NoError(t, err)
	require.Len(t, got.Fields, DefaultMaxDepth+2)
	assert.Equal(t, TypeUnknown, got.Fields[len(got.Fields)-1].Type)
}

func TestNormalize_Composition(t *testing.T) {
	raw := mustDecode(t, `{
		"allOf": [
			{"type": "object", "properties": {"id": {"type": "string"}}},
			{"properties": {"name": {"type": "string"}, "id": {"type": "integer"}}}
		],
		"properties": {"status": {"type": "string", "nullable": true}}
	}`)

	got, err := Normalize(Input{Owner: Owner{ID: "c"}, Role: RoleResponse, Schema: raw})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "status"}, paths(got))
	assert.Equal(t, TypeString, got.Fields[0].Type, "first allOf member wins")
	assert.True(t, got.Fields[2].Nullable)
}

func TestNormalize_TypeArrays(t *testing.T) {
	raw := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"onlyNull": map[string]any{"type": []any{"null"}},
			"mixed":    map[string]any{"type": []any{"string", "integer"}},
		},
	}

	got, err := Normalize(Input{Owner: Owner{ID: "t"}, Schema: raw})
	require.NoError(t, err)
	require.Len(t, got.Fields, 2)
	assert.Equal(t, TypeUnknown, got.Fields[0].Type) // mixed
	assert.Equal(t, TypeNull, got.Fields[1].Type)
	assert.True(t, got.Fields[1].Nullable)
}

func TestNormalize_RawBytes(t *testing.T) {
	got, err := Normalize(Input{
		Owner:  Owner{ID: "b"},
		Role:   RoleResponse,
		Schema: []byte(`{"type":"object","properties":{"email":{"type":"string"}}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []Signature{"email:string"}, got.Signatures())
}

func TestNormalize_IsDeterministic(t *testing.T) {
	raw := mustDecode(t, `{"properties": {"b": {"type": "string"}, "a": {"type": "string"}, "c": {"type": "integer"}}}`)

	first, err := Normalize(Input{Owner: Owner{ID: "d"}, Schema: raw})
	require.NoError(t, err)

	for range 5 {
		again, err := Normalize(Input{Owner: Owner{ID: "d"}, Schema: raw})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
