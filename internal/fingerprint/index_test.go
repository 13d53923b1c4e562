package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-atlas/internal/match"
	"schema-atlas/internal/schema"
)

func ns(owner, service string, role schema.Role, fields ...string) schema.NormalizedSchema {
	s := schema.NormalizedSchema{
		Owner: schema.Owner{ID: owner, Service: service},
		Role:  role,
	}

	for _, f := range fields {
		s.Fields = append(s.Fields, schema.FieldDescriptor{Path: f, Type: schema.TypeString})
	}

	return s
}

func TestBuild_OwnersBySignature(t *testing.T) {
	schemas := []schema.NormalizedSchema{
		ns("a", "svc1", schema.RoleResponse, "id", "name"),
		ns("b", "svc2", schema.RoleResponse, "id", "email"),
		ns("a", "svc1", schema.RoleRequest, "name", "user.name"),
	}

	ix := Build(schemas)

	assert.Equal(t, 3, ix.Len())
	assert.Equal(t, []string{"a", "b"}, ix.Owners("id:string"))
	assert.Equal(t, []string{"a"}, ix.Owners("name:string"))
	assert.Equal(t, []int{0, 2}, ix.Positions("name:string"), "duplicate paths count once per schema")
	assert.Empty(t, ix.Owners("missing:string"))

	assert.Equal(t, []schema.Ref{
		{Owner: "a", Role: schema.RoleResponse},
		{Owner: "b", Role: schema.RoleResponse},
	}, ix.Refs("id:string"))

	assert.Equal(t, map[schema.Signature][]string{
		"email:string": {"b"},
		"id:string":    {"a", "b"},
		"name:string":  {"a"},
	}, ix.Mapping())
}

func TestCandidates_OnlyPairsSharingASignature(t *testing.T) {
	schemas := []schema.NormalizedSchema{
		ns("a", "", schema.RoleResponse, "id", "name"),
		ns("b", "", schema.RoleResponse, "id", "name"),
		ns("c", "", schema.RoleResponse, "total"),
		ns("d", "", schema.RoleResponse, "name"),
		ns("e", "", schema.RoleResponse),
	}

	got := Build(schemas).Candidates()

	assert.Equal(t, match.CandidateList{
		{A: 0, B: 1, Shared: 2},
		{A: 0, B: 3, Shared: 1},
		{A: 1, B: 3, Shared: 1},
	}, got)
}

func TestSharedWith(t *testing.T) {
	schemas := []schema.NormalizedSchema{
		ns("a", "", schema.RoleResponse, "id", "name"),
		ns("b", "", schema.RoleResponse, "id"),
		ns("c", "", schema.RoleResponse, "name", "id"),
	}

	got := Build(schemas).SharedWith(0)
	require.Len(t, got, 2)
	assert.Equal(t, match.CandidatePair{A: 0, B: 1, Shared: 1}, got[0])
	assert.Equal(t, match.CandidatePair{A: 0, B: 2, Shared: 2}, got[1])
	assert.Equal(t, 2, got.Best().Other(0))
}

func TestCommonFields(t *testing.T) {
	schemas := []schema.NormalizedSchema{
		ns("a", "users", schema.RoleResponse, "id", "email"),
		ns("b", "orders", schema.RoleResponse, "id", "total"),
		ns("c", "orders", schema.RoleRequest, "id", "email"),
		ns("c", "orders", schema.RoleResponse, "total"),
	}

	got := Build(schemas).CommonFields(0)
	require.Len(t, got, 3)

	assert.Equal(t, schema.Signature("id:string"), got[0].Signature)
	assert.Equal(t, 3, got[0].Owners)
	assert.Equal(t, []string{"orders", "users"}, got[0].Services)
	assert.True(t, got[0].CrossService())

	assert.Equal(t, schema.Signature("email:string"), got[1].Signature)
	assert.Equal(t, schema.Signature("total:string"), got[2].Signature)
	assert.False(t, got[2].CrossService())

	assert.Len(t, Build(schemas).CommonFields(1), 1)
}
