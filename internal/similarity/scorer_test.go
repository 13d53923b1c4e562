package similarity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-atlas/internal/schema"
)

func endpoint(id, service, method, path string) schema.Owner {
	return schema.Owner{ID: id, Kind: schema.OwnerEndpoint, Service: service, Method: method, Path: path}
}

func normalize(t *testing.T, owner schema.Owner, role schema.Role, src string) *schema.NormalizedSchema {
	t.Helper()

	raw, err := schema.Decode([]byte(src))
	require.NoError(t, err)

	ns, err := schema.Normalize(schema.Input{Owner: owner, Role: role, Schema: raw})
	require.NoError(t, err)

	return &ns
}

func flat(owner schema.Owner, role schema.Role, fields ...schema.FieldDescriptor) *schema.NormalizedSchema {
	return &schema.NormalizedSchema{Owner: owner, Role: role, Fields: fields}
}

func field(path string, typ schema.FieldType, depth int) schema.FieldDescriptor {
	return schema.FieldDescriptor{Path: path, Type: typ, ContainerDepth: depth}
}

const petSchema = `
type: object
properties:
  id: {type: integer}
  name: {type: string}
  status: {type: string}
`

func TestScore_IdenticalSchemasAcrossServices(t *testing.T) {
	src := `{"type":"object","properties":{"id":{"type":"string"},"email":{"type":"string"}}}`
	a := normalize(t, endpoint("a1", "users", "GET", "/users/{id}"), schema.RoleResponse, src)
	b := normalize(t, endpoint("b1", "billing", "GET", "/customers/{id}"), schema.RoleResponse, src)

	s := NewScorer(DefaultConfig())
	res, ok := s.Score(a, b)
	require.True(t, ok)

	assert.Equal(t, KindSimilarSchema, res.Kind)
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, []schema.Signature{"email:string", "id:string"}, res.CommonFields)
}

func TestScore_PetsCollectionScenario(t *testing.T) {
	getResp := normalize(t, endpoint("get-pets", "petstore", "GET", "/pets"), schema.RoleResponse, petSchema)
	postReq := normalize(t, endpoint("post-pets", "petstore", "POST", "/pets"), schema.RoleRequest, `
type: object
properties:
  name: {type: string}
  status: {type: string}
`)
	postResp := normalize(t, endpoint("post-pets", "petstore", "POST", "/pets"), schema.RoleResponse, petSchema)

	s := NewScorer(DefaultConfig())

	all := s.ScoreAll(getResp, postResp)
	require.Len(t, all, 2)
	assert.Equal(t, KindSimilarSchema, all[0].Kind)
	assert.Equal(t, KindCrudPair, all[1].Kind)
	assert.GreaterOrEqual(t, all[1].Score, 0.6)
	assert.Equal(t, []schema.Signature{"id:integer", "name:string", "status:string"}, all[1].CommonFields)

	res, ok := s.Score(getResp, postReq)
	require.True(t, ok)
	assert.Equal(t, KindCommonFields, res.Kind)
	assert.InDelta(t, 0.6667, res.Score, 1e-9)
	assert.Equal(t, []schema.Signature{"name:string", "status:string"}, res.CommonFields)
}

func TestScore_DataFlowOrientsResponseFirst(t *testing.T) {
	resp := normalize(t, endpoint("get-pet", "pets", "GET", "/pets/{id}"), schema.RoleResponse, petSchema)
	req := normalize(t, endpoint("post-adoption", "adoptions", "POST", "/adoptions"), schema.RoleRequest, `
type: object
properties:
  id: {type: integer}
  adopter: {type: string}
`)

	s := NewScorer(DefaultConfig())

	for _, pair := range [][2]*schema.NormalizedSchema{{resp, req}, {req, resp}} {
		all := s.ScoreAll(pair[0], pair[1])

		var kinds []Kind
		for _, r := range all {
			kinds = append(kinds, r.Kind)
		}

		require.Equal(t, []Kind{KindCommonFields, KindDataFlow}, kinds)
		assert.Equal(t, resp.Ref(), all[1].SchemaA)
		assert.Equal(t, req.Ref(), all[1].SchemaB)
	}
}

func TestScore_DataFlowNeedsIdentifier(t *testing.T) {
	resp := normalize(t, endpoint("a", "", "GET", "/a"), schema.RoleResponse, `{properties: {name: {type: string}}}`)
	req := normalize(t, endpoint("b", "", "POST", "/b"), schema.RoleRequest, `{properties: {name: {type: string}}}`)

	for _, r := range NewScorer(DefaultConfig()).ScoreAll(resp, req) {
		assert.NotEqual(t, KindDataFlow, r.Kind)
	}
}

func TestScore_CrudPairRequiresSameService(t *testing.T) {
	a := normalize(t, endpoint("a", "svc1", "GET", "/pets"), schema.RoleResponse, petSchema)
	b := normalize(t, endpoint("b", "svc2", "GET", "/pets/{id}"), schema.RoleResponse, petSchema)

	for _, r := range NewScorer(DefaultConfig()).ScoreAll(a, b) {
		assert.NotEqual(t, KindCrudPair, r.Kind)
	}

	b.Owner.Service = "svc1"
	all := NewScorer(DefaultConfig()).ScoreAll(a, b)
	require.Len(t, all, 2)
	assert.Equal(t, KindCrudPair, all[1].Kind)
}

func TestScore_SelfPairIsSkipped(t *testing.T) {
	a := normalize(t, endpoint("a", "", "GET", "/pets"), schema.RoleResponse, petSchema)

	_, ok := NewScorer(DefaultConfig()).Score(a, a)
	assert.False(t, ok)
}

func TestScore_VacuousMatch(t *testing.T) {
	a := flat(endpoint("a", "", "GET", "/a"), schema.RoleResponse)
	b := flat(endpoint("b", "", "GET", "/b"), schema.RoleResponse)

	s := NewScorer(DefaultConfig())
	m := s.Measure(a, b)
	assert.Zero(t, m.Score)
	assert.Zero(t, m.Jaccard)

	_, ok := s.Score(a, b)
	assert.False(t, ok)
}

func TestScore_NoSharedFieldsNoResult(t *testing.T) {
	a := flat(endpoint("a", "", "GET", "/a"), schema.RoleResponse, field("x", schema.TypeString, 0))
	b := flat(endpoint("b", "", "GET", "/b"), schema.RoleResponse, field("y", schema.TypeString, 0))

	_, ok := NewScorer(DefaultConfig()).Score(a, b)
	assert.False(t, ok)
}

func TestScore_TypeMismatchIsNotShared(t *testing.T) {
	a := flat(endpoint("a", "", "GET", "/a"), schema.RoleResponse, field("id", schema.TypeString, 0))
	b := flat(endpoint("b", "", "GET", "/b"), schema.RoleResponse, field("id", schema.TypeInteger, 0))

	_, ok := NewScorer(DefaultConfig()).Score(a, b)
	assert.False(t, ok)
}

func TestMeasure_StructuralBonusDiscriminatesShape(t *testing.T) {
	top := flat(endpoint("a", "", "GET", "/a"), schema.RoleResponse,
		field("id", schema.TypeInteger, 0), field("name", schema.TypeString, 0))
	nested := flat(endpoint("b", "", "GET", "/b"), schema.RoleResponse,
		field("data.id", schema.TypeInteger, 1), field("data.name", schema.TypeString, 1))
	inArray := flat(endpoint("c", "", "GET", "/c"), schema.RoleResponse,
		schema.FieldDescriptor{Path: "[].id", Type: schema.TypeInteger, InArray: true},
		schema.FieldDescriptor{Path: "[].name", Type: schema.TypeString, InArray: true})

	s := NewScorer(DefaultConfig())

	same := s.Measure(top, top)
	shifted := s.Measure(top, nested)
	different := s.Measure(top, inArray)

	assert.Equal(t, 1.0, same.Score)
	assert.Equal(t, 0.15, same.StructuralBonus)
	assert.Equal(t, 0.075, shifted.StructuralBonus)
	assert.Zero(t, different.StructuralBonus)
	assert.Greater(t, shifted.Score, different.Score)
	assert.Equal(t, shifted.Jaccard, different.Jaccard)
}

func TestScore_CommonFieldsLimit(t *testing.T) {
	a := flat(endpoint("a", "", "GET", "/a"), schema.RoleResponse,
		field("x", schema.TypeString, 0), field("y", schema.TypeString, 0), field("p", schema.TypeString, 0))
	b := flat(endpoint("b", "", "GET", "/b"), schema.RoleResponse,
		field("x", schema.TypeString, 0), field("y", schema.TypeString, 0), field("q", schema.TypeString, 0))

	cfg := DefaultConfig()
	cfg.CommonFieldsLimit = 2

	_, ok := NewScorer(cfg).Score(a, b)
	assert.False(t, ok, "two shared fields reach the limit of 2")

	cfg.CommonFieldsLimit = 3
	res, ok := NewScorer(cfg).Score(a, b)
	require.True(t, ok)
	assert.Equal(t, KindCommonFields, res.Kind)
}

// Properties over a small corpus of schemas.

func corpus() []*schema.NormalizedSchema {
	str, num := schema.TypeString, schema.TypeInteger

	return []*schema.NormalizedSchema{
		flat(endpoint("a", "s", "GET", "/pets"), schema.RoleResponse,
			field("id", num, 0), field("name", str, 0), field("tag", str, 0)),
		flat(endpoint("b", "s", "POST", "/pets"), schema.RoleRequest,
			field("name", str, 0), field("tag", str, 0)),
		flat(endpoint("c", "s", "GET", "/pets/{id}"), schema.RoleResponse,
			field("id", num, 0), field("name", str, 0), field("owner.id", num, 1)),
		flat(endpoint("d", "t", "GET", "/orders"), schema.RoleResponse,
			schema.FieldDescriptor{Path: "[].id", Type: num, InArray: true},
			schema.FieldDescriptor{Path: "[].total", Type: num, InArray: true}),
		flat(endpoint("e", "t", "POST", "/orders"), schema.RoleRequest),
	}
}

func TestProperty_Symmetry(t *testing.T) {
	s := NewScorer(DefaultConfig())
	schemas := corpus()

	for _, a := range schemas {
		for _, b := range schemas {
			t.Run(fmt.Sprintf("%s_%s", a.Ref(), b.Ref()), func(t *testing.T) {
				assert.Equal(t, s.Measure(a, b), s.Measure(b, a))
				assert.Equal(t, s.ScoreAll(a, b), s.ScoreAll(b, a))
			})
		}
	}
}

func TestProperty_SelfExclusion(t *testing.T) {
	s := NewScorer(DefaultConfig())
	schemas := corpus()

	for _, a := range schemas {
		for _, b := range schemas {
			for _, r := range s.ScoreAll(a, b) {
				assert.NotEqual(t, r.SchemaA, r.SchemaB)
			}
		}
	}
}

func TestProperty_Monotonicity(t *testing.T) {
	s := NewScorer(DefaultConfig())

	b := flat(endpoint("b", "", "GET", "/b"), schema.RoleResponse,
		field("id", schema.TypeInteger, 0),
		field("name", schema.TypeString, 0),
		field("meta.created", schema.TypeString, 1),
		schema.FieldDescriptor{Path: "items[].sku", Type: schema.TypeString, ContainerDepth: 1, InArray: true},
		field("total", schema.TypeNumber, 0),
	)

	a := flat(endpoint("a", "", "GET", "/a"), schema.RoleResponse,
		field("unrelated", schema.TypeString, 0),
		field("other", schema.TypeBoolean, 0),
	)

	additions := []schema.FieldDescriptor{
		// shared signature at a different shape
		field("sku", schema.TypeString, 0),
		field("id", schema.TypeInteger, 0),
		// same signature again, deeper
		field("wrapper.id", schema.TypeInteger, 1),
		field("created", schema.TypeString, 0),
		field("name", schema.TypeString, 0),
		field("total", schema.TypeNumber, 0),
	}

	prev := s.Measure(a, b).Score
	for _, f := range additions {
		a.Fields = append(a.Fields, f)

		next := s.Measure(a, b).Score
		assert.GreaterOrEqual(t, next, prev, "adding %s lowered the score", f.Path)

		prev = next
	}
}

func TestKind_Parse(t *testing.T) {
	for _, k := range AllKinds {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("sibling")
	assert.Error(t, err)
	assert.True(t, KindDataFlow.IsEndpointLevel())
	assert.False(t, KindCommonFields.IsEndpointLevel())
}

func TestResult_KeyIsOrientationFree(t *testing.T) {
	a := schema.Ref{Owner: "a", Role: schema.RoleResponse}
	b := schema.Ref{Owner: "b", Role: schema.RoleRequest}

	r1 := Result{SchemaA: a, SchemaB: b, Kind: KindDataFlow}
	r2 := Result{SchemaA: b, SchemaB: a, Kind: KindDataFlow}

	assert.Equal(t, r1.Key(), r2.Key())
	assert.True(t, r1.Key().Less(PairKey{Low: a, High: b, Kind: KindCrudPair}))
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.JaccardWeight = 0.95
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.SimilarThreshold = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.CommonFieldsLimit = -1
	assert.Error(t, bad.Validate())
}
