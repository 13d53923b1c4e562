package similarity

import (
	"slices"

	"schema-atlas/internal/common"
	"schema-atlas/internal/match"
	"schema-atlas/internal/schema"
)

// scorePrecision is the number of decimal places kept in scores.
const scorePrecision = 4

// Measurement holds the numeric comparison of two schemas.
type Measurement struct {
	Score             float64
	Jaccard           float64
	StructuralBonus   float64
	CommonFields      []schema.Signature
	SharedIdentifiers []schema.Signature
}

// Result is one classified relationship between two schemas.
// For data_flow SchemaA is the response side; otherwise SchemaA sorts first.
type Result struct {
	SchemaA      schema.Ref         `yaml:"schema_a" json:"schema_a"`
	SchemaB      schema.Ref         `yaml:"schema_b" json:"schema_b"`
	Kind         Kind               `yaml:"kind" json:"kind"`
	Score        float64            `yaml:"score" json:"score"`
	Jaccard      float64            `yaml:"jaccard" json:"jaccard"`
	CommonFields []schema.Signature `yaml:"common_fields" json:"common_fields"`
}

// PairKey identifies a result independent of orientation.
type PairKey struct {
	Low, High schema.Ref
	Kind      Kind
}

// Key returns the unordered pair + kind key of the result.
func (r Result) Key() PairKey {
	low, high := r.SchemaA, r.SchemaB
	if high.Less(low) {
		low, high = high, low
	}

	return PairKey{Low: low, High: high, Kind: r.Kind}
}

// Less orders results by key for deterministic output.
func (k PairKey) Less(other PairKey) bool {
	if k.Low != other.Low {
		return k.Low.Less(other.Low)
	}

	if k.High != other.High {
		return k.High.Less(other.High)
	}

	return k.Kind < other.Kind
}

// Scorer compares normalized schemas. It is stateless and safe for concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the given configuration.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Measure computes the similarity score of two schemas. It is symmetric.
//
// Jaccard is |Sa ∩ Sb| / |Sa ∪ Sb| over distinct signatures and is 0 when both
// sets are empty. The structural bonus adds, per shared signature, the best
// shape agreement between the two schemas' fields with that signature,
// normalized by the union size so that adding a shared field never lowers
// the score.
func (s *Scorer) Measure(a, b *schema.NormalizedSchema) Measurement {
	fa := a.FieldsBySignature()
	fb := b.FieldsBySignature()

	var shared []schema.Signature
	for sig := range fa {
		if _, ok := fb[sig]; ok {
			shared = append(shared, sig)
		}
	}

	slices.Sort(shared)

	union := len(fa) + len(fb) - len(shared)
	if union == 0 || len(shared) == 0 {
		return Measurement{}
	}

	var (
		shapeSum    float64
		identifiers []schema.Signature
	)

	for _, sig := range shared {
		shapeSum += bestShape(fa[sig], fb[sig]).Weight()

		if match.IsIdentifierName(sig.Name()) {
			identifiers = append(identifiers, sig)
		}
	}

	jaccard := float64(len(shared)) / float64(union)
	bonus := s.cfg.StructuralWeight * shapeSum / float64(union)
	score := common.Clamp(jaccard*s.cfg.JaccardWeight+bonus, 0, 1)

	return Measurement{
		Score:             common.Round(score, scorePrecision),
		Jaccard:           common.Round(jaccard, scorePrecision),
		StructuralBonus:   common.Round(bonus, scorePrecision),
		CommonFields:      shared,
		SharedIdentifiers: identifiers,
	}
}

// bestShape returns the best shape agreement between any two fields.
func bestShape(as, bs []schema.FieldDescriptor) match.ShapeCompatibility {
	best := match.ShapeIncompatible

	for _, fa := range as {
		for _, fb := range bs {
			if c := match.ScoreShape(fa.Shape(), fb.Shape()); c > best {
				best = c
			}
		}
	}

	return best
}

// Classify returns every kind whose conditions hold for the pair, in
// priority order. Self-pairs classify as nothing.
func (s *Scorer) Classify(a, b *schema.NormalizedSchema, m Measurement) []Kind {
	if a.Ref() == b.Ref() {
		return nil
	}

	var kinds []Kind

	shared := len(m.CommonFields)

	if shared > 0 && m.Score >= s.cfg.SimilarThreshold {
		kinds = append(kinds, KindSimilarSchema)
	}

	if shared >= 1 && (s.cfg.CommonFieldsLimit == 0 || shared < s.cfg.CommonFieldsLimit) &&
		m.Score < s.cfg.SimilarThreshold && m.Score >= s.cfg.MinCommonScore {
		kinds = append(kinds, KindCommonFields)
	}

	if isDataFlow(a, b, m) {
		kinds = append(kinds, KindDataFlow)
	}

	if isCrudPair(a, b, m) {
		kinds = append(kinds, KindCrudPair)
	}

	return kinds
}

func isDataFlow(a, b *schema.NormalizedSchema, m Measurement) bool {
	if len(m.SharedIdentifiers) == 0 || a.Owner.ID == b.Owner.ID {
		return false
	}

	return (a.Role == schema.RoleResponse && b.Role == schema.RoleRequest) ||
		(a.Role == schema.RoleRequest && b.Role == schema.RoleResponse)
}

func isCrudPair(a, b *schema.NormalizedSchema, m Measurement) bool {
	if len(m.SharedIdentifiers) == 0 || a.Owner.ID == b.Owner.ID {
		return false
	}

	if a.Owner.Kind != schema.OwnerEndpoint || b.Owner.Kind != schema.OwnerEndpoint {
		return false
	}

	if a.Owner.Service != b.Owner.Service {
		return false
	}

	return match.CrudRelated(a.Owner.Method, a.Owner.Path, b.Owner.Method, b.Owner.Path)
}

// Score compares two schemas and returns the highest-priority relationship.
// The boolean is false when no kind applies, including for self-pairs.
// Score(a, b) and Score(b, a) return the same result.
func (s *Scorer) Score(a, b *schema.NormalizedSchema) (Result, bool) {
	results := s.ScoreAll(a, b)
	if len(results) == 0 {
		return Result{}, false
	}

	return results[0], true
}

// ScoreAll returns one result per applicable kind, in priority order.
func (s *Scorer) ScoreAll(a, b *schema.NormalizedSchema) []Result {
	m := s.Measure(a, b)

	kinds := s.Classify(a, b, m)
	if len(kinds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(kinds))
	for _, k := range kinds {
		results = append(results, newResult(a, b, k, m))
	}

	return results
}

func newResult(a, b *schema.NormalizedSchema, kind Kind, m Measurement) Result {
	first, second := a, b

	if kind == KindDataFlow {
		if first.Role != schema.RoleResponse {
			first, second = second, first
		}
	} else if second.Ref().Less(first.Ref()) {
		first, second = second, first
	}

	return Result{
		SchemaA:      first.Ref(),
		SchemaB:      second.Ref(),
		Kind:         kind,
		Score:        m.Score,
		Jaccard:      m.Jaccard,
		CommonFields: m.CommonFields,
	}
}
