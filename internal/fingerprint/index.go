package fingerprint

import (
	"sort"

	"schema-atlas/internal/common"
	"schema-atlas/internal/match"
	"schema-atlas/internal/schema"
)

// Index maps field signatures to the schemas that contain them.
// Schemas are addressed by their position in the slice given to Build.
type Index struct {
	schemas  []schema.NormalizedSchema
	postings map[schema.Signature][]int
}

// Build aggregates the signatures of every schema. Positions in each posting
// list are ascending and distinct.
func Build(schemas []schema.NormalizedSchema) *Index {
	ix := &Index{
		schemas:  schemas,
		postings: make(map[schema.Signature][]int),
	}

	for pos := range schemas {
		for _, sig := range schemas[pos].Signatures() {
			ix.postings[sig] = append(ix.postings[sig], pos)
		}
	}

	return ix
}

// Len returns the number of distinct signatures.
func (ix *Index) Len() int {
	return len(ix.postings)
}

// Schema returns the schema at pos.
func (ix *Index) Schema(pos int) *schema.NormalizedSchema {
	return &ix.schemas[pos]
}

// Signatures returns all indexed signatures in ascending order.
func (ix *Index) Signatures() []schema.Signature {
	return common.SortedKeys(ix.postings)
}

// Positions returns the positions of the schemas containing sig.
// The returned slice must not be modified.
func (ix *Index) Positions(sig schema.Signature) []int {
	return ix.postings[sig]
}

// Refs returns the schemas containing sig.
func (ix *Index) Refs(sig schema.Signature) []schema.Ref {
	positions := ix.postings[sig]

	refs := make([]schema.Ref, 0, len(positions))
	for _, pos := range positions {
		refs = append(refs, ix.schemas[pos].Ref())
	}

	return refs
}

// Owners returns the distinct owner ids whose schemas contain sig, sorted.
func (ix *Index) Owners(sig schema.Signature) []string {
	positions := ix.postings[sig]

	owners := make([]string, 0, len(positions))
	for _, pos := range positions {
		owners = append(owners, ix.schemas[pos].Owner.ID)
	}

	return common.SortedSet(owners)
}

// Mapping returns the full signature -> owner ids view.
func (ix *Index) Mapping() map[schema.Signature][]string {
	out := make(map[schema.Signature][]string, len(ix.postings))
	for sig := range ix.postings {
		out[sig] = ix.Owners(sig)
	}

	return out
}

// Candidates returns every pair of schemas sharing at least one signature,
// with the number of shared signatures, in position order.
func (ix *Index) Candidates() match.CandidateList {
	counts := make(map[[2]int]int)

	for _, positions := range ix.postings {
		for i := 0; i < len(positions); i++ {
			for j := i + 1; j < len(positions); j++ {
				counts[[2]int{positions[i], positions[j]}]++
			}
		}
	}

	list := make(match.CandidateList, 0, len(counts))
	for key, shared := range counts {
		list = append(list, match.NewCandidatePair(key[0], key[1], shared))
	}

	return list.Sorted()
}

// SharedWith returns the schemas that share at least one signature with the
// schema at pos, as candidate pairs involving pos.
func (ix *Index) SharedWith(pos int) match.CandidateList {
	counts := make(map[int]int)

	for _, sig := range ix.schemas[pos].Signatures() {
		for _, other := range ix.postings[sig] {
			if other != pos {
				counts[other]++
			}
		}
	}

	list := make(match.CandidateList, 0, len(counts))
	for other, shared := range counts {
		list = append(list, match.NewCandidatePair(pos, other, shared))
	}

	return list.Sorted()
}

// FieldUsage summarizes how widely one signature is used.
type FieldUsage struct {
	Signature schema.Signature `yaml:"signature" json:"signature"`
	Schemas   int              `yaml:"schemas" json:"schemas"`
	Owners    int              `yaml:"owners" json:"owners"`
	Services  []string         `yaml:"services,omitempty" json:"services,omitempty"`
}

// CrossService reports whether the field appears in more than one service.
func (u FieldUsage) CrossService() bool {
	return len(u.Services) > 1
}

// CommonFields returns signatures used by at least two owners, most used
// first. limit <= 0 returns all of them.
func (ix *Index) CommonFields(limit int) []FieldUsage {
	var usages []FieldUsage

	for sig, positions := range ix.postings {
		owners := ix.Owners(sig)
		if len(owners) < 2 {
			continue
		}

		var services []string
		for _, pos := range positions {
			if svc := ix.schemas[pos].Owner.Service; svc != "" {
				services = append(services, svc)
			}
		}

		usages = append(usages, FieldUsage{
			Signature: sig,
			Schemas:   len(positions),
			Owners:    len(owners),
			Services:  common.SortedSet(services),
		})
	}

	sort.Slice(usages, func(i, j int) bool {
		if usages[i].Owners != usages[j].Owners {
			return usages[i].Owners > usages[j].Owners
		}

		return usages[i].Signature < usages[j].Signature
	})

	if limit > 0 && len(usages) > limit {
		usages = usages[:limit]
	}

	return usages
}
