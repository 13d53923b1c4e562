package relate

import (
	"sort"

	"schema-atlas/internal/common"
	"schema-atlas/internal/diagnostic"
	"schema-atlas/internal/fingerprint"
	"schema-atlas/internal/schema"
	"schema-atlas/internal/similarity"
)

// Skipped is an input excluded from analysis.
type Skipped struct {
	Ref    schema.Ref   `yaml:"ref" json:"ref"`
	Owner  schema.Owner `yaml:"owner" json:"owner"`
	Reason string       `yaml:"reason" json:"reason"`
}

// OwnerConnections counts the relationships an owner takes part in.
type OwnerConnections struct {
	Owner         string `yaml:"owner" json:"owner"`
	Relationships int    `yaml:"relationships" json:"relationships"`
}

// Stats summarizes a run.
type Stats struct {
	Inputs        int                `yaml:"inputs" json:"inputs"`
	Schemas       int                `yaml:"schemas" json:"schemas"`
	Skipped       int                `yaml:"skipped" json:"skipped"`
	Signatures    int                `yaml:"signatures" json:"signatures"`
	Candidates    int                `yaml:"candidates" json:"candidates"`
	Scored        int                `yaml:"scored" json:"scored"`
	Relationships int                `yaml:"relationships" json:"relationships"`
	ByKind        map[string]int     `yaml:"by_kind" json:"by_kind"`
	AverageScore  float64            `yaml:"average_score" json:"average_score"`
	MostConnected []OwnerConnections `yaml:"most_connected,omitempty" json:"most_connected,omitempty"`
}

// Report is the outcome of one analysis run.
type Report struct {
	RunID string `yaml:"run_id" json:"run_id"`
	// Schemas lists the refs that normalized, sorted. Together with Skipped
	// it is everything the run looked at.
	Schemas []schema.Ref `yaml:"schemas,omitempty" json:"schemas,omitempty"`
	// Results is sorted by unordered pair, then kind.
	Results []similarity.Result `yaml:"results" json:"results"`
	Skipped []Skipped           `yaml:"skipped,omitempty" json:"skipped,omitempty"`
	// Truncated is set when the run was cancelled before every candidate
	// pair was scored. Results then holds only fully scored pairs.
	Truncated    bool                     `yaml:"truncated" json:"truncated"`
	Stats        Stats                    `yaml:"stats" json:"stats"`
	CommonFields []fingerprint.FieldUsage `yaml:"common_fields,omitempty" json:"common_fields,omitempty"`
	Diagnostics  diagnostic.Diagnostics   `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty"`
}

// Involving returns the results that include the given owner on either side.
func (r *Report) Involving(owner string) []similarity.Result {
	var out []similarity.Result

	for _, res := range r.Results {
		if res.SchemaA.Owner == owner || res.SchemaB.Owner == owner {
			out = append(out, res)
		}
	}

	return out
}

// ByKind returns the results of one kind.
func (r *Report) ByKind(kind similarity.Kind) []similarity.Result {
	var out []similarity.Result

	for _, res := range r.Results {
		if res.Kind == kind {
			out = append(out, res)
		}
	}

	return out
}

// dedupe keeps one result per pair key and sorts them.
func dedupe(results []similarity.Result) []similarity.Result {
	seen := make(map[similarity.PairKey]struct{}, len(results))
	out := make([]similarity.Result, 0, len(results))

	for _, res := range results {
		key := res.Key()
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, res)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().Less(out[j].Key())
	})

	return out
}

func (r *Report) summarize(limit int) {
	r.Stats.Relationships = len(r.Results)
	r.Stats.ByKind = make(map[string]int)

	var total float64

	connections := make(map[string]int)

	for _, res := range r.Results {
		r.Stats.ByKind[res.Kind.String()]++
		total += res.Score

		connections[res.SchemaA.Owner]++
		if res.SchemaB.Owner != res.SchemaA.Owner {
			connections[res.SchemaB.Owner]++
		}
	}

	if len(r.Results) > 0 {
		r.Stats.AverageScore = common.Round(total/float64(len(r.Results)), 4)
	}

	owners := make([]OwnerConnections, 0, len(connections))
	for _, owner := range common.SortedKeys(connections) {
		owners = append(owners, OwnerConnections{Owner: owner, Relationships: connections[owner]})
	}

	sort.SliceStable(owners, func(i, j int) bool {
		return owners[i].Relationships > owners[j].Relationships
	})

	if limit > 0 && len(owners) > limit {
		owners = owners[:limit]
	}

	r.Stats.MostConnected = owners
}
