package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"schema-atlas/internal/common"
	"schema-atlas/internal/diagnostic"
	"schema-atlas/internal/fingerprint"
	"schema-atlas/internal/relate"
	"schema-atlas/internal/similarity"
)

// ReportVersion is the version of the exported report document.
const ReportVersion = "1"

// ReportDocument is the exported form of an analysis report. Schema refs are
// flattened to "owner#role" strings.
type ReportDocument struct {
	Version       string                   `yaml:"version" json:"version"`
	RunID         string                   `yaml:"run_id" json:"run_id"`
	Truncated     bool                     `yaml:"truncated" json:"truncated"`
	Stats         relate.Stats             `yaml:"stats" json:"stats"`
	Relationships []Relationship           `yaml:"relationships" json:"relationships"`
	Skipped       []SkippedSchema          `yaml:"skipped,omitempty" json:"skipped,omitempty"`
	CommonFields  []fingerprint.FieldUsage `yaml:"common_fields,omitempty" json:"common_fields,omitempty"`
	Diagnostics   []diagnostic.Diagnostic  `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty"`
}

// Relationship is one exported result.
type Relationship struct {
	SchemaA      string   `yaml:"schema_a" json:"schema_a"`
	SchemaB      string   `yaml:"schema_b" json:"schema_b"`
	Kind         string   `yaml:"kind" json:"kind"`
	Score        float64  `yaml:"score" json:"score"`
	Jaccard      float64  `yaml:"jaccard" json:"jaccard"`
	CommonFields []string `yaml:"common_fields" json:"common_fields"`
}

// SkippedSchema is one exported skipped input.
type SkippedSchema struct {
	Schema string `yaml:"schema" json:"schema"`
	Reason string `yaml:"reason" json:"reason"`
}

// ExportReport converts a report into its document form.
func ExportReport(r *relate.Report) *ReportDocument {
	doc := &ReportDocument{
		Version:       ReportVersion,
		RunID:         r.RunID,
		Truncated:     r.Truncated,
		Stats:         r.Stats,
		Relationships: make([]Relationship, 0, len(r.Results)),
		CommonFields:  r.CommonFields,
	}

	for _, res := range r.Results {
		doc.Relationships = append(doc.Relationships, exportResult(res))
	}

	for _, s := range r.Skipped {
		doc.Skipped = append(doc.Skipped, SkippedSchema{Schema: s.Ref.String(), Reason: s.Reason})
	}

	doc.Diagnostics = append(doc.Diagnostics, r.Diagnostics.Errors...)
	doc.Diagnostics = append(doc.Diagnostics, r.Diagnostics.Warnings...)
	doc.Diagnostics = append(doc.Diagnostics, r.Diagnostics.Infos...)

	return doc
}

func exportResult(res similarity.Result) Relationship {
	fields := make([]string, 0, len(res.CommonFields))
	for _, sig := range res.CommonFields {
		fields = append(fields, string(sig))
	}

	return Relationship{
		SchemaA:      res.SchemaA.String(),
		SchemaB:      res.SchemaB.String(),
		Kind:         res.Kind.String(),
		Score:        res.Score,
		Jaccard:      res.Jaccard,
		CommonFields: fields,
	}
}

// WriteReport writes a report in the given format.
func WriteReport(w io.Writer, format Format, r *relate.Report) error {
	if format != FormatText {
		return Encode(w, format, ExportReport(r))
	}

	return writeReportText(w, r)
}

// WriteRelationships writes a bare list of results, as returned by a store query.
func WriteRelationships(w io.Writer, format Format, results []similarity.Result) error {
	if format != FormatText {
		out := make([]Relationship, 0, len(results))
		for _, res := range results {
			out = append(out, exportResult(res))
		}

		return Encode(w, format, out)
	}

	return writeResultsTable(w, results)
}

func writeResultsTable(w io.Writer, results []similarity.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "KIND\tSCORE\tSCHEMA A\tSCHEMA B\tCOMMON FIELDS\n")

	for _, res := range results {
		fields := make([]string, 0, len(res.CommonFields))
		for _, sig := range res.CommonFields {
			fields = append(fields, string(sig))
		}

		fmt.Fprintf(tw, "%s\t%.4f\t%s\t%s\t%s\n",
			res.Kind, res.Score, res.SchemaA, res.SchemaB, strings.Join(fields, ", "))
	}

	return tw.Flush()
}

func writeReportText(w io.Writer, r *relate.Report) error {
	if err := writeResultsTable(w, r.Results); err != nil {
		return err
	}

	for _, s := range r.Skipped {
		if _, err := fmt.Fprintf(w, "skipped %s: %s\n", s.Ref, s.Reason); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%d relationships across %d schemas (%d candidates, %d skipped)\n",
		r.Stats.Relationships, r.Stats.Schemas, r.Stats.Candidates, r.Stats.Skipped)

	return err
}

// WriteFieldUsage writes the common field analysis.
func WriteFieldUsage(w io.Writer, format Format, usages []fingerprint.FieldUsage) error {
	if format != FormatText {
		return Encode(w, format, usages)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "SIGNATURE\tOWNERS\tSCHEMAS\tSERVICES\n")

	for _, u := range usages {
		services := "-"
		if !common.IsEmpty(u.Services) {
			services = strings.Join(u.Services, ", ")
		}

		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", u.Signature, u.Owners, u.Schemas, services)
	}

	return tw.Flush()
}
