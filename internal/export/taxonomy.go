package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"schema-atlas/internal/diagnostic"
	"schema-atlas/internal/taxonomy"
)

// SuggestionDocument is the exported form of categorization suggestions.
type SuggestionDocument struct {
	Version     string       `yaml:"version" json:"version"`
	Suggestions []Suggestion            `yaml:"suggestions" json:"suggestions"`
	Diagnostics []diagnostic.Diagnostic `yaml:"diagnostics,omitempty" json:"diagnostics,omitempty"`
}

// Suggestion is one exported categorization suggestion.
type Suggestion struct {
	Model       string   `yaml:"model" json:"model"`
	Path        string   `yaml:"path" json:"path"`
	Confidence  float64  `yaml:"confidence" json:"confidence"`
	New         bool     `yaml:"new" json:"new"`
	Fallbacks   []string `yaml:"fallbacks,omitempty" json:"fallbacks,omitempty"`
	NearMatches []string `yaml:"near_matches,omitempty" json:"near_matches,omitempty"`
}

// ExportSuggestions converts suggestions into their document form.
func ExportSuggestions(suggestions []taxonomy.Suggestion) *SuggestionDocument {
	doc := &SuggestionDocument{
		Version:     ReportVersion,
		Suggestions: make([]Suggestion, 0, len(suggestions)),
	}

	for _, s := range suggestions {
		var fallbacks []string
		for _, f := range s.Fallbacks {
			fallbacks = append(fallbacks, f.String())
		}

		doc.Suggestions = append(doc.Suggestions, Suggestion{
			Model:       s.Model.String(),
			Path:        strings.Join(s.Path, "/"),
			Confidence:  s.Confidence,
			New:         s.IsNew(),
			Fallbacks:   fallbacks,
			NearMatches: s.NearMatches,
		})
	}

	diags := taxonomy.Diagnose(suggestions)
	doc.Diagnostics = append(doc.Diagnostics, diags.Warnings...)
	doc.Diagnostics = append(doc.Diagnostics, diags.Infos...)

	return doc
}

// WriteSuggestions writes suggestions in the given format.
func WriteSuggestions(w io.Writer, format Format, suggestions []taxonomy.Suggestion) error {
	doc := ExportSuggestions(suggestions)
	if format != FormatText {
		return Encode(w, format, doc)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "MODEL\tPATH\tCONFIDENCE\tNOTES\n")

	for _, s := range doc.Suggestions {
		notes := strings.Join(s.Fallbacks, ", ")
		if len(s.NearMatches) > 0 {
			notes = strings.TrimPrefix(notes+"; similar to "+strings.Join(s.NearMatches, ", "), "; ")
		}

		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", s.Model, s.Path, s.Confidence, notes)
	}

	return tw.Flush()
}

// WriteTree writes a taxonomy tree: the node list for YAML/JSON, an outline for text.
func WriteTree(w io.Writer, format Format, tree *taxonomy.Tree) error {
	if format != FormatText {
		return Encode(w, format, tree.Nodes())
	}

	return tree.Render(w)
}
