package taxonomy

import (
	"fmt"
	"strings"

	"schema-atlas/internal/diagnostic"
)

// Diagnose records the heuristics suggestions fell back on and the new
// buckets that sit close to an existing sibling.
func Diagnose(suggestions []Suggestion) diagnostic.Diagnostics {
	var d diagnostic.Diagnostics

	for _, s := range suggestions {
		subject := s.Model.String()
		path := strings.Join(s.Path, "/")

		for _, f := range s.Fallbacks {
			d.AddInfo(diagnostic.CodeTaxonomyFallback,
				fmt.Sprintf("fell back on %s (confidence %.2f)", f, s.Confidence), subject, path)
		}

		if len(s.NearMatches) > 0 {
			d.AddWarning(diagnostic.CodeNearDuplicateNode,
				fmt.Sprintf("new bucket %q is close to existing %s", s.Path[len(s.Path)-1], strings.Join(s.NearMatches, ", ")),
				subject, path)
		}
	}

	return d
}

// Diagnostic describes the violation as an error diagnostic.
func (e *InvalidStateError) Diagnostic() diagnostic.Diagnostic {
	return diagnostic.Diagnostic{
		Severity: diagnostic.SeverityError,
		Code:     diagnostic.CodeTaxonomyInvalid,
		Message:  e.Reason,
		Subject:  fmt.Sprintf("node %d", e.NodeID),
	}
}
