package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnostics_Collect(t *testing.T) {
	var d Diagnostics

	assert.True(t, d.IsValid())
	require.NoError(t, d.Error())

	d.AddWarning(CodeNormalizationFailed, "properties must be an object", "users#request", "address")
	d.AddInfo(CodeTaxonomyFallback, "resource derived from model name", "Pet#component", "")
	d.AddError(CodeTaxonomyInvalid, "cycle at node 3", "", "")

	assert.Equal(t, 3, d.Len())
	assert.True(t, d.HasErrors())
	assert.EqualError(t, d.Error(), "[taxonomy_invalid] cycle at node 3")
	assert.Len(t, d.ByCode(CodeNormalizationFailed), 1)
	assert.Empty(t, d.ByCode(CodeRunCancelled))
}

func TestDiagnostic_String(t *testing.T) {
	tests := []struct {
		name string
		diag Diagnostic
		want string
	}{
		{
			name: "full",
			diag: Diagnostic{Code: "c", Message: "m", Subject: "a#response", Path: "user.id"},
			want: "[a#response] user.id: [c] m",
		},
		{
			name: "message only",
			diag: Diagnostic{Message: "m"},
			want: "m",
		},
		{
			name: "path only",
			diag: Diagnostic{Message: "m", Path: "Response Models/orders"},
			want: "Response Models/orders: m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.diag.String())
		})
	}
}

func TestDiagnostics_Merge(t *testing.T) {
	var a, b Diagnostics

	a.AddWarning("w", "one", "", "")
	b.AddWarning("w", "two", "", "")
	b.AddError("e", "bad", "", "")

	a.Merge(b)

	assert.Len(t, a.Warnings, 2)
	assert.Len(t, a.Errors, 1)
}

func TestSeverity_Text(t *testing.T) {
	for _, s := range []Severity{SeverityInfo, SeverityWarning, SeverityError} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back Severity
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}

	var s Severity
	assert.Error(t, s.UnmarshalText([]byte("fatal")))
	assert.Equal(t, "unknown", Severity(9).String())
}
