package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.85, cfg.Similarity.JaccardWeight)
	assert.Equal(t, 10, cfg.Normalize.MaxDepth)
	assert.True(t, cfg.Analysis.EmitSecondaryKinds)
	assert.Equal(t, "Response Models", cfg.Taxonomy.ResponseBucket)
}

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
similarity:
  similar_threshold: 0.8
  common_fields_limit: 5
analysis:
  workers: 3
  timeout: 30s
  emit_secondary_kinds: false
taxonomy:
  ignore_segments: [api, rest]
log:
  level: DEBUG
`))
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.Similarity.SimilarThreshold)
	assert.Equal(t, 0.85, cfg.Similarity.JaccardWeight)
	assert.Equal(t, 5, cfg.Similarity.CommonFieldsLimit)
	assert.Equal(t, 3, cfg.Analysis.Workers)
	assert.Equal(t, 30*time.Second, cfg.Analysis.Timeout)
	assert.False(t, cfg.Analysis.EmitSecondaryKinds)
	assert.Equal(t, []string{"api", "rest"}, cfg.Taxonomy.IgnoreSegments)
	assert.Equal(t, "Request Models", cfg.Taxonomy.RequestBucket)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("similarity: [unclosed"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()

	err := applyEnv(&cfg, env(map[string]string{
		"SCHEMA_ATLAS_WORKERS":              "8",
		"SCHEMA_ATLAS_SIMILAR_THRESHOLD":    "0.95",
		"SCHEMA_ATLAS_TIMEOUT":              "2m",
		"SCHEMA_ATLAS_EMIT_SECONDARY_KINDS": "false",
		"SCHEMA_ATLAS_LOG_FORMAT":           "JSON",
		"SCHEMA_ATLAS_DB":                   "/tmp/atlas.db",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Analysis.Workers)
	assert.Equal(t, 0.95, cfg.Similarity.SimilarThreshold)
	assert.Equal(t, 2*time.Minute, cfg.Analysis.Timeout)
	assert.False(t, cfg.Analysis.EmitSecondaryKinds)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/atlas.db", cfg.Store.Path)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	cfg := Default()

	err := applyEnv(&cfg, env(map[string]string{
		"SCHEMA_ATLAS_WORKERS":   "many",
		"SCHEMA_ATLAS_MAX_DEPTH": "1.5",
		"SCHEMA_ATLAS_TIMEOUT":   "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCHEMA_ATLAS_WORKERS")
	assert.Contains(t, err.Error(), "SCHEMA_ATLAS_MAX_DEPTH")
	assert.Contains(t, err.Error(), "SCHEMA_ATLAS_TIMEOUT")

	// Invalid values leave the previous setting in place.
	assert.Equal(t, Default().Analysis.Workers, cfg.Analysis.Workers)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"threshold", func(c *Config) { c.Similarity.SimilarThreshold = 1.5 }, "similarity:"},
		{"workers", func(c *Config) { c.Analysis.Workers = -2 }, "workers"},
		{"depth", func(c *Config) { c.Normalize.MaxDepth = -1 }, "max_depth"},
		{"level", func(c *Config) { c.Log.Level = "loud" }, "unknown level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "format"},
		{"taxonomy", func(c *Config) { c.Taxonomy.FallbackPenalty = 2 }, "taxonomy:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile_RoundTrip(t *testing.T) {
	t.Setenv("SCHEMA_ATLAS_WORKERS", "")
	t.Setenv("SCHEMA_ATLAS_LOG_LEVEL", "warn")

	cfg := Default()
	cfg.Analysis.Workers = 6
	cfg.Store.Path = "atlas.db"

	path := filepath.Join(t.TempDir(), "atlas.yaml")
	require.NoError(t, WriteFile(&cfg, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 6, loaded.Analysis.Workers)
	assert.Equal(t, "atlas.db", loaded.Store.Path)
	assert.Equal(t, "warn", loaded.Log.Level)
	assert.Equal(t, cfg.Analysis.Timeout, loaded.Analysis.Timeout)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRelate(t *testing.T) {
	cfg := Default()
	cfg.Analysis.Workers = 2

	rc := cfg.Relate(nil)
	assert.Equal(t, 2, rc.Workers)
	assert.Equal(t, 10, rc.MaxDepth)
	assert.True(t, rc.EmitSecondaryKinds)
	require.NoError(t, rc.Validate())
}
