package taxonomy

import (
	"fmt"
	"regexp"
	"strings"
)

// Config controls the categorizer.
type Config struct {
	RequestBucket   string `yaml:"request_bucket"`
	ResponseBucket  string `yaml:"response_bucket"`
	ComponentBucket string `yaml:"component_bucket"`
	// BaseConfidence is the confidence of a suggestion that needed no fallback.
	BaseConfidence float64 `yaml:"base_confidence"`
	// FallbackPenalty is subtracted once per fallback applied.
	FallbackPenalty float64 `yaml:"fallback_penalty"`
	// IgnoreSegments are path segments skipped when extracting the resource,
	// compared case-insensitively. Version segments (v1, v2.1) are always skipped.
	IgnoreSegments []string `yaml:"ignore_segments"`
	// NearMatchDistance is the edit distance under which an existing sibling
	// is reported as a possible duplicate of a new resource bucket.
	NearMatchDistance int `yaml:"near_match_distance"`
}

// Defaults.
const (
	DefaultRequestBucket   = "Request Models"
	DefaultResponseBucket  = "Response Models"
	DefaultComponentBucket = "Component Models"
	DefaultBaseConfidence  = 0.9
	DefaultFallbackPenalty = 0.2
	DefaultNearMatch       = 2
)

// DefaultConfig returns the default categorizer configuration.
func DefaultConfig() Config {
	return Config{
		RequestBucket:     DefaultRequestBucket,
		ResponseBucket:    DefaultResponseBucket,
		ComponentBucket:   DefaultComponentBucket,
		BaseConfidence:    DefaultBaseConfidence,
		FallbackPenalty:   DefaultFallbackPenalty,
		IgnoreSegments:    []string{"api"},
		NearMatchDistance: DefaultNearMatch,
	}
}

// Validate checks bucket names and confidence settings.
func (c Config) Validate() error {
	buckets := map[string]string{}

	for _, b := range []struct{ field, name string }{
		{"request_bucket", c.RequestBucket},
		{"response_bucket", c.ResponseBucket},
		{"component_bucket", c.ComponentBucket},
	} {
		field, name := b.field, b.name

		key := nameKey(name)
		if key == "" {
			return fmt.Errorf("%s must not be empty", field)
		}

		if other, dup := buckets[key]; dup {
			return fmt.Errorf("%s and %s must differ (both %q)", field, other, name)
		}

		buckets[key] = field
	}

	if c.BaseConfidence <= 0 || c.BaseConfidence > 1 {
		return fmt.Errorf("base_confidence must be in (0, 1] (got %.2f)", c.BaseConfidence)
	}

	if c.FallbackPenalty < 0 || c.FallbackPenalty > 1 {
		return fmt.Errorf("fallback_penalty must be in [0, 1] (got %.2f)", c.FallbackPenalty)
	}

	if c.NearMatchDistance < 0 {
		return fmt.Errorf("near_match_distance cannot be negative (got %d)", c.NearMatchDistance)
	}

	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+(\.\d+)*$`)

func (c Config) ignored(segment string) bool {
	s := strings.ToLower(segment)
	if versionSegment.MatchString(s) {
		return true
	}

	for _, ig := range c.IgnoreSegments {
		if strings.EqualFold(ig, s) {
			return true
		}
	}

	return false
}
