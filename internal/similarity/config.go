package similarity

import "fmt"

// Config holds the scoring weights and classification thresholds.
type Config struct {
	// JaccardWeight scales the signature Jaccard similarity.
	JaccardWeight float64 `yaml:"jaccard_weight"`
	// StructuralWeight caps the bonus for shape-preserving matches.
	StructuralWeight float64 `yaml:"structural_weight"`
	// SimilarThreshold is the minimum score for similar_schema.
	SimilarThreshold float64 `yaml:"similar_threshold"`
	// CommonFieldsLimit is the exclusive upper bound on shared signatures for
	// common_fields. Zero means no upper bound.
	CommonFieldsLimit int `yaml:"common_fields_limit"`
	// MinCommonScore is the minimum score for common_fields.
	MinCommonScore float64 `yaml:"min_common_score"`
}

// Default weights and thresholds.
const (
	DefaultJaccardWeight    = 0.85
	DefaultStructuralWeight = 0.15
	DefaultSimilarThreshold = 0.9
)

// DefaultConfig returns the default scoring configuration.
func DefaultConfig() Config {
	return Config{
		JaccardWeight:    DefaultJaccardWeight,
		StructuralWeight: DefaultStructuralWeight,
		SimilarThreshold: DefaultSimilarThreshold,
	}
}

// Validate checks that weights and thresholds are in range.
func (c Config) Validate() error {
	if c.JaccardWeight < 0 || c.StructuralWeight < 0 {
		return fmt.Errorf("weights must not be negative (jaccard=%.2f, structural=%.2f)",
			c.JaccardWeight, c.StructuralWeight)
	}

	if sum := c.JaccardWeight + c.StructuralWeight; sum <= 0 || sum > 1.0001 {
		return fmt.Errorf("jaccard_weight + structural_weight must be in (0, 1] (got %.2f)", sum)
	}

	if c.SimilarThreshold <= 0 || c.SimilarThreshold > 1 {
		return fmt.Errorf("similar_threshold must be in (0, 1] (got %.2f)", c.SimilarThreshold)
	}

	if c.CommonFieldsLimit < 0 {
		return fmt.Errorf("common_fields_limit cannot be negative (got %d)", c.CommonFieldsLimit)
	}

	if c.MinCommonScore < 0 || c.MinCommonScore > 1 {
		return fmt.Errorf("min_common_score must be in [0, 1] (got %.2f)", c.MinCommonScore)
	}

	return nil
}
