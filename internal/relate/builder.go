package relate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"schema-atlas/internal/diagnostic"
	"schema-atlas/internal/fingerprint"
	"schema-atlas/internal/schema"
	"schema-atlas/internal/similarity"
)

// ErrCancelled is returned, wrapped together with the context error, when a
// run stops before scoring every candidate pair.
var ErrCancelled = errors.New("analysis cancelled")

// Builder runs relationship analysis. It is safe for concurrent use; runs
// share nothing but the read-only configuration.
type Builder struct {
	cfg        Config
	scorer     *similarity.Scorer
	normalizer schema.Normalizer
	log        *slog.Logger
}

// NewBuilder validates cfg and creates a builder.
func NewBuilder(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	return &Builder{
		cfg:        cfg,
		scorer:     similarity.NewScorer(cfg.Similarity),
		normalizer: schema.Normalizer{MaxDepth: cfg.MaxDepth},
		log:        cfg.logger(),
	}, nil
}

// Normalize flattens every input. Inputs that fail normalization, and
// repeated refs after the first, are returned as skipped.
func (b *Builder) Normalize(inputs []schema.Input) ([]schema.NormalizedSchema, []Skipped) {
	var (
		schemas []schema.NormalizedSchema
		skipped []Skipped
	)

	seen := make(map[schema.Ref]struct{}, len(inputs))

	for _, in := range inputs {
		ref := in.Ref()

		if _, dup := seen[ref]; dup {
			skipped = append(skipped, Skipped{Ref: ref, Owner: in.Owner, Reason: "duplicate schema ref"})
			continue
		}

		seen[ref] = struct{}{}

		ns, err := b.normalizer.Normalize(in)
		if err != nil {
			skipped = append(skipped, Skipped{Ref: ref, Owner: in.Owner, Reason: err.Error()})
			continue
		}

		schemas = append(schemas, ns)
	}

	sort.SliceStable(skipped, func(i, j int) bool {
		return skipped[i].Ref.Less(skipped[j].Ref)
	})

	return schemas, skipped
}

// Analyze normalizes inputs and relates every candidate pair.
//
// Malformed inputs never fail the run. The only error is cancellation, in
// which case the returned report is still valid and has Truncated set.
func (b *Builder) Analyze(ctx context.Context, inputs []schema.Input) (*Report, error) {
	schemas, skipped := b.Normalize(inputs)

	for _, s := range skipped {
		b.log.Warn("skipping schema",
			slog.String("owner", s.Ref.Owner),
			slog.String("role", s.Ref.Role.String()),
			slog.String("reason", s.Reason))
	}

	report, err := b.AnalyzeSchemas(ctx, schemas)

	report.Skipped = skipped
	report.Stats.Inputs = len(inputs)
	report.Stats.Skipped = len(skipped)

	for _, s := range skipped {
		report.Diagnostics.AddWarning(diagnostic.CodeNormalizationFailed, s.Reason, s.Ref.String(), "")
	}

	return report, err
}

// AnalyzeSchemas relates already normalized schemas. Schemas must have
// distinct refs.
func (b *Builder) AnalyzeSchemas(ctx context.Context, schemas []schema.NormalizedSchema) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	report.Stats.Inputs = len(schemas)
	report.Stats.Schemas = len(schemas)

	for _, ns := range schemas {
		report.Schemas = append(report.Schemas, ns.Ref())
	}

	sort.Slice(report.Schemas, func(i, j int) bool {
		return report.Schemas[i].Less(report.Schemas[j])
	})

	// Index first; scoring only reads it.
	ix := fingerprint.Build(schemas)
	report.Stats.Signatures = ix.Len()
	report.CommonFields = ix.CommonFields(b.cfg.CommonFields)

	var candidates []pairJob

	for _, c := range ix.Candidates() {
		a, other := ix.Schema(c.A), ix.Schema(c.B)
		if a.Owner.ID == other.Owner.ID {
			continue
		}

		candidates = append(candidates, pairJob{a: a, b: other})
	}

	report.Stats.Candidates = len(candidates)

	b.log.Debug("scoring candidate pairs",
		slog.String("run_id", report.RunID),
		slog.Int("schemas", len(schemas)),
		slog.Int("candidates", len(candidates)))

	b.score(ctx, candidates)

	var results []similarity.Result

	for i := range candidates {
		job := &candidates[i]
		if !job.done {
			continue
		}

		report.Stats.Scored++

		if job.err != nil {
			b.log.Warn("pair scoring failed",
				slog.String("a", job.a.Ref().String()),
				slog.String("b", job.b.Ref().String()),
				slog.String("reason", job.err.Error()))
			report.Diagnostics.AddWarning(diagnostic.CodePairScoringFailed, job.err.Error(),
				job.a.Ref().String()+" "+job.b.Ref().String(), "")

			continue
		}

		results = append(results, job.results...)
	}

	report.Results = dedupe(results)
	report.summarize(b.mostConnected())

	if report.Stats.Scored < len(candidates) {
		report.Truncated = true
		report.Diagnostics.AddWarning(diagnostic.CodeRunCancelled,
			fmt.Sprintf("scored %d of %d candidate pairs", report.Stats.Scored, len(candidates)), report.RunID, "")

		b.log.Warn("analysis truncated",
			slog.String("run_id", report.RunID),
			slog.Int("scored", report.Stats.Scored),
			slog.Int("candidates", len(candidates)))

		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}

		return report, fmt.Errorf("%w: %w", ErrCancelled, cause)
	}

	return report, nil
}

func (b *Builder) mostConnected() int {
	if b.cfg.MostConnected > 0 {
		return b.cfg.MostConnected
	}

	return defaultMostConnected
}

// pairJob is one candidate pair. Each job is written by exactly one worker.
type pairJob struct {
	a, b    *schema.NormalizedSchema
	results []similarity.Result
	err     error
	done    bool
}

// score runs the jobs on a bounded worker pool, checking ctx between pairs.
func (b *Builder) score(ctx context.Context, jobs []pairJob) {
	var g errgroup.Group

	g.SetLimit(b.cfg.workers())

	for i := range jobs {
		if ctx.Err() != nil {
			break
		}

		job := &jobs[i]

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			job.results, job.err = b.scorePair(job.a, job.b)
			job.done = true

			return nil
		})
	}

	_ = g.Wait()
}

// scorePair turns a panic in scoring into an error so one bad pair cannot
// abort the run.
func (b *Builder) scorePair(x, y *schema.NormalizedSchema) (results []similarity.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			results, err = nil, fmt.Errorf("panic while scoring: %v", r)
		}
	}()

	results = b.scorer.ScoreAll(x, y)
	if !b.cfg.EmitSecondaryKinds && len(results) > 1 {
		results = results[:1]
	}

	return results, nil
}
