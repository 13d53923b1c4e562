package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"schema-atlas/internal/diagnostic"
	"schema-atlas/internal/inputs"
	"schema-atlas/internal/openapi"
	"schema-atlas/internal/schema"
)

// sourceOptions controls how input files are read.
type sourceOptions struct {
	service        string
	skipComponents bool
	validate       bool
}

// loadInputs reads every path as an OpenAPI document or an input manifest,
// in order, and concatenates their inputs.
func loadInputs(ctx context.Context, paths []string, opts sourceOptions, log *slog.Logger) ([]schema.Input, diagnostic.Diagnostics, error) {
	var (
		all   []schema.Input
		diags diagnostic.Diagnostics
	)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, diags, fmt.Errorf("failed to read %s: %w", path, err)
		}

		if isOpenAPI(data) {
			res, err := openapi.Import(ctx, data, openapi.Options{
				Service:        opts.service,
				SkipComponents: opts.skipComponents,
				Validate:       opts.validate,
				Logger:         log,
			})
			if err != nil {
				return nil, diags, fmt.Errorf("%s: %w", path, err)
			}

			diags.Merge(res.Diagnostics)
			all = append(all, res.Inputs...)

			continue
		}

		m, err := inputs.Parse(data)
		if err != nil {
			return nil, diags, fmt.Errorf("%s: %w", path, err)
		}

		resolved, err := m.Resolve(filepath.Dir(path))
		if err != nil {
			return nil, diags, fmt.Errorf("%s: %w", path, err)
		}

		log.Debug("loaded manifest", slog.String("path", path), slog.Int("inputs", len(resolved)))
		all = append(all, resolved...)
	}

	return all, diags, nil
}

// isOpenAPI reports whether data is a JSON or YAML document with a top-level
// "openapi" or "swagger" key.
func isOpenAPI(data []byte) bool {
	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return false
	}

	_, oas3 := probe["openapi"]
	_, oas2 := probe["swagger"]

	return oas3 || oas2
}
