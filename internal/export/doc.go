// Package export renders analysis reports, taxonomy suggestions and trees
// as YAML, JSON or plain text for review and for downstream tooling.
package export
