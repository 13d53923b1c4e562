package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-atlas/internal/schema"
)

const petstoreDoc = `
openapi: 3.0.3
info:
  title: petstore
  version: "1.0"
paths:
  /pets:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: "#/components/schemas/Pet"
components:
  schemas:
    Pet:
      type: object
      properties:
        id: {type: integer}
        name: {type: string}
`

const usersManifest = `
version: "1"
service: users
inputs:
  - owner: {kind: endpoint, method: get, path: "/users/{id}"}
    role: response
    schema_file: user.json
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestIsOpenAPI(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{"openapi yaml", petstoreDoc, true},
		{"openapi json", `{"openapi": "3.1.0", "info": {}}`, true},
		{"swagger", `swagger: "2.0"`, true},
		{"manifest", usersManifest, false},
		{"not yaml", "::: [", false},
		{"scalar", "42", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isOpenAPI([]byte(tt.data)))
		})
	}
}

func TestLoadInputs_MixedSources(t *testing.T) {
	dir := t.TempDir()

	doc := writeFile(t, dir, "petstore.yaml", petstoreDoc)
	manifest := writeFile(t, dir, "users.yaml", usersManifest)
	writeFile(t, dir, "user.json", `{"type": "object", "properties": {"id": {"type": "integer"}, "email": {"type": "string"}}}`)

	log := slog.New(slog.DiscardHandler)

	in, diags, err := loadInputs(context.Background(), []string{doc, manifest}, sourceOptions{}, log)
	require.NoError(t, err)
	assert.Equal(t, 0, diags.Len())

	// GET /pets response, the Pet component, then the manifest entry.
	require.Len(t, in, 3)
	assert.Equal(t, "petstore", in[0].Owner.Service)
	assert.Equal(t, schema.RoleResponse, in[0].Role)
	assert.Equal(t, schema.RoleComponent, in[1].Role)
	assert.Equal(t, "users", in[2].Owner.Service)
	assert.Equal(t, "GET", in[2].Owner.Method)
	assert.IsType(t, []byte(nil), in[2].Schema)
}

func TestLoadInputs_ServiceOverrideAndSkipComponents(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "petstore.yaml", petstoreDoc)

	in, _, err := loadInputs(context.Background(), []string{doc},
		sourceOptions{service: "pets-v2", skipComponents: true}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "pets-v2", in[0].Owner.Service)
}

func TestLoadInputs_Errors(t *testing.T) {
	dir := t.TempDir()
	log := slog.New(slog.DiscardHandler)

	_, _, err := loadInputs(context.Background(), []string{filepath.Join(dir, "missing.yaml")}, sourceOptions{}, log)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := writeFile(t, dir, "bad.yaml", "inputs:\n  - role: response\n")
	_, _, err = loadInputs(context.Background(), []string{bad}, sourceOptions{}, log)
	assert.Error(t, err)

	dangling := writeFile(t, dir, "dangling.yaml", usersManifest)
	_, _, err = loadInputs(context.Background(), []string{dangling}, sourceOptions{}, log)
	assert.Error(t, err)
}
