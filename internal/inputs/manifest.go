package inputs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"schema-atlas/internal/schema"
)

// CurrentVersion is written into new manifests.
const CurrentVersion = "1"

// Manifest is an input set.
type Manifest struct {
	Version string `yaml:"version"`
	// Service is the default service of entries that name none.
	Service string  `yaml:"service,omitempty"`
	Inputs  []Entry `yaml:"inputs"`
}

// Entry is one schema of one owner.
type Entry struct {
	Owner schema.Owner `yaml:"owner"`
	Role  schema.Role  `yaml:"role"`
	// Schema is the inline schema document.
	Schema any `yaml:"schema,omitempty"`
	// SchemaFile is a JSON or YAML schema file, relative to the manifest.
	SchemaFile string `yaml:"schema_file,omitempty"`
}

// LoadFile loads and parses a manifest from the given path.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML or JSON data into a Manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest

	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	applyDefaults(&m)

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(m *Manifest) {
	if m.Version == "" {
		m.Version = CurrentVersion
	}

	for i := range m.Inputs {
		o := &m.Inputs[i].Owner

		if o.Service == "" {
			o.Service = m.Service
		}

		o.Method = strings.ToUpper(strings.TrimSpace(o.Method))

		if o.ID == "" {
			o.ID = DefaultOwnerID(*o)
		}
	}
}

// DefaultOwnerID derives an owner id: "service:METHOD /path" for endpoints,
// "service:Name" for models. The service prefix is omitted when empty.
func DefaultOwnerID(o schema.Owner) string {
	var id string

	switch o.Kind {
	case schema.OwnerModel:
		id = o.Name
	default:
		id = strings.TrimSpace(o.Method + " " + o.Path)
	}

	if id == "" {
		return ""
	}

	if o.Service != "" {
		return o.Service + ":" + id
	}

	return id
}

// Validate checks that every entry has an owner id and a role and names at
// most one schema source.
func (m *Manifest) Validate() error {
	var errs []error

	for i, e := range m.Inputs {
		if e.Owner.ID == "" {
			errs = append(errs, fmt.Errorf("inputs[%d]: owner needs an id, a path or a name", i))
		}

		if e.Role == schema.RoleUnknown {
			errs = append(errs, fmt.Errorf("inputs[%d]: role is required", i))
		}

		if e.Schema != nil && e.SchemaFile != "" {
			errs = append(errs, fmt.Errorf("inputs[%d]: schema and schema_file are mutually exclusive", i))
		}
	}

	return errors.Join(errs...)
}

// Resolve turns entries into analysis inputs, reading schema files relative
// to baseDir. File contents are passed on undecoded so that a malformed file
// is skipped by the analysis instead of failing the load.
func (m *Manifest) Resolve(baseDir string) ([]schema.Input, error) {
	out := make([]schema.Input, 0, len(m.Inputs))

	for i, e := range m.Inputs {
		in := schema.Input{Owner: e.Owner, Role: e.Role, Schema: e.Schema}

		if e.SchemaFile != "" {
			path := e.SchemaFile
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("inputs[%d]: failed to read schema file: %w", i, err)
			}

			in.Schema = data
		}

		out = append(out, in)
	}

	return out, nil
}

// FromInputs builds a manifest holding inputs inline. Byte schemas are decoded.
func FromInputs(service string, inputs []schema.Input) (*Manifest, error) {
	m := &Manifest{Version: CurrentVersion, Service: service}

	for _, in := range inputs {
		doc := in.Schema

		if raw, ok := doc.([]byte); ok {
			decoded, err := schema.Decode(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", in.Ref(), err)
			}

			doc = decoded
		}

		m.Inputs = append(m.Inputs, Entry{Owner: in.Owner, Role: in.Role, Schema: doc})
	}

	return m, nil
}

// Marshal serializes a Manifest to YAML.
func Marshal(m *Manifest) ([]byte, error) {
	return yaml.Marshal(m)
}

// WriteFile writes a Manifest to the given path.
func WriteFile(m *Manifest, path string) error {
	data, err := Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}

	return nil
}
