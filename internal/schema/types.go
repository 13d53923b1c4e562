package schema

import (
	"fmt"
	"strings"

	"schema-atlas/internal/common"
	"schema-atlas/internal/match"
)

// FieldType is the JSON Schema primitive type of a field.
type FieldType int

const (
	TypeUnknown FieldType = iota
	TypeString
	TypeInteger
	TypeNumber
	TypeBoolean
	TypeObject
	TypeArray
	TypeNull
)

var fieldTypeNames = map[FieldType]string{
	TypeUnknown: "unknown",
	TypeString:  "string",
	TypeInteger: "integer",
	TypeNumber:  "number",
	TypeBoolean: "boolean",
	TypeObject:  "object",
	TypeArray:   "array",
	TypeNull:    "null",
}

// String returns the JSON Schema name of the type.
func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}

	return common.UnknownStr
}

// ParseFieldType maps a JSON Schema type name to a FieldType.
// Unrecognized names return TypeUnknown and false.
func ParseFieldType(s string) (FieldType, bool) {
	for t, name := range fieldTypeNames {
		if name == s {
			return t, t != TypeUnknown
		}
	}

	return TypeUnknown, false
}

// IsContainer returns true for object and array types.
func (t FieldType) IsContainer() bool {
	return t == TypeObject || t == TypeArray
}

// MarshalText implements encoding.TextMarshaler.
func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *FieldType) UnmarshalText(text []byte) error {
	parsed, _ := ParseFieldType(string(text))
	*t = parsed

	return nil
}

// Role tells whether a schema describes a request body, a response body,
// or a shared component model.
type Role int

const (
	RoleUnknown Role = iota
	RoleRequest
	RoleResponse
	RoleComponent
)

// String returns a human-readable role name.
func (r Role) String() string {
	switch r {
	case RoleRequest:
		return "request"
	case RoleResponse:
		return "response"
	case RoleComponent:
		return "component"
	default:
		return common.UnknownStr
	}
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "request":
		return RoleRequest, nil
	case "response":
		return RoleResponse, nil
	case "component", "model":
		return RoleComponent, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown schema role %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}

	*r = parsed

	return nil
}

// OwnerKind distinguishes endpoints from extracted data models.
type OwnerKind int

const (
	OwnerEndpoint OwnerKind = iota
	OwnerModel
)

// String returns a human-readable owner kind.
func (k OwnerKind) String() string {
	switch k {
	case OwnerEndpoint:
		return "endpoint"
	case OwnerModel:
		return "model"
	default:
		return common.UnknownStr
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k OwnerKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *OwnerKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "endpoint":
		*k = OwnerEndpoint
	case "model", "component":
		*k = OwnerModel
	default:
		return fmt.Errorf("unknown owner kind %q", text)
	}

	return nil
}

// Owner identifies the endpoint or data model a schema belongs to.
type Owner struct {
	ID      string    `yaml:"id" json:"id"`
	Kind    OwnerKind `yaml:"kind" json:"kind"`
	Service string    `yaml:"service,omitempty" json:"service,omitempty"`
	Method  string    `yaml:"method,omitempty" json:"method,omitempty"`
	Path    string    `yaml:"path,omitempty" json:"path,omitempty"`
	Name    string    `yaml:"name,omitempty" json:"name,omitempty"`
}

// String returns "METHOD /path" for endpoints and the model name otherwise.
func (o Owner) String() string {
	if o.Kind == OwnerEndpoint && o.Path != "" {
		return strings.TrimSpace(strings.ToUpper(o.Method) + " " + o.Path)
	}

	if o.Name != "" {
		return o.Name
	}

	return o.ID
}

// Ref identifies one schema: an owner and the role of the body.
type Ref struct {
	Owner string `yaml:"owner" json:"owner"`
	Role  Role   `yaml:"role" json:"role"`
}

// String returns "owner#role".
func (r Ref) String() string {
	return r.Owner + "#" + r.Role.String()
}

// Less orders refs by owner id, then role.
func (r Ref) Less(other Ref) bool {
	if r.Owner != other.Owner {
		return r.Owner < other.Owner
	}

	return r.Role < other.Role
}

// Signature is the canonical field key: lower-cased leaf name and type,
// e.g. "id:integer". It ignores the path prefix so that "user.id" and
// "items[].id" can match.
type Signature string

// NewSignature builds a signature from a leaf name and type.
func NewSignature(leaf string, t FieldType) Signature {
	return Signature(strings.ToLower(leaf) + ":" + t.String())
}

// Name returns the leaf-name part of the signature.
func (s Signature) Name() string {
	name, _, _ := strings.Cut(string(s), ":")
	return name
}

// Type returns the type part of the signature.
func (s Signature) Type() FieldType {
	_, typ, _ := strings.Cut(string(s), ":")
	t, _ := ParseFieldType(typ)

	return t
}

// FieldDescriptor describes one flattened field. It is immutable once produced.
type FieldDescriptor struct {
	Path           string    `yaml:"path" json:"path"`
	Type           FieldType `yaml:"type" json:"type"`
	Nullable       bool      `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	IsIdentifier   bool      `yaml:"is_identifier,omitempty" json:"is_identifier,omitempty"`
	ContainerDepth int       `yaml:"container_depth" json:"container_depth"`
	InArray        bool      `yaml:"in_array,omitempty" json:"in_array,omitempty"`
}

// LeafName returns the last path segment without array markers.
// "owner.pets[]" -> "pets".
func (f FieldDescriptor) LeafName() string {
	return leafName(f.Path)
}

// Signature returns the field's canonical signature.
func (f FieldDescriptor) Signature() Signature {
	return NewSignature(f.LeafName(), f.Type)
}

// Shape returns the structural position used by shape comparison.
func (f FieldDescriptor) Shape() match.Shape {
	return match.Shape{Depth: f.ContainerDepth, InArray: f.InArray}
}

func leafName(path string) string {
	p := strings.TrimRight(path, "[]")
	if i := strings.LastIndex(p, "."); i >= 0 {
		p = p[i+1:]
	}

	return strings.TrimRight(p, "[]")
}

// NormalizedSchema is the flattened, role-tagged representation of one body.
// It is replaced, never mutated, when its source schema changes.
type NormalizedSchema struct {
	Owner  Owner             `yaml:"owner" json:"owner"`
	Role   Role              `yaml:"role" json:"role"`
	Fields []FieldDescriptor `yaml:"fields" json:"fields"`
}

// Ref returns the schema's identity.
func (s *NormalizedSchema) Ref() Ref {
	return Ref{Owner: s.Owner.ID, Role: s.Role}
}

// IsEmpty reports whether the schema has no fields.
func (s *NormalizedSchema) IsEmpty() bool {
	return len(s.Fields) == 0
}

// Signatures returns the distinct field signatures in ascending order.
func (s *NormalizedSchema) Signatures() []Signature {
	sigs := make([]Signature, 0, len(s.Fields))
	for _, f := range s.Fields {
		sigs = append(sigs, f.Signature())
	}

	return common.SortedSet(sigs)
}

// FieldsBySignature groups the schema's descriptors by signature.
func (s *NormalizedSchema) FieldsBySignature() map[Signature][]FieldDescriptor {
	out := make(map[Signature][]FieldDescriptor, len(s.Fields))
	for _, f := range s.Fields {
		sig := f.Signature()
		out[sig] = append(out[sig], f)
	}

	return out
}

// Input is one (owner, role, raw schema) tuple handed over by the import layer.
// Schema holds a decoded JSON value, or raw JSON/YAML bytes.
type Input struct {
	Owner  Owner `yaml:"owner" json:"owner"`
	Role   Role  `yaml:"role" json:"role"`
	Schema any   `yaml:"schema" json:"schema"`
}

// Ref returns the identity of the schema this input will produce.
func (in Input) Ref() Ref {
	return Ref{Owner: in.Owner.ID, Role: in.Role}
}
