package taxonomy

import (
	"fmt"
	"log/slog"
	"strings"

	"schema-atlas/internal/common"
	"schema-atlas/internal/fingerprint"
	"schema-atlas/internal/match"
	"schema-atlas/internal/schema"
)

// Fallback is a heuristic the categorizer had to fall back on. Each one
// lowers the suggestion's confidence by the configured penalty.
type Fallback int

const (
	// FallbackMissingResource means no resource name could be derived.
	FallbackMissingResource Fallback = iota
	// FallbackResourceFromName means the resource came from the model name.
	FallbackResourceFromName
	// FallbackResourceFromFields means the resource came from the schema
	// sharing the most field signatures with the model.
	FallbackResourceFromFields
	// FallbackEmptyFields means the model has no fields.
	FallbackEmptyFields
	// FallbackAmbiguousRole means the model is neither a request nor a response.
	FallbackAmbiguousRole
)

// String returns the fallback name.
func (f Fallback) String() string {
	switch f {
	case FallbackMissingResource:
		return "missing_resource"
	case FallbackResourceFromName:
		return "resource_from_name"
	case FallbackResourceFromFields:
		return "resource_from_fields"
	case FallbackEmptyFields:
		return "empty_fields"
	case FallbackAmbiguousRole:
		return "ambiguous_role"
	default:
		return common.UnknownStr
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Fallback) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Suggestion is a recommended taxonomy path for one model. It is not applied.
type Suggestion struct {
	Model schema.Ref `yaml:"model" json:"model"`
	// Path is the node names from the role bucket down to the resource bucket.
	Path       []string   `yaml:"path" json:"path"`
	Confidence float64    `yaml:"confidence" json:"confidence"`
	Fallbacks  []Fallback `yaml:"fallbacks,omitempty" json:"fallbacks,omitempty"`
	// Existing is how many leading path entries already exist in the tree.
	Existing int `yaml:"existing" json:"existing"`
	// NearMatches are existing sibling names close to a new resource bucket.
	NearMatches []string `yaml:"near_matches,omitempty" json:"near_matches,omitempty"`
}

// IsNew reports whether committing the suggestion would create nodes.
func (s Suggestion) IsNew() bool {
	return s.Existing < len(s.Path)
}

// Categorizer suggests taxonomy placements. It holds no state between calls.
type Categorizer struct {
	cfg Config
	log *slog.Logger
}

// NewCategorizer validates cfg and creates a categorizer. A nil logger discards output.
func NewCategorizer(cfg Config, logger *slog.Logger) (*Categorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid taxonomy config: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Categorizer{cfg: cfg, log: logger}, nil
}

// Bucket returns the top-level bucket name for a role and whether the role
// is ambiguous.
func (c *Categorizer) Bucket(role schema.Role) (string, bool) {
	switch role {
	case schema.RoleRequest:
		return c.cfg.RequestBucket, false
	case schema.RoleResponse:
		return c.cfg.ResponseBucket, false
	default:
		return c.cfg.ComponentBucket, true
	}
}

// Resource derives the resource bucket name of an owner: the first path
// segment that is neither a parameter, a version nor an ignored prefix;
// failing that, the model name without affixes such as "Response".
func (c *Categorizer) Resource(owner schema.Owner) (string, []Fallback) {
	for _, seg := range match.SplitPath(owner.Path) {
		if match.IsParamSegment(seg) || c.cfg.ignored(seg) {
			continue
		}

		return strings.ToLower(seg), nil
	}

	if owner.Name != "" {
		if name := match.StripModelAffixes(owner.Name); name != "" {
			return name, []Fallback{FallbackResourceFromName}
		}
	}

	return "", []Fallback{FallbackMissingResource}
}

// Categorize suggests a path for model within tree. A nil tree is empty.
// The tree is validated first; a corrupt tree returns an *InvalidStateError.
func (c *Categorizer) Categorize(model *schema.NormalizedSchema, tree *Tree) (Suggestion, error) {
	tree, err := c.checked(tree)
	if err != nil {
		return Suggestion{}, err
	}

	resource, fallbacks := c.Resource(model.Owner)

	return c.suggest(model, tree, resource, fallbacks), nil
}

// CategorizeAll suggests a path for every model. Models without a derivable
// resource adopt the resource of the model sharing the most field
// signatures with them, if that one has a resource of its own.
func (c *Categorizer) CategorizeAll(models []schema.NormalizedSchema, tree *Tree) ([]Suggestion, error) {
	tree, err := c.checked(tree)
	if err != nil {
		return nil, err
	}

	ix := fingerprint.Build(models)
	out := make([]Suggestion, 0, len(models))

	for pos := range models {
		model := ix.Schema(pos)
		resource, fallbacks := c.Resource(model.Owner)

		if resource == "" {
			if best := ix.SharedWith(pos).Best(); best != nil {
				peer := ix.Schema(best.Other(pos))

				peerResource, peerFallbacks := c.Resource(peer.Owner)
				if peerResource != "" && len(peerFallbacks) == 0 {
					c.log.Debug("resource taken from field pattern",
						slog.String("model", model.Ref().String()),
						slog.String("peer", peer.Ref().String()),
						slog.String("resource", peerResource))

					resource, fallbacks = peerResource, []Fallback{FallbackResourceFromFields}
				}
			}
		}

		out = append(out, c.suggest(model, tree, resource, fallbacks))
	}

	return out, nil
}

func (c *Categorizer) checked(tree *Tree) (*Tree, error) {
	if tree == nil {
		return &Tree{nodes: map[int64]*Node{}, children: map[int64][]int64{}, nextID: 1}, nil
	}

	if err := tree.Validate(); err != nil {
		c.log.Error("refusing to categorize against invalid taxonomy", slog.String("reason", err.Error()))
		return nil, err
	}

	return tree, nil
}

func (c *Categorizer) suggest(model *schema.NormalizedSchema, tree *Tree, resource string, fallbacks []Fallback) Suggestion {
	s := Suggestion{Model: model.Ref()}

	bucket, ambiguous := c.Bucket(model.Role)
	s.Fallbacks = append(s.Fallbacks, fallbacks...)

	if len(model.Fields) == 0 {
		s.Fallbacks = append(s.Fallbacks, FallbackEmptyFields)
	}

	if ambiguous {
		s.Fallbacks = append(s.Fallbacks, FallbackAmbiguousRole)
	}

	root, rootExists := tree.ChildByName(0, bucket)
	if rootExists {
		bucket = root.Name
		s.Existing++
	}

	s.Path = []string{bucket}

	if resource != "" {
		name := resource

		if rootExists {
			if child, ok := tree.ChildByName(root.ID, resource); ok {
				name = child.Name
				s.Existing++
			} else {
				s.NearMatches = c.nearMatches(tree.Children(root.ID), resource)
			}
		}

		s.Path = append(s.Path, name)
	}

	penalty := c.cfg.FallbackPenalty * float64(len(s.Fallbacks))
	s.Confidence = common.Round(common.Clamp(c.cfg.BaseConfidence-penalty, 0, 1), 4)

	if len(s.NearMatches) > 0 {
		c.log.Info("new taxonomy bucket is close to an existing one",
			slog.String("model", s.Model.String()),
			slog.String("bucket", resource),
			slog.Any("existing", s.NearMatches))
	}

	return s
}

func (c *Categorizer) nearMatches(siblings []Node, name string) []string {
	if c.cfg.NearMatchDistance == 0 {
		return nil
	}

	var out []string

	for _, sib := range siblings {
		if match.NearMatch(sib.Name, name, c.cfg.NearMatchDistance) {
			out = append(out, sib.Name)
		}
	}

	return out
}
