package openapi

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"schema-atlas/internal/common"
	"schema-atlas/internal/diagnostic"
	"schema-atlas/internal/schema"
)

// preferredStatus lists the response codes tried first, in order.
var preferredStatus = []string{"200", "201", "202", "204"}

// Options controls an import.
type Options struct {
	// Service names the owning service. Empty uses the document title.
	Service string
	// SkipComponents leaves component schemas out of the result.
	SkipComponents bool
	// Validate runs the document validator. Failures are recorded as
	// warnings; the import continues.
	Validate bool
	Logger   *slog.Logger
}

// Result is the outcome of one import.
type Result struct {
	Title       string
	Version     string
	Service     string
	Inputs      []schema.Input
	Endpoints   int
	Models      int
	Diagnostics diagnostic.Diagnostics
}

// Load parses an OpenAPI document from JSON or YAML bytes. External
// references are not followed.
func Load(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	return doc, nil
}

// ImportFile reads and imports an OpenAPI file.
func ImportFile(ctx context.Context, path string, opts Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI file %s: %w", path, err)
	}

	return Import(ctx, data, opts)
}

// Import parses data and extracts its inputs.
func Import(ctx context.Context, data []byte, opts Options) (*Result, error) {
	doc, err := Load(data)
	if err != nil {
		return nil, err
	}

	return FromDocument(ctx, doc, opts), nil
}

// FromDocument extracts inputs from a loaded document. Inputs are ordered by
// path, then method, then request before response, then component name.
func FromDocument(ctx context.Context, doc *openapi3.T, opts Options) *Result {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	res := &Result{Service: opts.Service}
	if doc.Info != nil {
		res.Title = doc.Info.Title
		res.Version = doc.Info.Version
	}

	if res.Service == "" {
		res.Service = res.Title
	}

	if opts.Validate {
		if err := doc.Validate(ctx); err != nil {
			log.Warn("OpenAPI document failed validation", slog.String("error", err.Error()))
			res.Diagnostics.AddWarning(diagnostic.CodeImportSkipped, err.Error(), res.Service, "")
		}
	}

	if doc.Paths != nil {
		paths := doc.Paths.Map()

		for _, path := range common.SortedKeys(paths) {
			ops := paths[path].Operations()

			for _, method := range common.SortedKeys(ops) {
				res.addOperation(method, path, ops[method], log)
			}
		}
	}

	if !opts.SkipComponents && doc.Components != nil {
		for _, name := range common.SortedKeys(doc.Components.Schemas) {
			ref := doc.Components.Schemas[name]

			owner := schema.Owner{
				ID:      ownerID(res.Service, name),
				Kind:    schema.OwnerModel,
				Service: res.Service,
				Name:    name,
			}

			res.Inputs = append(res.Inputs, schema.Input{
				Owner:  owner,
				Role:   schema.RoleComponent,
				Schema: Convert(ref),
			})
			res.Models++
		}
	}

	log.Info("imported OpenAPI document",
		slog.String("service", res.Service),
		slog.Int("endpoints", res.Endpoints),
		slog.Int("models", res.Models),
		slog.Int("inputs", len(res.Inputs)))

	return res
}

func (r *Result) addOperation(method, path string, op *openapi3.Operation, log *slog.Logger) {
	owner := schema.Owner{
		ID:      ownerID(r.Service, method+" "+path),
		Kind:    schema.OwnerEndpoint,
		Service: r.Service,
		Method:  method,
		Path:    path,
		Name:    op.OperationID,
	}

	r.Endpoints++

	var found bool

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		if media := pickMedia(op.RequestBody.Value.Content); media != nil {
			r.Inputs = append(r.Inputs, schema.Input{
				Owner:  owner,
				Role:   schema.RoleRequest,
				Schema: Convert(media.Schema),
			})
			found = true
		}
	}

	if media := pickResponse(op.Responses); media != nil {
		r.Inputs = append(r.Inputs, schema.Input{
			Owner:  owner,
			Role:   schema.RoleResponse,
			Schema: Convert(media.Schema),
		})
		found = true
	}

	if !found {
		log.Debug("operation has no body schemas", slog.String("endpoint", owner.String()))
		r.Diagnostics.AddInfo(diagnostic.CodeImportSkipped, "operation has no body schemas", owner.ID, "")
	}
}

func ownerID(service, id string) string {
	if service == "" {
		return id
	}

	return service + ":" + id
}

// pickMedia returns the media type to analyze: application/json, then any
// other JSON type, then the first type with a schema.
func pickMedia(content openapi3.Content) *openapi3.MediaType {
	if mt := content.Get("application/json"); mt != nil && mt.Schema != nil {
		return mt
	}

	keys := common.SortedKeys(content)

	for _, key := range keys {
		if isJSON(key) && content[key] != nil && content[key].Schema != nil {
			return content[key]
		}
	}

	for _, key := range keys {
		if content[key] != nil && content[key].Schema != nil {
			return content[key]
		}
	}

	return nil
}

func isJSON(mediaType string) bool {
	base, _, _ := strings.Cut(strings.ToLower(mediaType), ";")
	base = strings.TrimSpace(base)

	return base == "application/json" || strings.HasSuffix(base, "+json")
}

// pickResponse returns the success response body: the preferred status codes
// first, then other 2xx codes, then any other code with content.
func pickResponse(responses *openapi3.Responses) *openapi3.MediaType {
	if responses == nil {
		return nil
	}

	byCode := responses.Map()

	codes := common.SortedKeys(byCode)
	sort.SliceStable(codes, func(i, j int) bool {
		return statusRank(codes[i]) < statusRank(codes[j])
	})

	for _, code := range codes {
		ref := byCode[code]
		if ref == nil || ref.Value == nil {
			continue
		}

		if media := pickMedia(ref.Value.Content); media != nil {
			return media
		}
	}

	return nil
}

func statusRank(code string) int {
	for i, c := range preferredStatus {
		if code == c {
			return i
		}
	}

	switch {
	case strings.HasPrefix(code, "2"):
		return len(preferredStatus)
	case code == "default":
		return len(preferredStatus) + 2
	default:
		return len(preferredStatus) + 1
	}
}
