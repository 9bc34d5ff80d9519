package model

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mark3labs/swagger2tmpl/internal/spec"
)

// Parameter is an operation parameter with its schema built as a tree.
type Parameter struct {
	Name        string         `json:"name"`
	In          string         `json:"in"`
	Description string         `json:"description,omitempty"`
	Required    bool           `json:"required"`
	Structure   *DataStructure `json:"structure,omitempty"`
}

// EndpointExtracted is one operation with its request/response roots and their
// flattened model lists.
type EndpointExtracted struct {
	Path         string           `json:"path"`
	Method       string           `json:"method"`
	OperationID  string           `json:"operation_id,omitempty"`
	Summary      string           `json:"summary,omitempty"`
	Description  string           `json:"description,omitempty"`
	Tags         []string         `json:"tags"`
	Parameters   []Parameter      `json:"parameters"`
	Request      *DataStructure   `json:"request"`
	Response     *DataStructure   `json:"response"`
	FlatRequest  []*DataStructure `json:"flat_request"`
	FlatResponse []*DataStructure `json:"flat_response"`
}

// TemplateData is the whole-document context handed to templates.
type TemplateData struct {
	Endpoints []*EndpointExtracted `json:"endpoints"`
	Requests  []*DataStructure     `json:"requests"`
	Responses []*DataStructure     `json:"responses"`
}

// CombineRequests folds every endpoint's FlatRequest into Requests, keeping
// first-seen order and dropping structural duplicates.
func (t *TemplateData) CombineRequests() {
	lists := [][]*DataStructure{t.Requests}
	for _, ep := range t.Endpoints {
		lists = append(lists, ep.FlatRequest)
	}
	t.Requests = Merge(lists...)
}

// CombineResponses is CombineRequests for responses.
func (t *TemplateData) CombineResponses() {
	lists := [][]*DataStructure{t.Responses}
	for _, ep := range t.Endpoints {
		lists = append(lists, ep.FlatResponse)
	}
	t.Responses = Merge(lists...)
}

func (t *TemplateData) Combine() {
	t.CombineRequests()
	t.CombineResponses()
}

// ContentPolicy decides what happens when a body declares content but none of it
// has the expected media type.
type ContentPolicy int

const (
	// SkipMissingContent drops the body and logs a warning.
	SkipMissingContent ContentPolicy = iota
	// FailMissingContent fails the run with MissingRequiredContent.
	FailMissingContent
)

type extractConfig struct {
	content      ContentPolicy
	allowPartial bool
	parallelism  int
	mediaType    string
	filters      []spec.Filter
}

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

func WithContentPolicy(p ContentPolicy) ExtractOption {
	return func(c *extractConfig) { c.content = p }
}

// WithAllowPartial makes a schema error drop only the offending request, response
// or parameter schema instead of failing the run.
func WithAllowPartial(allow bool) ExtractOption {
	return func(c *extractConfig) { c.allowPartial = allow }
}

// WithParallelism bounds how many endpoints are built at once. Values below 1
// mean 1.
func WithParallelism(n int) ExtractOption {
	return func(c *extractConfig) { c.parallelism = n }
}

func WithMediaType(mime string) ExtractOption {
	return func(c *extractConfig) { c.mediaType = mime }
}

func WithEndpointFilters(filters ...spec.Filter) ExtractOption {
	return func(c *extractConfig) { c.filters = append(c.filters, filters...) }
}

// Extract builds, finalizes and flattens the request and response of every endpoint
// of doc, then combines them into the global model lists. Endpoint order is the
// order of spec.Endpoints regardless of parallelism.
func Extract(ctx context.Context, doc *openapi3.T, opts ...ExtractOption) (*TemplateData, error) {
	cfg := extractConfig{parallelism: 1, mediaType: spec.JSONMediaType}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.parallelism < 1 {
		cfg.parallelism = 1
	}

	endpoints, err := spec.Endpoints(doc, cfg.filters...)
	if err != nil {
		return nil, err
	}
	var registry openapi3.Schemas
	if doc.Components != nil {
		registry = doc.Components.Schemas
	}
	builder := NewBuilder(registry)
	zerolog.Ctx(ctx).Info().Int("endpoints", len(endpoints)).Msg("Extracting models")

	out := make([]*EndpointExtracted, len(endpoints))
	errs := make([]error, len(endpoints))
	var g errgroup.Group
	g.SetLimit(cfg.parallelism)
	for i, ep := range endpoints {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			out[i], errs[i] = extractEndpoint(ctx, builder, ep, &cfg)
			return nil
		})
	}
	_ = g.Wait()
	// Report the first failure in document order.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	data := &TemplateData{Endpoints: out}
	data.Combine()
	return data, nil
}

func extractEndpoint(ctx context.Context, b *Builder, ep spec.Endpoint, cfg *extractConfig) (*EndpointExtracted, error) {
	log := zerolog.Ctx(ctx).With().Str("endpoint", ep.ID).Logger()
	log.Debug().Msg("Extracting endpoint")

	e := &EndpointExtracted{
		Path:        ep.Path,
		Method:      string(ep.Method),
		OperationID: ep.OperationID,
		Summary:     ep.Summary,
		Description: ep.Description,
		Tags:        ep.Tags,
	}

	for _, p := range ep.Parameters {
		param := Parameter{Name: p.Name, In: p.In, Description: p.Description, Required: p.Required}
		if p.Schema != nil {
			ds, err := b.Build(p.Schema, p.Name, false)
			if err != nil {
				loc := fmt.Sprintf("%s parameter %s", ep.ID, p.Name)
				if !cfg.allowPartial {
					return nil, withLocation(err, loc)
				}
				log.Warn().Err(err).Str("parameter", p.Name).Msg("skipping parameter schema")
			} else {
				Finalize(ds)
				param.Structure = ds
			}
		}
		e.Parameters = append(e.Parameters, param)
	}

	if ep.RequestBody != nil {
		root, err := buildBody(b, ep.RequestBody.Content, ep.RequestSchema(cfg.mediaType), ep.ID+" request", cfg, log)
		if err != nil {
			return nil, err
		}
		if root != nil {
			e.Request, e.FlatRequest = root, Flatten(root)
		}
	}

	if _, resp, ok := ep.SuccessResponse(); ok {
		root, err := buildBody(b, resp.Content, ep.ResponseSchema(cfg.mediaType), ep.ID+" response", cfg, log)
		if err != nil {
			return nil, err
		}
		if root != nil {
			e.Response, e.FlatResponse = root, Flatten(root)
		}
	}
	return e, nil
}

// buildBody returns a nil root without error when the body is skipped.
func buildBody(b *Builder, content openapi3.Content, ref *openapi3.SchemaRef, loc string, cfg *extractConfig, log zerolog.Logger) (*DataStructure, error) {
	if ref == nil {
		if len(content) == 0 {
			return nil, nil
		}
		if cfg.content == FailMissingContent {
			return nil, &Error{
				Kind:     MissingRequiredContent,
				Location: loc,
				Message:  fmt.Sprintf("no %s content", cfg.mediaType),
			}
		}
		log.Warn().Str("media_type", cfg.mediaType).Msgf("%s has no matching content, skipping", loc)
		return nil, nil
	}
	root, err := b.BuildRoot(ref)
	if err != nil {
		if !cfg.allowPartial {
			return nil, withLocation(err, loc)
		}
		log.Warn().Err(err).Msgf("skipping %s", loc)
		return nil, nil
	}
	return root, nil
}
