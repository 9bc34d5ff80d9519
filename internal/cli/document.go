package cli

import (
	"context"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2tmpl/internal/model"
	"github.com/mark3labs/swagger2tmpl/internal/spec"
)

// ModelOptions are the extraction settings shared by every command that reads a
// document.
type ModelOptions struct {
	IncludeTags   []string
	ExcludeTags   []string
	Methods       []string
	Paths         []string
	StrictContent bool
	AllowPartial  bool
	Parallel      int
}

func addModelFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("api", "a", "", "Path, directory or URL of the Swagger/OpenAPI document")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include operations with these HTTP methods")
	flags.StringSlice("paths", nil, "Only include paths matching one of these regular expressions")
	flags.Bool("strict-content", false, "Fail when a body has no application/json content")
	flags.Bool("allow-partial", false, "Skip request and response schemas that cannot be modeled")
	flags.Int("parallel", 1, "Number of endpoints modeled concurrently")
}

func (o ModelOptions) extractOptions() []model.ExtractOption {
	methods := make([]spec.HttpMethod, 0, len(o.Methods))
	for _, m := range o.Methods {
		methods = append(methods, spec.HttpMethod(strings.ToLower(m)))
	}
	policy := model.SkipMissingContent
	if o.StrictContent {
		policy = model.FailMissingContent
	}
	return []model.ExtractOption{
		model.WithContentPolicy(policy),
		model.WithAllowPartial(o.AllowPartial),
		model.WithParallelism(o.Parallel),
		model.WithEndpointFilters(
			spec.WithIncludeTags(o.IncludeTags),
			spec.WithExcludeTags(o.ExcludeTags),
			spec.WithMethods(methods),
			spec.WithPathPatterns(o.Paths),
		),
	}
}

func (o ModelOptions) validate(command string) error {
	if overlap := intersect(o.IncludeTags, o.ExcludeTags); len(overlap) > 0 {
		return newUsageError(command + ": include/exclude tags overlap: " + strings.Join(overlap, ", "))
	}
	for _, m := range o.Methods {
		switch spec.HttpMethod(strings.ToLower(m)) {
		case spec.GET, spec.POST, spec.PUT, spec.DELETE, spec.PATCH, spec.HEAD, spec.OPTIONS, spec.TRACE:
		default:
			return newUsageError(command + ": unsupported method " + m)
		}
	}
	if o.Parallel < 1 {
		return newUsageError(command + ": --parallel must be at least 1")
	}
	return nil
}

// buildModel loads the document at api and extracts its template data.
func buildModel(ctx context.Context, api string, opts ModelOptions) (*openapi3.T, *model.TemplateData, error) {
	doc, err := spec.Load(ctx, api)
	if err != nil {
		return nil, nil, friendlyError(err)
	}
	data, err := model.Extract(ctx, doc, opts.extractOptions()...)
	if err != nil {
		return nil, nil, friendlyError(err)
	}
	return doc, data, nil
}

// modelFlagOverrides applies the shared flags the user set on cmd.
func modelFlagOverrides(cmd *cobra.Command, o *ModelOptions) error {
	flags := cmd.Flags()
	for name, dst := range map[string]*[]string{
		"include-tags": &o.IncludeTags,
		"exclude-tags": &o.ExcludeTags,
		"methods":      &o.Methods,
		"paths":        &o.Paths,
	} {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeTags(value)
	}
	for name, dst := range map[string]*bool{
		"strict-content": &o.StrictContent,
		"allow-partial":  &o.AllowPartial,
	} {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}
	if flags.Changed("parallel") {
		value, err := flags.GetInt("parallel")
		if err != nil {
			return err
		}
		o.Parallel = value
	}
	return nil
}
