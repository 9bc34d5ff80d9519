package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/swagger2tmpl/internal/config"
	"github.com/mark3labs/swagger2tmpl/internal/emitter"
	"github.com/mark3labs/swagger2tmpl/internal/render"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, the config file's generate section, and CLI overrides.
type GenerateConfig struct {
	ModelOptions
	API        string
	Output     string
	Templates  string
	Seed       int64
	ConfigPath string
	DryRun     bool
	Force      bool

	// Settings is the loaded generator configuration.
	Settings *config.Config
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{ModelOptions: ModelOptions{Parallel: 1}}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render the template directory against an OpenAPI/Swagger document",
		Long: "Render the template directory against an OpenAPI/Swagger document. " +
			"Options can be provided via flags, the generate section of the config file, or defaults.",
		Example: strings.TrimSpace(`  swagger2tmpl generate --api openapi.yaml --output ./lib/api
  swagger2tmpl --config dart.yaml generate -a https://example.com/openapi.json -o out --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	addModelFlags(cmd)
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Output directory (derived from the document title when omitted)")
	flags.String("templates", "", "Template directory; overrides the config file")
	flags.Int64("seed", 0, "Seed for sample data; 0 picks a random one")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Write into a non-empty output directory")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	settings, err := config.Load(strings.TrimSpace(configPath))
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, wrapUsage(fmt.Sprintf("generate: %v\nHint: run `swagger2tmpl init` or pass --config.", err), err)
		}
		var pe *fs.PathError
		if errors.As(err, &pe) || strings.Contains(err.Error(), "is not a file") {
			return nil, wrapUsage(fmt.Sprintf("generate: %v", err), err)
		}
		return nil, friendlyError(err)
	}
	cfg.Settings = settings
	cfg.ConfigPath = settings.Path
	cfg.Templates = settings.Templates

	if err := applyGenerateDefaults(&cfg, settings.Generate, settings.Path); err != nil {
		return nil, err
	}
	if err := applyGenerateFlagOverrides(cmd, &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(cmd *cobra.Command, cfg *GenerateConfig) error {
	if err := modelFlagOverrides(cmd, &cfg.ModelOptions); err != nil {
		return err
	}
	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"api":       &cfg.API,
		"output":    &cfg.Output,
		"templates": &cfg.Templates,
	} {
		if err := stringFlag(flags, name, dst); err != nil {
			return err
		}
	}
	if flags.Changed("seed") {
		value, err := flags.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = value
	}
	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}
	if flags.Changed("force") {
		value, err := flags.GetBool("force")
		if err != nil {
			return err
		}
		cfg.Force = value
	}
	return nil
}

func stringFlag(flags *pflag.FlagSet, name string, dst *string) error {
	if !flags.Changed(name) {
		return nil
	}
	value, err := flags.GetString(name)
	if err != nil {
		return err
	}
	*dst = strings.TrimSpace(value)
	return nil
}

func (c *GenerateConfig) normalize() {
	c.API = strings.TrimSpace(c.API)
	c.Output = strings.TrimSpace(c.Output)
	c.Templates = strings.TrimSpace(c.Templates)
	if c.Templates == "" {
		c.Templates = config.DefaultTemplates
	}
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	c.Methods = sanitizeTags(c.Methods)
	c.Paths = sanitizeTags(c.Paths)
}

func (c *GenerateConfig) validate() error {
	if c.API == "" {
		return newUsageError("generate: --api is required (set via flag or the config file's generate section)")
	}
	return c.ModelOptions.validate("generate")
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	logger := zerolog.Ctx(ctx)

	// 1) Load the document and build the model
	doc, data, err := buildModel(ctx, cfg.API, cfg.ModelOptions)
	if err != nil {
		return err
	}
	logger.Info().
		Int("endpoints", len(data.Endpoints)).
		Int("requests", len(data.Requests)).
		Int("responses", len(data.Responses)).
		Msg("Model built")

	// 2) Render the templates
	fns, err := render.NewFunctions(cfg.Settings, render.WithSeed(cfg.Seed))
	if err != nil {
		return friendlyError(err)
	}
	r, err := render.New(cfg.Templates, cfg.Settings, fns)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return wrapUsage(fmt.Sprintf("generate: %v\nHint: run `swagger2tmpl init` or pass --templates.", err), err)
		}
		return err
	}
	files, err := r.Render(ctx, data)
	if err != nil {
		return friendlyError(err)
	}

	// 3) Write
	outDir := cfg.Output
	if outDir == "" {
		if doc.Info != nil {
			outDir = deriveOutDir(doc.Info.Title)
		}
		if outDir == "" {
			outDir = "generated"
		}
	}
	res, err := emitter.Emit(ctx, files, emitter.Options{OutDir: outDir, Force: cfg.Force, DryRun: cfg.DryRun})
	if err != nil {
		return wrapOutputError(err, outDir)
	}
	if cfg.DryRun {
		printPlan(res.OutDir, len(res.Planned), res.Paths())
		return nil
	}
	logger.Info().Int("files", len(res.Planned)).Str("out", res.OutDir).Msg("Generated")
	return nil
}

func printPlan(outDir string, count int, relPaths []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if errors.Is(err, emitter.ErrNotEmpty) || errors.Is(err, fs.ErrPermission) ||
		strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") {
		return wrapUsage(fmt.Sprintf("output error for %s: %s\nHint: choose a different --output or use --force when appropriate.", outDir, msg), err)
	}
	return err
}

func deriveOutDir(title string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return ""
	}
	t = strings.ToLower(t)
	repl := strings.NewReplacer("/", " ", "_", " ", ".", " ", ",", " ", ":", " ", "\\", " ")
	t = repl.Replace(t)
	parts := strings.Fields(t)
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "-")
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

// applyGenerateDefaults reads the generate section of the config file. Keys match
// flag names case-insensitively, ignoring dashes and underscores.
func applyGenerateDefaults(cfg *GenerateConfig, raw map[string]any, path string) error {
	for key, value := range raw {
		var err error
		switch normalizeKey(key) {
		case "api":
			cfg.API, err = valueAsString(value)
		case "output":
			cfg.Output, err = valueAsString(value)
		case "templates":
			cfg.Templates, err = valueAsString(value)
		case "includetags":
			cfg.IncludeTags, err = valueAsStringSlice(value)
		case "excludetags":
			cfg.ExcludeTags, err = valueAsStringSlice(value)
		case "methods":
			cfg.Methods, err = valueAsStringSlice(value)
		case "paths":
			cfg.Paths, err = valueAsStringSlice(value)
		case "strictcontent":
			cfg.StrictContent, err = valueAsBool(value)
		case "allowpartial":
			cfg.AllowPartial, err = valueAsBool(value)
		case "parallel":
			var n int64
			n, err = valueAsInt(value)
			cfg.Parallel = int(n)
		case "seed":
			cfg.Seed, err = valueAsInt(value)
		case "dryrun":
			cfg.DryRun, err = valueAsBool(value)
		case "force":
			cfg.Force, err = valueAsBool(value)
		default:
			return newUsageError(fmt.Sprintf("config file %q: unknown field %q in generate", path, key))
		}
		if err != nil {
			return newUsageError(fmt.Sprintf("config field generate.%s: %v", key, err))
		}
	}
	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func valueAsInt(v any) (int64, error) {
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case uint64:
		return int64(val), nil
	case float64:
		if val != float64(int64(val)) {
			return 0, fmt.Errorf("expected integer, got %v", val)
		}
		return int64(val), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid integer value %q", val)
		}
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
