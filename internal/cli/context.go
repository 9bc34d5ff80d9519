package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2tmpl/internal/emitter"
)

// ContextConfig captures the options for the context command.
type ContextConfig struct {
	ModelOptions
	API string
	Out string
}

var contextRunner = runContext

func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Write the template context of a document as JSON",
		Long: "Write the endpoints, requests and responses that templates receive as indented JSON. " +
			"Useful when writing new templates. The JSON uses snake_case keys; templates " +
			"read the same values by their Go field names (object_name is model.ObjectName).",
		Example: strings.TrimSpace(`  swagger2tmpl context --api openapi.yaml
  swagger2tmpl context -a openapi.yaml --out - --include-tags pets`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &ContextConfig{ModelOptions: ModelOptions{Parallel: 1}}
			if err := modelFlagOverrides(cmd, &cfg.ModelOptions); err != nil {
				return err
			}
			if err := stringFlag(cmd.Flags(), "api", &cfg.API); err != nil {
				return err
			}
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			cfg.Out = strings.TrimSpace(out)
			if cfg.API == "" {
				return newUsageError("context: --api is required")
			}
			if err := cfg.validate("context"); err != nil {
				return err
			}
			return contextRunner(cmd.Context(), cfg)
		},
	}

	addModelFlags(cmd)
	cmd.Flags().String("out", "context.json", "Where to write the JSON; - writes to stdout")

	return cmd
}

func runContext(ctx context.Context, cfg *ContextConfig) error {
	_, data, err := buildModel(ctx, cfg.API, cfg.ModelOptions)
	if err != nil {
		return err
	}
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("context: encode: %w", err)
	}
	content = append(content, '\n')

	if cfg.Out == "" || cfg.Out == "-" {
		_, err := os.Stdout.Write(content)
		return err
	}
	if err := emitter.WriteFile(cfg.Out, content, 0o644); err != nil {
		return wrapOutputError(err, cfg.Out)
	}
	zerolog.Ctx(ctx).Info().Str("file", cfg.Out).Int("endpoints", len(data.Endpoints)).Msg("Wrote context")
	return nil
}
