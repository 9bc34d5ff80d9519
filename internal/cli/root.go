package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2tmpl/internal/logging"
)

// Execute runs the swagger2tmpl CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

func flagError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swagger2tmpl",
		Short: "Render code templates from Swagger/OpenAPI documents",
		Long: "swagger2tmpl builds a language-agnostic model of the requests and responses of an " +
			"OpenAPI document and renders your templates against it.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			quiet, err := cmd.Flags().GetBool("quiet")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			if quiet && verbose {
				return newUsageError("--quiet and --verbose cannot be used together")
			}
			logger := logging.New(cmd.ErrOrStderr(), quiet, verbose)
			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	cmd.SetFlagErrorFunc(flagError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON); config.json, config.yml or config.yaml when omitted")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")

	for _, sub := range []*cobra.Command{
		newGenerateCmd(),
		newContextCmd(),
		newTreeCmd(),
		newInitCmd(),
		newMarkdownCmd(),
	} {
		sub.SetFlagErrorFunc(flagError)
		cmd.AddCommand(sub)
	}

	return cmd
}
