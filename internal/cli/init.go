package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2tmpl/internal/scaffold"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	Dir   string
	Force bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a starter config file and template directory",
		Long: "Scaffold a commented config.yaml and a templates directory with a model and a " +
			"service template. Existing files are kept unless --force is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cmd.Flags().GetString("dir")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{Dir: dir, Force: force})
		},
	}

	cmd.Flags().String("dir", ".", "Directory to scaffold into")
	cmd.Flags().Bool("force", false, "Overwrite starter files that already exist")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = "."
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("init: resolve directory: %w", err)
	}
	if st, err := os.Stat(absDir); err == nil && !st.IsDir() {
		return newUsageError(fmt.Sprintf("init: %q is not a directory", absDir))
	}

	results, err := scaffold.Init(ctx, absDir, cfg.Force)
	if err != nil {
		return wrapUsage(fmt.Sprintf("%v\nHint: choose a different --dir or check directory permissions.", err), err)
	}
	created := 0
	for _, r := range results {
		if r.Created {
			created++
		}
	}
	fmt.Fprintf(os.Stdout, "Scaffolded %s (%d created, %d kept)\n", absDir, created, len(results)-created)
	return nil
}
