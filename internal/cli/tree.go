package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2tmpl/internal/model"
)

type TreeConfig struct {
	ModelOptions
	API string
}

var treeRunner = runTree

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the request and response structures of each endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &TreeConfig{ModelOptions: ModelOptions{Parallel: 1}}
			if err := modelFlagOverrides(cmd, &cfg.ModelOptions); err != nil {
				return err
			}
			if err := stringFlag(cmd.Flags(), "api", &cfg.API); err != nil {
				return err
			}
			if cfg.API == "" {
				return newUsageError("tree: --api is required")
			}
			if err := cfg.validate("tree"); err != nil {
				return err
			}
			return treeRunner(cmd.Context(), cfg)
		},
	}

	addModelFlags(cmd)

	return cmd
}

func runTree(ctx context.Context, cfg *TreeConfig) error {
	_, data, err := buildModel(ctx, cfg.API, cfg.ModelOptions)
	if err != nil {
		return err
	}
	writeTrees(os.Stdout, data)
	return nil
}

func writeTrees(w io.Writer, data *model.TemplateData) {
	for _, e := range data.Endpoints {
		title := strings.ToUpper(e.Method) + " " + e.Path
		if e.Request == nil && e.Response == nil {
			fmt.Fprintln(w, title)
			continue
		}
		var roots []*model.DataStructure
		if e.Request != nil {
			roots = append(roots, e.Request)
		}
		if e.Response != nil {
			roots = append(roots, e.Response)
		}
		fmt.Fprint(w, model.Tree(title, roots...))
	}
}
