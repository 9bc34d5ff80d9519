package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/mark3labs/swagger2tmpl/internal/emitter"
)

func newMarkdownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "markdown",
		Short:  "Generate Markdown reference pages for every command",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cmd.Flags().GetString("dir")
			if err != nil {
				return err
			}
			dir = strings.TrimSpace(dir)
			if dir == "" {
				return newUsageError("markdown: --dir must not be empty")
			}
			return writeMarkdown(cmd.Root(), dir)
		},
	}
	cmd.Flags().String("dir", "docs", "Directory to write the pages into")
	return cmd
}

func writeMarkdown(root *cobra.Command, dir string) error {
	var sb strings.Builder
	commands := []*cobra.Command{root}
	for len(commands) > 0 {
		c := commands[0]
		commands = commands[1:]
		for _, sub := range c.Commands() {
			if sub.IsAvailableCommand() && !sub.IsAdditionalHelpTopicCommand() {
				commands = append(commands, sub)
			}
		}

		sb.Reset()
		if err := doc.GenMarkdown(c, &sb); err != nil {
			return fmt.Errorf("markdown: %s: %w", c.CommandPath(), err)
		}
		name := strings.ReplaceAll(c.CommandPath(), " ", "_") + ".md"
		target := filepath.Join(dir, name)
		if err := emitter.WriteFile(target, []byte(sb.String()), 0o644); err != nil {
			return wrapOutputError(err, dir)
		}
		fmt.Fprintln(os.Stdout, target)
	}
	return nil
}
