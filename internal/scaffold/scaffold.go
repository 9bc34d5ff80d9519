// Package scaffold writes the starter configuration and templates.
package scaffold

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mark3labs/swagger2tmpl/internal/emitter"
)

//go:embed files
var starter embed.FS

const root = "files"

// Result reports one starter file: its path and whether it was written.
type Result struct {
	Path    string
	Created bool
}

// Files returns the starter file paths relative to the target directory.
func Files() ([]string, error) {
	var out []string
	err := fs.WalkDir(starter, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		out = append(out, p[len(root)+1:])
		return nil
	})
	return out, err
}

// Init writes each starter file under dir unless it already exists. With force
// existing files are overwritten.
func Init(ctx context.Context, dir string, force bool) ([]Result, error) {
	logger := zerolog.Ctx(ctx)
	rels, err := Files()
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(rels))
	for _, rel := range rels {
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if st, err := os.Stat(target); err == nil {
			if st.IsDir() {
				return nil, fmt.Errorf("init: %s is a directory", target)
			}
			if !force {
				logger.Info().Str("file", target).Msg("Already exists, skipping")
				results = append(results, Result{Path: target})
				continue
			}
		}
		content, err := starter.ReadFile(path.Join(root, rel))
		if err != nil {
			return nil, err
		}
		if err := emitter.WriteFile(target, content, 0o644); err != nil {
			return nil, fmt.Errorf("init: %s: %w", target, err)
		}
		logger.Info().Str("file", target).Msg("Created")
		results = append(results, Result{Path: target, Created: true})
	}
	return results, nil
}
