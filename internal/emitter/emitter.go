// Package emitter plans and writes rendered files under an output directory.
package emitter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotEmpty is returned when the output directory has content and Force is off.
var ErrNotEmpty = errors.New("output directory is not empty")

// Options controls where and how files are written.
type Options struct {
	OutDir string // required
	Force  bool   // allow writing into a non-empty directory
	DryRun bool   // plan only
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

type Result struct {
	OutDir  string
	Planned []PlannedFile
}

// Paths returns the planned relative paths in plan order.
func (r *Result) Paths() []string {
	paths := make([]string, 0, len(r.Planned))
	for _, p := range r.Planned {
		paths = append(paths, p.RelPath)
	}
	return paths
}

// Emit plans files, keyed by slash separated relative path, in sorted order and
// writes them unless DryRun is set.
func Emit(ctx context.Context, files map[string][]byte, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("emitter: OutDir is required")
	}
	abs, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return nil, fmt.Errorf("resolve out dir: %w", err)
	}

	rels := make([]string, 0, len(files))
	for p := range files {
		rel, err := cleanRel(p)
		if err != nil {
			return nil, err
		}
		if rel != p {
			return nil, fmt.Errorf("emitter: output path %q is not clean", p)
		}
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}
	res := &Result{OutDir: abs, Planned: planned}
	if opts.DryRun {
		return res, nil
	}

	if st, err := os.Stat(abs); err == nil && st.IsDir() && !opts.Force {
		entries, rerr := os.ReadDir(abs)
		if rerr == nil && len(entries) > 0 {
			return nil, fmt.Errorf("%w: %s (use --force to overwrite)", ErrNotEmpty, abs)
		}
	}
	logger := zerolog.Ctx(ctx)
	for _, pf := range planned {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := WriteFile(filepath.Join(abs, filepath.FromSlash(pf.RelPath)), files[pf.RelPath], pf.Mode); err != nil {
			return nil, fmt.Errorf("%s: %w", pf.RelPath, err)
		}
		logger.Debug().Str("file", pf.RelPath).Int("size", pf.Size).Msg("Wrote file")
	}
	return res, nil
}

func cleanRel(p string) (string, error) {
	if p == "" || path.IsAbs(p) || filepath.IsAbs(p) {
		return "", fmt.Errorf("emitter: invalid output path %q", p)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("emitter: output path %q escapes the output directory", p)
	}
	return clean, nil
}

// WriteFile writes content to p through a temp file in the same directory that is
// renamed into place. Parent directories are created.
func WriteFile(p string, content []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := os.Chmod(name, mode); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(name, p); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
