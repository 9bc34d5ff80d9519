// Package render discovers templates and renders them with pongo2 against the
// extracted model.
package render

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/flosch/pongo2/v6"
	"github.com/rs/zerolog"

	"github.com/mark3labs/swagger2tmpl/internal/config"
	"github.com/mark3labs/swagger2tmpl/internal/model"
)

// Kind says how a template is fed.
type Kind int

const (
	// Whole renders once with the full TemplateData.
	Whole Kind = iota
	// PerModel renders once per global request and response model.
	PerModel
	// PerEndpoint renders once per endpoint request and response model list.
	PerEndpoint
)

const (
	modelPrefix         = "model."
	modelEndpointPrefix = "model-endpoint."
	partialPrefix       = "_"
)

func (k Kind) String() string {
	switch k {
	case PerModel:
		return "model"
	case PerEndpoint:
		return "model-endpoint"
	}
	return "whole"
}

// Template is one discovered template file, relative to the template directory
// and slash separated.
type Template struct {
	Path string
	Kind Kind
}

// KindOf classifies a template by its base name.
func KindOf(name string) Kind {
	base := path.Base(filepath.ToSlash(name))
	switch {
	case strings.HasPrefix(base, modelEndpointPrefix):
		return PerEndpoint
	case strings.HasPrefix(base, modelPrefix):
		return PerModel
	}
	return Whole
}

// Discover walks dir and returns its templates sorted by path. Files whose name
// starts with an underscore are partials and are not returned.
func Discover(dir string) ([]Template, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("template directory: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("template directory %s is not a directory", dir)
	}
	var out []Template
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), partialPrefix) {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		out = append(out, Template{Path: rel, Kind: KindOf(rel)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Renderer renders a template directory. Output paths are relative and slash
// separated; a template's directory is kept in its outputs.
type Renderer struct {
	set       *pongo2.TemplateSet
	templates []Template
	fileName  *pongo2.Template
}

// New prepares the templates under dir. fns are available to every template.
func New(dir string, cfg *config.Config, fns Functions) (*Renderer, error) {
	templates, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	loader, err := pongo2.NewLocalFileSystemLoader(dir)
	if err != nil {
		return nil, fmt.Errorf("template loader: %w", err)
	}
	pongo2.SetAutoescape(false)
	set := pongo2.NewSet("swagger2tmpl", loader)
	set.Globals = pongo2.Context{
		"map_type":    fns.MapType,
		"extended":    fns.Extended,
		"exists":      fns.Exists,
		"sample":      fns.Sample,
		"sample_json": fns.SampleJSON,
	}
	r := &Renderer{set: set, templates: templates}
	if cfg != nil && strings.TrimSpace(cfg.ModelFileName) != "" {
		r.fileName, err = set.FromString(cfg.ModelFileName)
		if err != nil {
			return nil, fmt.Errorf("model_file_name: %w", err)
		}
	}
	return r, nil
}

// Templates returns the discovered templates.
func (r *Renderer) Templates() []Template {
	return r.templates
}

// Render renders every template against data and returns the outputs keyed by
// relative path. When two renders produce the same path the later one wins.
func (r *Renderer) Render(ctx context.Context, data *model.TemplateData) (map[string][]byte, error) {
	logger := zerolog.Ctx(ctx)
	out := make(map[string][]byte)
	put := func(p string, content []byte) {
		if _, ok := out[p]; ok {
			logger.Warn().Str("file", p).Msg("Output rendered more than once, keeping the last")
		}
		out[p] = content
	}

	for _, t := range r.templates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tpl, err := r.set.FromFile(t.Path)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", t.Path, err)
		}
		dir := path.Dir(t.Path)

		switch t.Kind {
		case PerModel:
			if r.fileName == nil {
				logger.Warn().Str("template", t.Path).Msg("model_file_name is not set in config, skipping")
				continue
			}
			logger.Info().Str("template", t.Path).Msg("Rendering model files")
			models := append(append([]*model.DataStructure{}, data.Requests...), data.Responses...)
			for _, m := range models {
				if m.PropertyType == model.Array || m.Name == string(model.Array) {
					continue
				}
				name, content, err := r.renderModel(logger, tpl, m, pongo2.Context{"model": m})
				if err != nil {
					return nil, fmt.Errorf("render %s for %s: %w", t.Path, m.Name, err)
				}
				put(path.Join(dir, name), content)
			}
		case PerEndpoint:
			if r.fileName == nil {
				logger.Warn().Str("template", t.Path).Msg("model_file_name is not set in config, skipping")
				continue
			}
			logger.Info().Str("template", t.Path).Msg("Rendering endpoint model files")
			for _, e := range data.Endpoints {
				for _, flat := range [][]*model.DataStructure{e.FlatRequest, e.FlatResponse} {
					root := endpointRoot(flat)
					if root == nil {
						continue
					}
					name, content, err := r.renderModel(logger, tpl, root, pongo2.Context{"model": root, "models": flat})
					if err != nil {
						return nil, fmt.Errorf("render %s for %s %s: %w", t.Path, e.Method, e.Path, err)
					}
					put(path.Join(dir, name), content)
				}
			}
		default:
			logger.Info().Str("template", t.Path).Msg("Rendering file")
			pctx := pongo2.Context{
				"endpoints": data.Endpoints,
				"requests":  data.Requests,
				"responses": data.Responses,
				"file_name": t.Path,
			}
			content, err := tpl.ExecuteBytes(pctx)
			if err != nil {
				return nil, fmt.Errorf("render %s: %w", t.Path, err)
			}
			put(t.Path, content)
		}
	}
	return out, nil
}

func (r *Renderer) renderModel(logger *zerolog.Logger, tpl *pongo2.Template, m *model.DataStructure, pctx pongo2.Context) (string, []byte, error) {
	name, err := r.fileName.Execute(pongo2.Context{"model": m})
	if err != nil {
		return "", nil, fmt.Errorf("model_file_name: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "..") || path.IsAbs(name) {
		return "", nil, fmt.Errorf("model_file_name rendered an invalid file name %q", name)
	}
	pctx["file_name"] = name
	if ev := logger.Debug(); ev.Enabled() {
		ev.Str("file", name).Msg(dumper.Sdump(pctx))
	}
	content, err := tpl.ExecuteBytes(pctx)
	if err != nil {
		return "", nil, err
	}
	return name, content, nil
}

// endpointRoot returns the root of an endpoint's flat model list, or nil when
// the list is empty or the root is an array of scalars.
func endpointRoot(flat []*model.DataStructure) *model.DataStructure {
	for _, d := range flat {
		if !d.IsRoot {
			continue
		}
		if d.PropertyType == model.Array {
			if item := d.Item(); item == nil || item.PropertyType != model.Object {
				return nil
			}
		}
		return d
	}
	return nil
}

var dumper = spew.ConfigState{Indent: "  ", MaxDepth: 4, DisablePointerAddresses: true, SortKeys: true}
