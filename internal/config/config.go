// Package config loads the generator configuration: the type table, extended
// lookups, the array layout and output naming.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/mark3labs/swagger2tmpl/internal/model"
)

// TypePlaceholder is substituted in ArrayLayout with the element type.
const TypePlaceholder = "{type}"

// Placeholders of ObjectLayout: the node's object name, and that name without its
// "Object" suffix and with an upper-case first letter.
const (
	ObjectNamePlaceholder = "{object_name}"
	NamePlaceholder       = "{name}"
)

// EnvPrefix prefixes the environment overrides, e.g. SWAGGER2TMPL_ARRAY_LAYOUT.
const EnvPrefix = "SWAGGER2TMPL_"

// DefaultTemplates is the template directory used when none is configured.
const DefaultTemplates = "templates"

// Candidates are the file names searched, in order, when no path is given.
var Candidates = []string{"config.json", "config.yml", "config.yaml"}

// ErrNotFound is returned when discovery finds no configuration file.
var ErrNotFound = errors.New("config file not found")

// TypeEntry maps one type key to a target type, optionally per format.
type TypeEntry struct {
	Default string            `koanf:"default" json:"default" yaml:"default"`
	Format  map[string]string `koanf:"format" json:"format,omitempty" yaml:"format,omitempty"`
}

type Config struct {
	Types       map[string]TypeEntry `koanf:"types" json:"types" yaml:"types"`
	Extended    map[string]string    `koanf:"extended" json:"extended" yaml:"extended"`
	ArrayLayout string               `koanf:"array_layout" json:"array_layout" yaml:"array_layout"`
	// ObjectLayout, when set, names objects whose object name has no types entry.
	ObjectLayout string `koanf:"object_layout" json:"object_layout,omitempty" yaml:"object_layout,omitempty"`
	// ModelFileName is a template rendered per model to name its output file.
	ModelFileName string `koanf:"model_file_name" json:"model_file_name,omitempty" yaml:"model_file_name,omitempty"`
	Templates     string `koanf:"templates" json:"templates,omitempty" yaml:"templates,omitempty"`
	// Generate holds defaults for the generate command's flags, keyed by flag name.
	Generate map[string]any `koanf:"generate" json:"generate,omitempty" yaml:"generate,omitempty"`

	// Path is the file the configuration was read from.
	Path string `koanf:"-" json:"-" yaml:"-"`
}

// Validate checks the invariants the type mapper relies on.
func (c *Config) Validate() error {
	if !strings.Contains(c.ArrayLayout, TypePlaceholder) {
		return model.NewConfigValidation("array_layout %q has no %s placeholder", c.ArrayLayout, TypePlaceholder)
	}
	if len(c.Types) == 0 {
		return model.NewConfigValidation("types is empty")
	}
	keys := make([]string, 0, len(c.Types))
	for k := range c.Types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.TrimSpace(c.Types[k].Default) == "" {
			return model.NewConfigValidation("types.%s has no default", k)
		}
	}
	return nil
}

// Load reads the configuration at path, or discovers one of Candidates in the
// working directory when path is empty. Files ending in .json are parsed as JSON,
// anything else as YAML. Environment variables SWAGGER2TMPL_ARRAY_LAYOUT,
// SWAGGER2TMPL_OBJECT_LAYOUT, SWAGGER2TMPL_MODEL_FILE_NAME and
// SWAGGER2TMPL_TEMPLATES override the file.
// The result is validated.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		found, err := Discover(".")
		if err != nil {
			return nil, err
		}
		path = found
	} else if st, err := os.Stat(path); err != nil || st.IsDir() {
		return nil, fmt.Errorf("config file %q is not a file", path)
	}

	k := koanf.New(".")
	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parser = json.Parser()
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.Path = path
	if cfg.Templates == "" {
		cfg.Templates = DefaultTemplates
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover returns the first of Candidates present in dir.
func Discover(dir string) (string, error) {
	for _, name := range Candidates {
		p := filepath.Join(dir, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	abs, _ := filepath.Abs(dir)
	return "", fmt.Errorf("%w in %s", ErrNotFound, abs)
}

var envKeys = map[string]bool{
	"array_layout":    true,
	"object_layout":   true,
	"model_file_name": true,
	"templates":       true,
}

// envKey maps SWAGGER2TMPL_ARRAY_LAYOUT to array_layout and ignores anything that
// is not an overridable scalar.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if !envKeys[key] {
		return ""
	}
	return key
}
