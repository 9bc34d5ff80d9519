// Package typemap maps model nodes to target-language type names using the
// configured type table.
package typemap

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mark3labs/swagger2tmpl/internal/config"
	"github.com/mark3labs/swagger2tmpl/internal/model"
)

// Mapper resolves DataStructure nodes against a validated configuration. It holds
// no mutable state and is safe for concurrent use.
type Mapper struct {
	types        map[string]config.TypeEntry
	layout       string
	objectLayout string
}

// New validates cfg and returns a Mapper over its type table.
func New(cfg *config.Config) (*Mapper, error) {
	if cfg == nil {
		return nil, model.NewConfigValidation("no configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Mapper{types: cfg.Types, layout: cfg.ArrayLayout, objectLayout: cfg.ObjectLayout}, nil
}

// Key is the lookup key of a node: its object name when set, else its type tag.
func Key(d *model.DataStructure) string {
	if d.ObjectName != "" {
		return d.ObjectName
	}
	return string(d.PropertyType)
}

// Map returns the target type of d. Arrays wrap the type of their resolved key in
// the array layout. An object name missing from the table resolves through the
// object layout when one is configured.
func (m *Mapper) Map(d *model.DataStructure) (string, error) {
	if d == nil {
		return "", model.NewMissingTypeMapping("", "")
	}
	key := Key(d)
	resolved, err := m.Lookup(key, d.Format)
	if err != nil {
		named, ok := m.objectName(d)
		if !ok {
			return "", err
		}
		resolved = named
	}
	if d.PropertyType == model.Array {
		return m.Wrap(resolved), nil
	}
	return resolved, nil
}

// Lookup resolves a key and optional format directly against the type table.
func (m *Mapper) Lookup(key, format string) (string, error) {
	entry, ok := m.types[key]
	if !ok {
		return "", model.NewMissingTypeMapping(key, format)
	}
	if format == "" {
		return entry.Default, nil
	}
	t, ok := entry.Format[format]
	if !ok {
		return "", model.NewMissingTypeMapping(key, format)
	}
	return t, nil
}

// Wrap substitutes elem into the array layout.
func (m *Mapper) Wrap(elem string) string {
	return strings.ReplaceAll(m.layout, config.TypePlaceholder, elem)
}

func (m *Mapper) objectName(d *model.DataStructure) (string, bool) {
	if m.objectLayout == "" || d.Format != "" || d.ObjectName == "" {
		return "", false
	}
	// Type tags are never named through the layout.
	switch tag := model.PropertyType(d.ObjectName); {
	case tag.IsScalar(), tag == model.Object, tag == model.Array:
		return "", false
	}
	r := strings.NewReplacer(
		config.ObjectNamePlaceholder, d.ObjectName,
		config.NamePlaceholder, TypeName(d.ObjectName),
	)
	return r.Replace(m.objectLayout), true
}

// TypeName turns an object name such as "addressObject" into "Address".
func TypeName(objectName string) string {
	name := strings.TrimSuffix(objectName, string(model.Object))
	if name == "" {
		return objectName
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
