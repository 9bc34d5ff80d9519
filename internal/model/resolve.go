package model

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Resolver follows $ref pointers through the component schema registry.
// It never mutates the registry and is safe for concurrent use.
type Resolver struct {
	registry openapi3.Schemas
}

func NewResolver(registry openapi3.Schemas) *Resolver {
	return &Resolver{registry: registry}
}

const componentPrefix = "#/components/schemas/"

// RefName returns the component name a reference points to: the last segment of a
// local pointer such as "#/components/schemas/Pet", or a bare name. Any other
// pointer yields "".
func RefName(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, componentPrefix) {
		name := ref[len(componentPrefix):]
		if strings.Contains(name, "/") {
			return ""
		}
		return name
	}
	if strings.ContainsAny(ref, "/#") {
		return ""
	}
	return ref
}

// Resolve returns the concrete schema ref points to and the name of the component
// that holds it. Chained references are followed; a name seen twice on the chain
// fails with CycleDetected.
func (r *Resolver) Resolve(ref string) (*openapi3.Schema, string, error) {
	var chain []string
	for {
		name := RefName(ref)
		if name == "" {
			return nil, "", refNotFound(ref, "not a local component schema reference")
		}
		for _, seen := range chain {
			if seen == name {
				return nil, "", cycleDetected(append(chain, name))
			}
		}
		chain = append(chain, name)

		entry, ok := r.registry[name]
		if !ok || entry == nil {
			return nil, "", refNotFound(ref, "not in components.schemas")
		}
		if entry.Ref != "" {
			ref = entry.Ref
			continue
		}
		if entry.Value == nil {
			return nil, "", refNotFound(ref, "component has no schema")
		}
		return entry.Value, name, nil
	}
}
