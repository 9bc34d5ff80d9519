package model

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// Builder converts schemas into DataStructure trees. It reads the registry through a
// Resolver and never mutates it, so one Builder may serve concurrent builds.
type Builder struct {
	resolver *Resolver
}

func NewBuilder(registry openapi3.Schemas) *Builder {
	return &Builder{resolver: NewResolver(registry)}
}

// Resolver returns the resolver the builder follows references with.
func (b *Builder) Resolver() *Resolver { return b.resolver }

// Build converts ref into a tree named name. A reference reached with an empty
// name takes the component's name. inArray tags an object schema as an Array node.
// The result is not finalized; see BuildRoot.
func (b *Builder) Build(ref *openapi3.SchemaRef, name string, inArray bool) (*DataStructure, error) {
	return b.build(ref, name, inArray, nil)
}

// BuildRoot builds the top-level request or response node of an endpoint and runs
// Finalize on it.
func (b *Builder) BuildRoot(ref *openapi3.SchemaRef) (*DataStructure, error) {
	root, err := b.build(ref, "", false, nil)
	if err != nil {
		return nil, err
	}
	root.IsRoot = true
	Finalize(root)
	return root, nil
}

// build carries the component names entered on the current path; meeting one of
// them again is structural recursion.
func (b *Builder) build(ref *openapi3.SchemaRef, name string, inArray bool, path []string) (*DataStructure, error) {
	if ref == nil {
		return nil, unsupported(name, "missing schema")
	}
	schema, model := ref.Value, ""
	if ref.Ref != "" {
		resolved, component, err := b.resolver.Resolve(ref.Ref)
		if err != nil {
			return nil, err
		}
		if slices.Contains(path, component) {
			return nil, cycleDetected(append(slices.Clone(path), component))
		}
		path = append(path[:len(path):len(path)], component)
		schema, model = resolved, component
		if name == "" {
			name = component
		}
	}
	if schema == nil {
		return nil, unsupported(name, "empty schema")
	}
	return b.fromSchema(schema, name, model, inArray, path)
}

func (b *Builder) fromSchema(s *openapi3.Schema, name, model string, inArray bool, path []string) (*DataStructure, error) {
	switch {
	case len(s.OneOf) > 0:
		return nil, unsupported(name, "oneOf is not supported")
	case len(s.AnyOf) > 0:
		return nil, unsupported(name, "anyOf is not supported")
	case len(s.AllOf) > 0:
		return nil, unsupported(name, "allOf is not supported")
	case s.Not != nil:
		return nil, unsupported(name, "not is not supported")
	}

	typ := s.Type
	if typ == "" && len(s.Properties) > 0 {
		typ = openapi3.TypeObject
	}

	ds := &DataStructure{Name: name, Description: s.Description}
	switch typ {
	case openapi3.TypeString:
		ds.PropertyType = String
		ds.Format = stringFormat(s.Format)
		ds.Pattern = s.Pattern
		if s.MinLength > 0 {
			v := s.MinLength
			ds.MinLength = &v
		}
		if s.MaxLength != nil {
			v := *s.MaxLength
			ds.MaxLength = &v
		}
	case openapi3.TypeInteger:
		ds.PropertyType = Integer
		ds.Format = integerFormat(s.Format)
		ds.Min = integerBound(s.Min)
		ds.Max = integerBound(s.Max)
	case openapi3.TypeNumber:
		ds.PropertyType = Number
		ds.Format = numberFormat(s.Format)
		ds.Min = floatBound(s.Min)
		ds.Max = floatBound(s.Max)
	case openapi3.TypeBoolean:
		ds.PropertyType = Boolean
	case openapi3.TypeObject:
		ds.PropertyType = Object
		if inArray {
			ds.PropertyType = Array
		}
		objectName := name
		if model != "" {
			objectName = model
		}
		ds.ObjectName = objectName + "Object"
		ds.RequiredProperties = requiredSet(s.Required)

		keys := make([]string, 0, len(s.Properties))
		for k := range s.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ds.Properties = make([]*DataStructure, 0, len(keys))
		for _, k := range keys {
			child, err := b.build(s.Properties[k], k, false, path)
			if err != nil {
				return nil, err
			}
			ds.Properties = append(ds.Properties, child)
		}
	case openapi3.TypeArray:
		if s.Items == nil {
			return nil, unsupported(name, "array without items")
		}
		ds.PropertyType = Array
		itemName := name + "Item"
		if s.Items.Ref != "" {
			itemName = ""
		}
		item, err := b.build(s.Items, itemName, false, path)
		if err != nil {
			return nil, err
		}
		ds.Properties = []*DataStructure{item}
	case "":
		return nil, unsupported(name, "schema has no type")
	default:
		return nil, unsupported(name, fmt.Sprintf("unknown type %q", typ))
	}
	return ds, nil
}

func requiredSet(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := slices.Clone(names)
	sort.Strings(out)
	return slices.Compact(out)
}

func stringFormat(f string) string {
	switch f {
	case "date":
		return FormatDate
	case "date-time":
		return FormatDateTime
	case "password":
		return FormatPassword
	case "byte":
		return FormatByte
	case "binary":
		return FormatBinary
	}
	return f
}

func numberFormat(f string) string {
	switch f {
	case "float":
		return FormatFloat
	case "double":
		return FormatDouble
	}
	return f
}

func integerFormat(f string) string {
	switch f {
	case "int32":
		return FormatInt32
	case "int64":
		return FormatInt64
	}
	return f
}

func integerBound(v *float64) *Bound {
	if v == nil {
		return nil
	}
	f := math.Trunc(*v)
	var b Bound
	switch {
	case f >= math.MaxInt64 && f < math.MaxUint64:
		b = UintBound(uint64(f))
	case f >= math.MaxInt64:
		b = UintBound(math.MaxUint64)
	case f <= math.MinInt64:
		b = IntBound(math.MinInt64)
	default:
		b = IntBound(int64(f))
	}
	return &b
}

func floatBound(v *float64) *Bound {
	if v == nil {
		return nil
	}
	b := FloatBound(*v)
	return &b
}
