// Package model builds the language-agnostic data structure model that templates
// render: schema resolution, tree construction, required-flag propagation,
// flattening and cross-endpoint deduplication.
package model

import (
	"math"
	"slices"
	"strconv"
)

// PropertyType is the closed set of node tags.
type PropertyType string

const (
	String  PropertyType = "String"
	Number  PropertyType = "Number"
	Integer PropertyType = "Integer"
	Boolean PropertyType = "Boolean"
	Object  PropertyType = "Object"
	Array   PropertyType = "Array"
)

// IsScalar reports whether t is a leaf type.
func (t PropertyType) IsScalar() bool {
	switch t {
	case String, Number, Integer, Boolean:
		return true
	}
	return false
}

// Formats produced by the builder. Unknown schema formats are carried verbatim.
const (
	FormatDate     = "Date"
	FormatDateTime = "DateTime"
	FormatPassword = "Password"
	FormatByte     = "Byte"
	FormatBinary   = "Binary"
	FormatFloat    = "Float"
	FormatDouble   = "Double"
	FormatInt32    = "Int32"
	FormatInt64    = "Int64"
)

// BoundKind tags the numeric representation of a Bound.
type BoundKind uint8

const (
	BoundInt BoundKind = iota
	BoundUint
	BoundFloat
)

// Bound is a numeric constraint value: a signed integer, an unsigned integer
// (values beyond int64) or a float.
type Bound struct {
	Kind  BoundKind
	Int   int64
	Uint  uint64
	Float float64
}

func IntBound(v int64) Bound     { return Bound{Kind: BoundInt, Int: v} }
func UintBound(v uint64) Bound   { return Bound{Kind: BoundUint, Uint: v} }
func FloatBound(v float64) Bound { return Bound{Kind: BoundFloat, Float: v} }

func (b Bound) String() string {
	switch b.Kind {
	case BoundUint:
		return strconv.FormatUint(b.Uint, 10)
	case BoundFloat:
		return strconv.FormatFloat(b.Float, 'f', -1, 64)
	default:
		return strconv.FormatInt(b.Int, 10)
	}
}

// Float64 widens the bound to a float64.
func (b Bound) Float64() float64 {
	switch b.Kind {
	case BoundUint:
		return float64(b.Uint)
	case BoundFloat:
		return b.Float
	default:
		return float64(b.Int)
	}
}

func (b Bound) MarshalJSON() ([]byte, error) {
	if b.Kind == BoundFloat && (math.IsInf(b.Float, 0) || math.IsNaN(b.Float)) {
		return []byte("null"), nil
	}
	return []byte(b.String()), nil
}

// DataStructure is one node of the model: a schema property or a request/response
// root. Trees are built by Builder, finalized once by Finalize and immutable after.
type DataStructure struct {
	Name               string           `json:"name"`
	Description        string           `json:"description,omitempty"`
	PropertyType       PropertyType     `json:"property_type"`
	Format             string           `json:"format,omitempty"`
	Required           bool             `json:"required"`
	Properties         []*DataStructure `json:"properties"`
	RequiredProperties []string         `json:"required_properties"`
	Pattern            string           `json:"pattern,omitempty"`
	Min                *Bound           `json:"min,omitempty"`
	Max                *Bound           `json:"max,omitempty"`
	MinLength          *uint64          `json:"min_length,omitempty"`
	MaxLength          *uint64          `json:"max_length,omitempty"`
	ObjectName         string           `json:"object_name,omitempty"`
	IsRoot             bool             `json:"is_root"`
}

// IsComposite reports whether the node is an Object or an Array, the only node kinds
// that become standalone models.
func (d *DataStructure) IsComposite() bool {
	return d.PropertyType == Object || d.PropertyType == Array
}

// Item returns the element of an Array node, or nil.
func (d *DataStructure) Item() *DataStructure {
	if d.PropertyType != Array || len(d.Properties) == 0 {
		return nil
	}
	return d.Properties[0]
}

// Property returns the child with the given name, or nil.
func (d *DataStructure) Property(name string) *DataStructure {
	for _, p := range d.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// HasRequired reports whether name is in the node's declared required set.
func (d *DataStructure) HasRequired(name string) bool {
	return slices.Contains(d.RequiredProperties, name)
}

// Walk visits d and its descendants in pre-order. Returning false from fn skips the
// node's children.
func (d *DataStructure) Walk(fn func(*DataStructure) bool) {
	if d == nil || !fn(d) {
		return
	}
	for _, p := range d.Properties {
		p.Walk(fn)
	}
}

// Equal reports full structural equality of two trees.
func Equal(a, b *DataStructure) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Name != b.Name ||
		a.Description != b.Description ||
		a.PropertyType != b.PropertyType ||
		a.Format != b.Format ||
		a.Required != b.Required ||
		a.Pattern != b.Pattern ||
		a.ObjectName != b.ObjectName ||
		a.IsRoot != b.IsRoot {
		return false
	}
	if !boundEqual(a.Min, b.Min) || !boundEqual(a.Max, b.Max) {
		return false
	}
	if !uintPtrEqual(a.MinLength, b.MinLength) || !uintPtrEqual(a.MaxLength, b.MaxLength) {
		return false
	}
	if !slices.Equal(a.RequiredProperties, b.RequiredProperties) {
		return false
	}
	if len(a.Properties) != len(b.Properties) {
		return false
	}
	for i := range a.Properties {
		if !Equal(a.Properties[i], b.Properties[i]) {
			return false
		}
	}
	return true
}

func boundEqual(a, b *Bound) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func uintPtrEqual(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Bounds returns the effective numeric range of a scalar node: the declared min/max
// or, when absent, the default range for its type and format.
func (d *DataStructure) Bounds() (lo, hi Bound) {
	lo, hi = DefaultBounds(d.PropertyType, d.Format)
	if d.Min != nil {
		lo = *d.Min
	}
	if d.Max != nil {
		hi = *d.Max
	}
	return lo, hi
}

// DefaultBounds is the range used for sample values when a schema declares none.
func DefaultBounds(t PropertyType, format string) (lo, hi Bound) {
	switch t {
	case Integer:
		if format == FormatInt64 {
			return IntBound(math.MinInt64), IntBound(math.MaxInt64)
		}
		return IntBound(math.MinInt32), IntBound(math.MaxInt32)
	case Number:
		if format == FormatDouble {
			return IntBound(math.MinInt64), IntBound(math.MaxInt64)
		}
		return FloatBound(-math.MaxFloat32), FloatBound(math.MaxFloat32)
	}
	return IntBound(0), IntBound(0)
}
