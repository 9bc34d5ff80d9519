// Package sample synthesizes example payloads from model trees. Leaves are
// emitted as sentinel tokens which an Expander can turn into fake values.
package sample

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/mark3labs/swagger2tmpl/internal/model"
)

// Sentinel tokens emitted for scalar leaves.
const (
	SentinelDate     = "@Date"
	SentinelDateTime = "@DateTime"
	SentinelByte     = "byte data"
	SentinelBinary   = "binary data"
	SentinelSentence = "@Sentence"
	SentinelBool     = "@Bool"
	numberPrefix     = "@Number|"
	floatPrefix      = "@Float|"
)

// Mode selects which fields are synthesized and how leaves are encoded.
type Mode int

const (
	// Full includes every required field and each optional field with the
	// configured probability.
	Full Mode = iota
	// Minimal includes exactly the required fields.
	Minimal
	// Types includes every field and emits the mapped type name for each leaf.
	Types
)

func (m Mode) String() string {
	switch m {
	case Full:
		return "full"
	case Minimal:
		return "minimal"
	case Types:
		return "types"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts full/random, minimal/required and types.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full", "random":
		return Full, nil
	case "minimal", "required":
		return Minimal, nil
	case "types":
		return Types, nil
	}
	return Full, fmt.Errorf("unknown sample mode %q", s)
}

// TypeMapper resolves leaf type names for Types mode.
type TypeMapper interface {
	Map(*model.DataStructure) (string, error)
}

type Option func(*Synthesizer)

// WithRand sets the random source deciding optional fields in Full mode.
func WithRand(r *rand.Rand) Option {
	return func(s *Synthesizer) { s.rnd = r }
}

// WithProbability sets the chance that an optional field is included in Full mode.
func WithProbability(p float64) Option {
	return func(s *Synthesizer) {
		if p >= 0 && p <= 1 {
			s.prob = p
		}
	}
}

func WithTypeMapper(m TypeMapper) Option {
	return func(s *Synthesizer) { s.mapper = m }
}

// Synthesizer builds value trees of map[string]any, []any and string leaves.
// It is not safe for concurrent use when a shared random source is configured.
type Synthesizer struct {
	rnd    *rand.Rand
	prob   float64
	mapper TypeMapper
}

func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{prob: 0.5}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Synthesize walks root and returns its sample value.
func (s *Synthesizer) Synthesize(root *model.DataStructure, mode Mode) (any, error) {
	if root == nil {
		return nil, nil
	}
	if mode == Types && s.mapper == nil {
		return nil, fmt.Errorf("sample mode %s needs a type mapper", mode)
	}
	return s.value(root, mode)
}

func (s *Synthesizer) value(d *model.DataStructure, mode Mode) (any, error) {
	switch d.PropertyType {
	case model.Object:
		out := make(map[string]any, len(d.Properties))
		for _, p := range d.Properties {
			if !s.include(p, mode) {
				continue
			}
			v, err := s.value(p, mode)
			if err != nil {
				return nil, err
			}
			out[p.Name] = v
		}
		return out, nil
	case model.Array:
		item := d.Item()
		if item == nil {
			return []any{}, nil
		}
		v, err := s.value(item, mode)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}
	if mode == Types {
		return s.mapper.Map(d)
	}
	return Leaf(d), nil
}

func (s *Synthesizer) include(p *model.DataStructure, mode Mode) bool {
	switch {
	case p.Required, mode == Types:
		return true
	case mode == Minimal:
		return false
	}
	return s.rnd.Float64() < s.prob
}

// Leaf returns the sentinel token of a scalar node.
func Leaf(d *model.DataStructure) string {
	switch d.PropertyType {
	case model.String:
		switch d.Format {
		case model.FormatDate:
			return SentinelDate
		case model.FormatDateTime:
			return SentinelDateTime
		case model.FormatByte:
			return SentinelByte
		case model.FormatBinary:
			return SentinelBinary
		}
		return SentinelSentence
	case model.Boolean:
		return SentinelBool
	case model.Integer:
		lo, hi := d.Bounds()
		return numberPrefix + lo.String() + "~" + hi.String()
	case model.Number:
		lo, hi := d.Bounds()
		return floatPrefix + lo.String() + "~" + hi.String()
	}
	return SentinelSentence
}
