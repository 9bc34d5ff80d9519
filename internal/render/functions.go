package render

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/mark3labs/swagger2tmpl/internal/config"
	"github.com/mark3labs/swagger2tmpl/internal/model"
	"github.com/mark3labs/swagger2tmpl/internal/sample"
	"github.com/mark3labs/swagger2tmpl/internal/typemap"
)

// Functions are the operations templates may call. They are exposed to templates
// as map_type, extended, exists, sample and sample_json.
type Functions interface {
	MapType(d *model.DataStructure) (string, error)
	Extended(key string) (string, error)
	Exists(key string) bool
	// Sample returns the sentinel value tree of d.
	Sample(d *model.DataStructure, mode string) (any, error)
	// SampleJSON returns d's sample as indented JSON with sentinels expanded to
	// fake values. The types mode is not expanded.
	SampleJSON(d *model.DataStructure, mode string) (string, error)
}

type FuncOption func(*funcOptions)

type funcOptions struct {
	seed int64
	prob float64
}

// WithSeed makes sampling reproducible. Zero means random.
func WithSeed(seed int64) FuncOption {
	return func(o *funcOptions) { o.seed = seed }
}

// WithProbability sets the inclusion chance of optional fields in full samples.
func WithProbability(p float64) FuncOption {
	return func(o *funcOptions) { o.prob = p }
}

type functions struct {
	extended map[string]string
	mapper   *typemap.Mapper
	synth    *sample.Synthesizer
	expander *sample.Expander
}

// NewFunctions builds the template operations over cfg.
func NewFunctions(cfg *config.Config, opts ...FuncOption) (Functions, error) {
	o := funcOptions{prob: 0.5}
	for _, opt := range opts {
		opt(&o)
	}
	mapper, err := typemap.New(cfg)
	if err != nil {
		return nil, err
	}
	src := rand.NewPCG(rand.Uint64(), rand.Uint64())
	if o.seed != 0 {
		src = rand.NewPCG(uint64(o.seed), uint64(o.seed))
	}
	return &functions{
		extended: cfg.Extended,
		mapper:   mapper,
		synth: sample.New(
			sample.WithRand(rand.New(src)),
			sample.WithProbability(o.prob),
			sample.WithTypeMapper(mapper),
		),
		expander: sample.NewExpander(o.seed),
	}, nil
}

func (f *functions) MapType(d *model.DataStructure) (string, error) {
	return f.mapper.Map(d)
}

func (f *functions) Extended(key string) (string, error) {
	v, ok := f.extended[key]
	if !ok {
		return "", fmt.Errorf("extended key %q is not configured", key)
	}
	return v, nil
}

func (f *functions) Exists(key string) bool {
	_, ok := f.extended[key]
	return ok
}

func (f *functions) Sample(d *model.DataStructure, mode string) (any, error) {
	m, err := sample.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	return f.synth.Synthesize(d, m)
}

func (f *functions) SampleJSON(d *model.DataStructure, mode string) (string, error) {
	m, err := sample.ParseMode(mode)
	if err != nil {
		return "", err
	}
	v, err := f.synth.Synthesize(d, m)
	if err != nil {
		return "", err
	}
	if m != sample.Types {
		v = f.expander.Expand(v)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
