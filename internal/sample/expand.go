package sample

import (
	"encoding/base64"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Expander replaces sentinel tokens with fake values. A zero seed draws a random one.
type Expander struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

func NewExpander(seed int64) *Expander {
	return &Expander{faker: gofakeit.New(seed)}
}

// Expand returns a copy of v with every sentinel string replaced. Other strings
// pass through untouched.
func (e *Expander) Expand(v any) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expand(v)
}

func (e *Expander) expand(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		// Visit keys in order so the same seed yields the same values.
		for _, k := range slices.Sorted(maps.Keys(t)) {
			out[k] = e.expand(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = e.expand(t[i])
		}
		return out
	case string:
		return e.token(t)
	}
	return v
}

func (e *Expander) token(s string) any {
	f := e.faker
	switch s {
	case SentinelDate:
		return f.Date().Format(time.DateOnly)
	case SentinelDateTime:
		return f.Date().UTC().Format(time.RFC3339)
	case SentinelByte:
		return base64.StdEncoding.EncodeToString([]byte(f.LetterN(12)))
	case SentinelBinary:
		return f.LetterN(16)
	case SentinelSentence:
		return f.Sentence(6)
	case SentinelBool:
		return f.Bool()
	}
	if rest, ok := strings.CutPrefix(s, numberPrefix); ok {
		if lo, hi, ok := intRange(rest); ok {
			return e.intBetween(lo, hi)
		}
		if lo, hi, ok := floatRange(rest); ok {
			return math.Round(f.Float64Range(lo, hi))
		}
	}
	if rest, ok := strings.CutPrefix(s, floatPrefix); ok {
		if lo, hi, ok := floatRange(rest); ok {
			if lo == hi {
				return lo
			}
			return f.Float64Range(lo, hi)
		}
	}
	return s
}

func (e *Expander) intBetween(lo, hi int64) int64 {
	span := uint64(hi) - uint64(lo)
	if span == math.MaxUint64 {
		return int64(e.faker.Uint64())
	}
	return int64(uint64(lo) + e.faker.Uint64()%(span+1))
}

func intRange(s string) (int64, int64, bool) {
	a, b, ok := strings.Cut(s, "~")
	if !ok {
		return 0, 0, false
	}
	lo, err1 := strconv.ParseInt(a, 10, 64)
	hi, err2 := strconv.ParseInt(b, 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

func floatRange(s string) (float64, float64, bool) {
	a, b, ok := strings.Cut(s, "~")
	if !ok {
		return 0, 0, false
	}
	lo, err1 := strconv.ParseFloat(a, 64)
	hi, err2 := strconv.ParseFloat(b, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}
