package sample

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2tmpl/internal/model"
)

func bound(v int64) *model.Bound {
	b := model.IntBound(v)
	return &b
}

func pet() *model.DataStructure {
	return &model.DataStructure{
		Name:               "Pet",
		PropertyType:       model.Object,
		ObjectName:         "PetObject",
		RequiredProperties: []string{"id", "name"},
		IsRoot:             true,
		Properties: []*model.DataStructure{
			{Name: "id", PropertyType: model.Integer, Format: model.FormatInt64, Required: true},
			{Name: "name", PropertyType: model.String, Required: true},
			{Name: "tag", PropertyType: model.String},
		},
	}
}

func TestSynthesize_Minimal(t *testing.T) {
	v, err := New().Synthesize(pet(), Minimal)
	require.NoError(t, err)
	obj, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Len(t, obj, 2)
	assert.Equal(t, "@Number|-9223372036854775808~9223372036854775807", obj["id"])
	assert.Equal(t, SentinelSentence, obj["name"])
	assert.NotContains(t, obj, "tag")
}

func TestSynthesize_FullKeepsRequired(t *testing.T) {
	s := New(WithRand(rand.New(rand.NewPCG(1, 2))))
	sawTag := false
	for range 50 {
		v, err := s.Synthesize(pet(), Full)
		require.NoError(t, err)
		obj := v.(map[string]any)
		assert.Contains(t, obj, "id")
		assert.Contains(t, obj, "name")
		for k := range obj {
			assert.Contains(t, []string{"id", "name", "tag"}, k)
		}
		if _, ok := obj["tag"]; ok {
			sawTag = true
		}
	}
	assert.True(t, sawTag)
}

func TestSynthesize_Probability(t *testing.T) {
	always := New(WithProbability(1))
	v, err := always.Synthesize(pet(), Full)
	require.NoError(t, err)
	assert.Len(t, v.(map[string]any), 3)

	never := New(WithProbability(0))
	v, err = never.Synthesize(pet(), Full)
	require.NoError(t, err)
	assert.Len(t, v.(map[string]any), 2)
}

func TestSynthesize_ArrayHasOneItem(t *testing.T) {
	arr := &model.DataStructure{PropertyType: model.Array, ObjectName: "PetObject", Properties: []*model.DataStructure{pet()}}
	v, err := New().Synthesize(arr, Minimal)
	require.NoError(t, err)
	items := v.([]any)
	require.Len(t, items, 1)
	assert.Len(t, items[0].(map[string]any), 2)

	empty, err := New().Synthesize(&model.DataStructure{PropertyType: model.Array}, Full)
	require.NoError(t, err)
	assert.Equal(t, []any{}, empty)
}

func TestLeaf(t *testing.T) {
	cases := []struct {
		node *model.DataStructure
		want string
	}{
		{&model.DataStructure{PropertyType: model.String, Format: model.FormatDate}, SentinelDate},
		{&model.DataStructure{PropertyType: model.String, Format: model.FormatDateTime}, SentinelDateTime},
		{&model.DataStructure{PropertyType: model.String, Format: model.FormatByte}, SentinelByte},
		{&model.DataStructure{PropertyType: model.String, Format: model.FormatBinary}, SentinelBinary},
		{&model.DataStructure{PropertyType: model.String, Format: "uuid"}, SentinelSentence},
		{&model.DataStructure{PropertyType: model.Boolean}, SentinelBool},
		{&model.DataStructure{PropertyType: model.Integer}, "@Number|-2147483648~2147483647"},
		{&model.DataStructure{PropertyType: model.Integer, Min: bound(1), Max: bound(100)}, "@Number|1~100"},
		{&model.DataStructure{PropertyType: model.Number, Format: model.FormatDouble}, "@Float|-9223372036854775808~9223372036854775807"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Leaf(c.node))
	}
}

type fakeMapper struct{}

func (fakeMapper) Map(d *model.DataStructure) (string, error) {
	return "T" + string(d.PropertyType), nil
}

func TestSynthesize_Types(t *testing.T) {
	_, err := New().Synthesize(pet(), Types)
	assert.Error(t, err)

	v, err := New(WithTypeMapper(fakeMapper{})).Synthesize(pet(), Types)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "TInteger", "name": "TString", "tag": "TString"}, v)
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"full": Full, "random": Full, "minimal": Minimal, "Required": Minimal, "types": Types} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("bogus")
	assert.Error(t, err)
}

func TestExpander(t *testing.T) {
	v, err := New().Synthesize(&model.DataStructure{
		PropertyType: model.Object,
		Properties: []*model.DataStructure{
			{Name: "age", PropertyType: model.Integer, Min: bound(1), Max: bound(3), Required: true},
			{Name: "ok", PropertyType: model.Boolean, Required: true},
			{Name: "born", PropertyType: model.String, Format: model.FormatDate, Required: true},
		},
	}, Minimal)
	require.NoError(t, err)

	out := NewExpander(42).Expand(v).(map[string]any)
	age := out["age"].(int64)
	assert.GreaterOrEqual(t, age, int64(1))
	assert.LessOrEqual(t, age, int64(3))
	assert.IsType(t, true, out["ok"])
	assert.Len(t, out["born"], len("2006-01-02"))

	again := NewExpander(42).Expand(v)
	a, _ := json.Marshal(out)
	b, _ := json.Marshal(again)
	assert.JSONEq(t, string(a), string(b))

	assert.Equal(t, "plain", NewExpander(1).Expand("plain"))
	assert.Equal(t, 3.5, NewExpander(1).Expand(3.5))
}
