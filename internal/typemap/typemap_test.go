package typemap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2tmpl/internal/config"
	"github.com/mark3labs/swagger2tmpl/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		Types: map[string]config.TypeEntry{
			"Integer":   {Default: "number", Format: map[string]string{"Int64": "long"}},
			"String":    {Default: "String", Format: map[string]string{"DateTime": "DateTime"}},
			"PetObject": {Default: "Pet"},
		},
		ArrayLayout: "List<{type}>",
	}
}

func newMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := New(testConfig())
	require.NoError(t, err)
	return m
}

func TestMap_Scalars(t *testing.T) {
	assert := assert.New(t)
	m := newMapper(t)

	got, err := m.Map(&model.DataStructure{PropertyType: model.Integer, Format: model.FormatInt64})
	require.NoError(t, err)
	assert.Equal("long", got)

	got, err = m.Map(&model.DataStructure{PropertyType: model.Integer})
	require.NoError(t, err)
	assert.Equal("number", got)

	got, err = m.Map(&model.DataStructure{PropertyType: model.Object, ObjectName: "PetObject"})
	require.NoError(t, err)
	assert.Equal("Pet", got)
}

func TestMap_Array(t *testing.T) {
	m := newMapper(t)
	arr := &model.DataStructure{
		PropertyType: model.Array,
		ObjectName:   "String",
		Properties:   []*model.DataStructure{{PropertyType: model.String}},
	}
	got, err := m.Map(arr)
	require.NoError(t, err)
	assert.Equal(t, "List<String>", got)

	pets := &model.DataStructure{PropertyType: model.Array, ObjectName: "PetObject"}
	got, err = m.Map(pets)
	require.NoError(t, err)
	assert.Equal(t, "List<Pet>", got)
}

func TestMap_Missing(t *testing.T) {
	m := newMapper(t)

	_, err := m.Map(&model.DataStructure{PropertyType: model.Boolean})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMissingTypeMapping))
	var me *model.Error
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "Boolean", me.Key)
	assert.Empty(t, me.Format)

	_, err = m.Map(&model.DataStructure{PropertyType: model.Integer, Format: model.FormatInt32})
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "Integer", me.Key)
	assert.Equal(t, model.FormatInt32, me.Format)

	_, err = m.Map(nil)
	assert.True(t, errors.Is(err, model.ErrMissingTypeMapping))
}

func TestMap_Pure(t *testing.T) {
	m := newMapper(t)
	d := &model.DataStructure{PropertyType: model.String, Format: model.FormatDateTime}
	first, err := m.Map(d)
	require.NoError(t, err)
	for range 10 {
		again, err := m.Map(d)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ArrayLayout = "List<T>"
	_, err := New(cfg)
	assert.True(t, errors.Is(err, model.ErrConfigValidation))

	_, err = New(nil)
	assert.True(t, errors.Is(err, model.ErrConfigValidation))
}

func TestMap_ObjectLayout(t *testing.T) {
	cfg := testConfig()
	cfg.ObjectLayout = "{name}Dto"
	m, err := New(cfg)
	require.NoError(t, err)

	got, err := m.Map(&model.DataStructure{PropertyType: model.Object, ObjectName: "addressObject"})
	require.NoError(t, err)
	assert.Equal(t, "AddressDto", got)

	got, err = m.Map(&model.DataStructure{PropertyType: model.Array, ObjectName: "OwnerObject"})
	require.NoError(t, err)
	assert.Equal(t, "List<OwnerDto>", got)

	// Configured names win over the layout.
	got, err = m.Map(&model.DataStructure{PropertyType: model.Object, ObjectName: "PetObject"})
	require.NoError(t, err)
	assert.Equal(t, "Pet", got)

	_, err = m.Map(&model.DataStructure{PropertyType: model.Boolean})
	assert.True(t, errors.Is(err, model.ErrMissingTypeMapping))
	_, err = m.Map(&model.DataStructure{PropertyType: model.Object, ObjectName: "Object"})
	assert.True(t, errors.Is(err, model.ErrMissingTypeMapping))
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "Address", TypeName("addressObject"))
	assert.Equal(t, "Pet", TypeName("PetObject"))
	assert.Equal(t, "Object", TypeName("Object"))
	assert.Equal(t, "Thing", TypeName("Thing"))
}
