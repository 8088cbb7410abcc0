package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/snapshot/internal/core/models"
)

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	r := scenarioRegistry(t)
	assert.Equal(t, []string{"Component1", "Component2", "Component3", "ComponentNotUsed"}, r.Names())
	assert.Equal(t, 4, r.Len())

	c, ok := r.Lookup("Component2")
	require.True(t, ok)
	assert.Equal(t, "Component2", c.Name)

	_, ok = r.Lookup("Nope")
	assert.False(t, ok)
}

func TestRegistryRejectsBadCodecs(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Add(Codec{}), ErrInvalidTypeName)
	assert.ErrorIs(t, r.Add(Codec{Name: "A"}), ErrInvalidCodec)

	require.NoError(t, Register[Component1](r))
	assert.ErrorIs(t, Register[Component1](r), ErrAlreadyRegistered)
	require.NoError(t, RegisterAs[Component1](r, "Legacy"))
	assert.Panics(t, func() { MustRegister[Component1](r) })
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "Component3", TypeName[Component3]())
	assert.Equal(t, "EntityID", TypeName[models.EntityID]())
	assert.Equal(t, "[]int", TypeName[[]int]())
}

type fixedMapper map[models.EntityID]models.EntityID

func (m fixedMapper) Map(ref models.EntityID) (models.EntityID, error) {
	return m[ref], nil
}

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec[Component2]("Component2")

	data, err := codec.Encode(Component2{Target: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"target":3}`, string(data))

	data, err = codec.Encode(&Component2{Target: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"target":4}`, string(data))

	_, err = codec.Encode((*Component2)(nil))
	assert.ErrorIs(t, err, ErrTypeMismatch)

	value, err := codec.Decode(json.RawMessage(`{"target":3}`), fixedMapper{3: 30})
	require.NoError(t, err)
	assert.Equal(t, Component2{Target: 30}, value)

	_, err = codec.Decode(nil, fixedMapper{})
	assert.ErrorIs(t, err, ErrMissingValue)
}

func TestJSONCodecEmptyStruct(t *testing.T) {
	codec := JSONCodec[Component1]("Component1")

	data, err := codec.Encode(Component1{})
	require.NoError(t, err)
	assert.Nil(t, data)

	value, err := codec.Decode(nil, fixedMapper{})
	require.NoError(t, err)
	assert.Equal(t, Component1{}, value)

	value, err = codec.Decode(json.RawMessage(`{}`), fixedMapper{})
	require.NoError(t, err)
	assert.Equal(t, Component1{}, value)
}

func TestJSONCodecScalarComponent(t *testing.T) {
	codec := JSONCodec[int]("Score")
	data, err := codec.Encode(12)
	require.NoError(t, err)
	assert.Equal(t, "12", string(data))

	value, err := codec.Decode(json.RawMessage("12"), fixedMapper{})
	require.NoError(t, err)
	assert.Equal(t, 12, value)
}

type Tags []string

func TestJSONCodecNilableNull(t *testing.T) {
	value, err := JSONCodec[Tags]("Tags").Decode(nil, fixedMapper{})
	require.NoError(t, err)
	assert.Equal(t, Tags(nil), value)

	value, err = JSONCodec[map[string]int]("Counters").Decode(json.RawMessage("null"), fixedMapper{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int(nil), value)

	value, err = JSONCodec[*Component2]("Optional").Decode(nil, fixedMapper{})
	require.NoError(t, err)
	assert.Equal(t, (*Component2)(nil), value)

	_, err = JSONCodec[int]("Score").Decode(nil, fixedMapper{})
	assert.ErrorIs(t, err, ErrMissingValue)
}
