package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/fluxgraph/types"
)

func doublerTool() Tool {
	return Tool{
		Name:        "math.double",
		Description: "doubles an integer",
		Params: Schema{
			Type: "object",
			Properties: map[string]Property{
				"value": {Type: TypeInteger, Description: "the number to double"},
			},
			Required: []string{"value"},
		},
		Fn: func(_ context.Context, args map[string]any) (map[string]any, error) {
			v := args["value"].(int)
			return map[string]any{"value": v * 2}, nil
		},
	}
}

func TestRegistry_RegisterGetInvoke(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(doublerTool()))

	tool, err := reg.Get("math.double")
	require.NoError(t, err)
	assert.Equal(t, "doubles an integer", tool.Description)

	out, err := reg.Invoke(context.Background(), "math.double", map[string]any{"value": 21})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"value": 42}, out)
}

func TestRegistry_DuplicateAndUnknown(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(doublerTool()))

	err := reg.Register(doublerTool())
	require.Error(t, err)
	assert.Equal(t, types.ErrAlreadyRegistered, types.GetErrorCode(err))

	_, err = reg.Get("nope")
	require.Error(t, err)
	assert.Equal(t, types.ErrNotRegistered, types.GetErrorCode(err))

	_, err = reg.Invoke(context.Background(), "nope", nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrNotRegistered, types.GetErrorCode(err))
}

func TestRegistry_RegisterValidation(t *testing.T) {
	reg := NewRegistry(nil)

	err := reg.Register(Tool{Name: "", Fn: func(context.Context, map[string]any) (map[string]any, error) { return nil, nil }})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidConfiguration, types.GetErrorCode(err))

	err = reg.Register(Tool{Name: "broken"})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidConfiguration, types.GetErrorCode(err))
}

func TestRegistry_InvokeValidatesArguments(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(doublerTool()))

	_, err := reg.Invoke(context.Background(), "math.double", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidConfiguration, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "value")

	_, err = reg.Invoke(context.Background(), "math.double", map[string]any{"value": "twenty"})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidConfiguration, types.GetErrorCode(err))
}

func TestRegistry_UnregisterClearNames(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(doublerTool()))
	require.NoError(t, reg.Register(Tool{Name: "alpha", Fn: func(context.Context, map[string]any) (map[string]any, error) { return nil, nil }}))

	assert.Equal(t, []string{"alpha", "math.double"}, reg.Names())
	assert.Equal(t, 2, reg.Len())
	assert.True(t, reg.Has("alpha"))

	assert.True(t, reg.Unregister("alpha"))
	assert.False(t, reg.Unregister("alpha"))
	assert.Equal(t, 1, reg.Len())

	reg.Clear()
	assert.Zero(t, reg.Len())
}

func TestRegistry_ToolErrorsPassThrough(t *testing.T) {
	reg := NewRegistry(nil)
	boom := errors.New("tool exploded")
	require.NoError(t, reg.Register(Tool{
		Name: "bad",
		Fn: func(context.Context, map[string]any) (map[string]any, error) {
			return nil, boom
		},
	}))

	_, err := reg.Invoke(context.Background(), "bad", nil)
	assert.ErrorIs(t, err, boom)
}

func TestSchema_Validate(t *testing.T) {
	schema := Schema{
		Type: "object",
		Properties: map[string]Property{
			"s":   {Type: TypeString},
			"n":   {Type: TypeNumber},
			"i":   {Type: TypeInteger},
			"b":   {Type: TypeBoolean},
			"arr": {Type: TypeArray},
			"obj": {Type: TypeObject},
			"any": {},
		},
		Required: []string{"s"},
	}

	ok := map[string]any{
		"s":   "text",
		"n":   1.5,
		"i":   float64(3), // JSON decoding yields float64 for integers
		"b":   true,
		"arr": []any{1, 2},
		"obj": map[string]any{"k": "v"},
		"any": struct{}{},
	}
	assert.NoError(t, schema.Validate(ok))

	assert.Error(t, schema.Validate(map[string]any{}), "required argument missing")
	assert.Error(t, schema.Validate(map[string]any{"s": 1}), "wrong string type")
	assert.Error(t, schema.Validate(map[string]any{"s": "x", "i": 3.5}), "non-integral integer")
	assert.Error(t, schema.Validate(map[string]any{"s": "x", "b": "true"}), "wrong boolean type")
	assert.NoError(t, schema.Validate(map[string]any{"s": "x", "extra": 1}), "undeclared arguments pass through")
	assert.NoError(t, schema.Validate(map[string]any{"s": "x", "i": 3}), "Go ints are integers")
	assert.NoError(t, schema.Validate(map[string]any{"s": "x", "n": 2}), "Go ints are numbers")
}
