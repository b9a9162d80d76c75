package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputs(t *testing.T) {
	inputs, err := parseInputs([]string{
		"value=5",
		"rate=0.5",
		"enabled=true",
		"name=hello world",
		"Fetch.value=7",
		"quoted='007'",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, inputs["value"])
	assert.Equal(t, 0.5, inputs["rate"])
	assert.Equal(t, true, inputs["enabled"])
	assert.Equal(t, "hello world", inputs["name"])
	assert.Equal(t, 7, inputs["Fetch.value"])
	// 引号强制字符串类型
	assert.Equal(t, "007", inputs["quoted"])
}

func TestParseInputs_Empty(t *testing.T) {
	inputs, err := parseInputs(nil)
	require.NoError(t, err)
	assert.Nil(t, inputs)
}

func TestParseInputs_Invalid(t *testing.T) {
	_, err := parseInputs([]string{"no-equals-sign"})
	assert.Error(t, err)

	_, err = parseInputs([]string{"=value"})
	assert.Error(t, err)
}

func TestParseInputs_EmptyValue(t *testing.T) {
	inputs, err := parseInputs([]string{"key="})
	require.NoError(t, err)
	assert.Nil(t, inputs["key"])
}

func TestRepeatedFlag(t *testing.T) {
	var f repeatedFlag
	require.NoError(t, f.Set("a"))
	require.NoError(t, f.Set("b"))
	assert.Equal(t, repeatedFlag{"a", "b"}, f)
	assert.Equal(t, "a,b", f.String())
}

func TestCompactJSON(t *testing.T) {
	assert.Equal(t, `{"value":10}`, compactJSON(map[string]any{"value": 10}))
	assert.Equal(t, "null", compactJSON(nil))

	// 不可序列化的值退化为 fmt 输出
	assert.NotEmpty(t, compactJSON(map[string]any{"fn": func() {}}))
}
