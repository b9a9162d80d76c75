package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/fluxgraph/agent"
)

func TestRegisterBuiltins(t *testing.T) {
	reg := agent.NewRegistry(zap.NewNop())
	require.NoError(t, RegisterBuiltins(reg))

	for _, name := range []string{
		"core.echo", "core.sleep", "core.fail",
		"math.sum", "math.double",
		"text.upper", "text.template",
		"time.now",
	} {
		assert.True(t, reg.Has(name), "builtin %s should be registered", name)
	}

	// 重复注册返回错误
	assert.Error(t, RegisterBuiltins(reg))
}

func TestEchoAgent(t *testing.T) {
	out, err := echoAgent(context.Background(), map[string]any{"a": 1, "b": "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": "x"}, out)

	out, err = echoAgent(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSleepAgent(t *testing.T) {
	start := time.Now()
	out, err := sleepAgent(context.Background(), map[string]any{"ms": 10})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"slept_ms": 10.0}, out)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	_, err = sleepAgent(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestSleepAgent_Canceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := sleepAgent(ctx, map[string]any{"ms": 5000})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFailAgent(t *testing.T) {
	_, err := failAgent(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, "forced failure", err.Error())

	_, err = failAgent(context.Background(), map[string]any{"message": "boom"})
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestSumAgent(t *testing.T) {
	out, err := sumAgent(context.Background(), map[string]any{
		"a": 1, "b": 2.5, "c": int64(3), "label": "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sum": 6.5}, out)

	out, err = sumAgent(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"sum": 0.0}, out)
}

func TestDoubleAgent(t *testing.T) {
	out, err := doubleAgent(context.Background(), map[string]any{"value": 5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"value": 10}, out)

	out, err = doubleAgent(context.Background(), map[string]any{"value": 2.5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"value": 5.0}, out)

	_, err = doubleAgent(context.Background(), map[string]any{"value": "five"})
	assert.Error(t, err)

	_, err = doubleAgent(context.Background(), nil)
	assert.Error(t, err)
}

func TestUpperAgent(t *testing.T) {
	out, err := upperAgent(context.Background(), map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": "HELLO"}, out)

	_, err = upperAgent(context.Background(), map[string]any{"text": 42})
	assert.Error(t, err)
}

func TestTemplateAgent(t *testing.T) {
	out, err := templateAgent(context.Background(), map[string]any{
		"template": "{greeting}, {name}! value={value}",
		"greeting": "hello",
		"name":     "world",
		"value":    42,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": "hello, world! value=42"}, out)

	// 未提供的占位符保持原样
	out, err = templateAgent(context.Background(), map[string]any{
		"template": "{missing} stays",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": "{missing} stays"}, out)

	_, err = templateAgent(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestNowAgent(t *testing.T) {
	out, err := nowAgent(context.Background(), nil)
	require.NoError(t, err)

	now, ok := out["now"].(string)
	require.True(t, ok)
	parsed, perr := time.Parse(time.RFC3339, now)
	require.NoError(t, perr)
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)

	_, ok = out["unix"].(int64)
	assert.True(t, ok)
}
