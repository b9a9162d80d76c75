package main

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/BaSui01/fluxgraph/agent"
)

// =============================================================================
// 🤖 内置演示 Agent
// =============================================================================
// run/serve 子命令自带一组小型 Agent，便于直接执行示例工作流，
// 无需额外编写代码。真实项目通过 agent.Registry 注册自己的实现。
// =============================================================================

// RegisterBuiltins 向注册表注册所有内置 Agent
func RegisterBuiltins(reg *agent.Registry) error {
	builtins := map[string]agent.Func{
		"core.echo":     echoAgent,
		"core.sleep":    sleepAgent,
		"core.fail":     failAgent,
		"math.sum":      sumAgent,
		"math.double":   doubleAgent,
		"text.upper":    upperAgent,
		"text.template": templateAgent,
		"time.now":      nowAgent,
	}

	for name, fn := range builtins {
		if err := reg.RegisterFunc(name, fn); err != nil {
			return fmt.Errorf("register builtin %s: %w", name, err)
		}
	}
	return nil
}

// echoAgent 原样返回所有输入
func echoAgent(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	if inputs == nil {
		return map[string]any{}, nil
	}
	return maps.Clone(inputs), nil
}

// sleepAgent 睡眠 ms 毫秒后返回，可被 ctx 取消
func sleepAgent(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	ms, ok := numberInput(inputs, "ms")
	if !ok {
		return nil, fmt.Errorf("core.sleep requires numeric input \"ms\"")
	}

	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return map[string]any{"slept_ms": ms}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// failAgent 总是失败，message 输入可自定义错误文本
func failAgent(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	message := "forced failure"
	if m, ok := inputs["message"].(string); ok && m != "" {
		message = m
	}
	return nil, fmt.Errorf("%s", message)
}

// sumAgent 求和所有数值输入
func sumAgent(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	var total float64
	for _, v := range inputs {
		if n, ok := asNumber(v); ok {
			total += n
		}
	}
	return map[string]any{"sum": total}, nil
}

// doubleAgent 把 value 输入翻倍，保持整数类型不变
func doubleAgent(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	switch v := inputs["value"].(type) {
	case int:
		return map[string]any{"value": v * 2}, nil
	case int64:
		return map[string]any{"value": v * 2}, nil
	case float64:
		return map[string]any{"value": v * 2}, nil
	default:
		return nil, fmt.Errorf("math.double requires numeric input \"value\", got %T", inputs["value"])
	}
}

// upperAgent 把 text 输入转为大写
func upperAgent(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	text, ok := inputs["text"].(string)
	if !ok {
		return nil, fmt.Errorf("text.upper requires string input \"text\"")
	}
	return map[string]any{"text": strings.ToUpper(text)}, nil
}

// templateAgent 渲染 template 输入，{key} 占位符替换为同名输入值
func templateAgent(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	tmpl, ok := inputs["template"].(string)
	if !ok {
		return nil, fmt.Errorf("text.template requires string input \"template\"")
	}

	rendered := tmpl
	for key, value := range inputs {
		if key == "template" {
			continue
		}
		rendered = strings.ReplaceAll(rendered, "{"+key+"}", fmt.Sprint(value))
	}
	return map[string]any{"text": rendered}, nil
}

// nowAgent 返回当前 UTC 时间
func nowAgent(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	now := time.Now().UTC()
	return map[string]any{
		"now":  now.Format(time.RFC3339),
		"unix": now.Unix(),
	}, nil
}

// =============================================================================
// 🔧 输入辅助函数
// =============================================================================

func numberInput(inputs map[string]any, key string) (float64, bool) {
	return asNumber(inputs[key])
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
