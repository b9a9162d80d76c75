package call

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/fluxgraph/types"
)

// Func 是包装器可调用的目标签名：一次 agent 或 tool 调用。
// 输入输出均为按名称索引的映射。
type Func func(ctx context.Context, inputs map[string]any) (map[string]any, error)

// Wrapper 提供带重试与回退的健壮调用能力
// 遵循 KISS 原则：固定间隔退避，重试耗尽后回退
//
// Wrapper 不在调用之间共享任何状态，同一实例可被多个 goroutine
// 并发地用于不同目标。
type Wrapper struct {
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
	onRetry    func(attempt int, err error)
}

// Option 配置 Wrapper。
type Option func(*Wrapper)

// WithLogger 设置日志器（默认 zap.NewNop）。
func WithLogger(logger *zap.Logger) Option {
	return func(w *Wrapper) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOnRetry 设置每次重试前触发的回调。
// attempt 为已失败的尝试次数（从 1 开始），err 为该次尝试的错误。
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(w *Wrapper) {
		w.onRetry = fn
	}
}

// New 创建调用包装器并立即校验参数。
// maxRetries 必须非负（0 表示不重试，只调用一次）；
// backoff 为每次重试前的固定等待时间，必须非负。
// 参数非法时返回 INVALID_CONFIGURATION，且不会发起任何调用。
func New(maxRetries int, backoff time.Duration, opts ...Option) (*Wrapper, error) {
	if maxRetries < 0 {
		return nil, types.Errorf(types.ErrInvalidConfiguration,
			"max retries must be non-negative, got %d", maxRetries)
	}
	if backoff < 0 {
		return nil, types.Errorf(types.ErrInvalidConfiguration,
			"retry backoff must be non-negative, got %s", backoff)
	}

	w := &Wrapper{
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// MaxRetries 返回配置的最大重试次数。
func (w *Wrapper) MaxRetries() int { return w.maxRetries }

// Backoff 返回配置的重试间隔。
func (w *Wrapper) Backoff() time.Duration { return w.backoff }

// Call 调用 target，失败时按策略重试。
// 等价于 CallWithFallback(ctx, target, nil, inputs)。
func (w *Wrapper) Call(ctx context.Context, target Func, inputs map[string]any) (map[string]any, error) {
	return w.CallWithFallback(ctx, target, nil, inputs)
}

// CallWithFallback 调用 target，失败时重试；重试耗尽后调用 fallback。
//
// 核心语义：
//   - 共计 maxRetries+1 次 target 调用机会
//   - 每次失败后等待固定 backoff（监听 context 取消）
//   - 耗尽后若 fallback 非 nil，用原始 inputs 调用 fallback 并返回其结果
//   - 无 fallback（或 fallback 也失败）时返回 CALL_EXHAUSTED，
//     其 Cause 为最后一次底层错误
func (w *Wrapper) CallWithFallback(ctx context.Context, target, fallback Func, inputs map[string]any) (map[string]any, error) {
	if target == nil {
		return nil, types.NewError(types.ErrInvalidConfiguration, "call target must not be nil")
	}

	var lastErr error

	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		// 第一次执行不延迟
		if attempt > 0 {
			w.logger.Debug("重试中",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", w.maxRetries),
				zap.Duration("backoff", w.backoff),
				zap.Error(lastErr),
			)

			if w.onRetry != nil {
				w.onRetry(attempt, lastErr)
			}

			// 等待固定间隔，同时监听 context 取消
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("call canceled during backoff: %w", ctx.Err())
			case <-time.After(w.backoff):
			}
		}

		outputs, err := target(ctx, inputs)
		if err == nil {
			if attempt > 0 {
				w.logger.Info("重试成功", zap.Int("attempt", attempt))
			}
			return outputs, nil
		}
		lastErr = err
	}

	attempts := w.maxRetries + 1
	w.logger.Warn("重试次数耗尽",
		zap.Int("attempts", attempts),
		zap.Error(lastErr),
	)

	// 重试耗尽，尝试回退
	if fallback != nil {
		w.logger.Info("执行回退")
		outputs, err := fallback(ctx, inputs)
		if err == nil {
			return outputs, nil
		}
		w.logger.Warn("回退失败", zap.Error(err))
		return nil, types.Errorf(types.ErrCallExhausted,
			"target failed after %d attempts and fallback failed: %v", attempts, err).
			WithCause(lastErr)
	}

	return nil, types.Errorf(types.ErrCallExhausted,
		"target failed after %d attempts", attempts).
		WithCause(lastErr)
}

// Invoke 是一次性便捷入口：校验参数、调用 target、必要时重试与回退。
// 适用于不复用 Wrapper 的场景。
func Invoke(ctx context.Context, target Func, inputs map[string]any, maxRetries int, backoff time.Duration, fallback Func) (map[string]any, error) {
	w, err := New(maxRetries, backoff)
	if err != nil {
		return nil, err
	}
	return w.CallWithFallback(ctx, target, fallback, inputs)
}
