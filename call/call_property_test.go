package call

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_RetryAttemptCount(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("an always-failing target is invoked exactly maxRetries+1 times", prop.ForAll(
		func(maxRetries int) bool {
			w, err := New(maxRetries, 0)
			if err != nil {
				t.Logf("New failed: %v", err)
				return false
			}

			callCount := 0
			_, err = w.Call(context.Background(), func(ctx context.Context, in map[string]any) (map[string]any, error) {
				callCount++
				return nil, errors.New("always fails")
			}, nil)

			if err == nil {
				t.Logf("expected an error after exhaustion")
				return false
			}
			return callCount == maxRetries+1
		},
		gen.IntRange(0, 6),
	))

	properties.Property("a target succeeding on attempt k is invoked exactly k times", prop.ForAll(
		func(maxRetries, succeedOn int) bool {
			if succeedOn > maxRetries+1 {
				return true // Skip: success would come after exhaustion
			}

			w, err := New(maxRetries, 0)
			if err != nil {
				t.Logf("New failed: %v", err)
				return false
			}

			callCount := 0
			_, err = w.Call(context.Background(), func(ctx context.Context, in map[string]any) (map[string]any, error) {
				callCount++
				if callCount < succeedOn {
					return nil, errors.New("not yet")
				}
				return map[string]any{}, nil
			}, nil)

			return err == nil && callCount == succeedOn
		},
		gen.IntRange(0, 6),
		gen.IntRange(1, 7),
	))

	properties.TestingRun(t)
}

func TestProperty_FallbackRescue(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("an exhausted call with a fallback returns the fallback result", prop.ForAll(
		func(maxRetries, marker int) bool {
			w, err := New(maxRetries, 0)
			if err != nil {
				t.Logf("New failed: %v", err)
				return false
			}

			targetCalls := 0
			outputs, err := w.CallWithFallback(context.Background(),
				func(ctx context.Context, in map[string]any) (map[string]any, error) {
					targetCalls++
					return nil, errors.New("down")
				},
				func(ctx context.Context, in map[string]any) (map[string]any, error) {
					return map[string]any{"marker": marker}, nil
				},
				nil,
			)

			if err != nil {
				t.Logf("fallback result should rescue the call: %v", err)
				return false
			}
			return outputs["marker"] == marker && targetCalls == maxRetries+1
		},
		gen.IntRange(0, 5),
		gen.Int(),
	))

	properties.TestingRun(t)
}
