/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package enricher

import (
	"context"
	"math"
	"time"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/genai"
	"go.uber.org/zap"
)

// RetryOptions configures the retry behavior
type RetryOptions struct {
	MaxAttempts       int           // Maximum number of attempts, including the first
	InitialBackoff    time.Duration // Initial backoff duration
	MaxBackoff        time.Duration // Maximum backoff duration
	BackoffMultiplier float64       // Multiplier for exponential backoff
}

// DefaultRetryOptions makes a single attempt. Raising MaxAttempts enables
// exponential backoff between attempts.
var DefaultRetryOptions = RetryOptions{
	MaxAttempts:       1,
	InitialBackoff:    500 * time.Millisecond,
	MaxBackoff:        8 * time.Second,
	BackoffMultiplier: 2.0,
}

// backoff returns the wait before retrying after the given zero-based attempt.
func (o RetryOptions) backoff(attempt int) time.Duration {
	d := time.Duration(float64(o.InitialBackoff) * math.Pow(o.BackoffMultiplier, float64(attempt)))
	if o.MaxBackoff > 0 && d > o.MaxBackoff {
		d = o.MaxBackoff
	}
	return d
}

// withRetry executes op until it succeeds, fails with an error that
// genai.IsRetryable rejects, or runs out of attempts.
func withRetry[T any](ctx context.Context, opts RetryOptions, logger *zap.Logger, op func(context.Context) (T, error)) (T, int, error) {
	var lastErr error
	var result T

	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempt := 0
	for attempt < maxAttempts {
		if ctx.Err() != nil {
			if lastErr == nil {
				lastErr = &ErrCancelled{Msg: "operation cancelled by context", Err: ctx.Err()}
			}
			return result, attempt, lastErr
		}

		result, lastErr = op(ctx)
		attempt++
		if lastErr == nil {
			return result, attempt, nil
		}
		if attempt == maxAttempts || !genai.IsRetryable(lastErr) {
			break
		}

		wait := opts.backoff(attempt - 1)
		logger.Warn("Operation failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(lastErr))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, attempt, &ErrCancelled{Msg: "operation cancelled during backoff", Err: ctx.Err()}
		case <-timer.C:
		}
	}

	return result, attempt, lastErr
}
