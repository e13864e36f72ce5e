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
	"errors"
	"fmt"
	"time"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/genai"
	"go.uber.org/zap"
)

// Describer turns column information into a one-line description. It never
// fails: every error is folded into the returned text.
type Describer struct {
	client  genai.Client
	retry   RetryOptions
	logger  *zap.Logger
	metrics *Metrics
}

// NewDescriber creates a Describer around client. logger and metrics may be nil.
func NewDescriber(client genai.Client, retry RetryOptions, logger *zap.Logger, metrics *Metrics) *Describer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Describer{
		client:  client,
		retry:   retry,
		logger:  logger,
		metrics: metrics,
	}
}

// Describe asks the model for a short description of the column in p.
func (d *Describer) Describe(ctx context.Context, p genai.ColumnPrompt) string {
	description, _ := d.describe(ctx, p)
	return description
}

// describe also reports whether the description is an error marker.
func (d *Describer) describe(ctx context.Context, p genai.ColumnPrompt) (string, bool) {
	prompt := genai.BuildColumnPrompt(p)

	start := time.Now()
	text, attempts, err := withRetry(ctx, d.retry, d.logger, func(ctx context.Context) (string, error) {
		return d.client.Generate(ctx, prompt)
	})
	d.metrics.observeGenerate(time.Since(start).Seconds(), attempts)
	if err == nil {
		return text, false
	}

	description, reason := d.degrade(err)
	d.metrics.descriptionDegraded(reason)
	d.logger.Warn("Description generation failed",
		zap.String("table", p.Table),
		zap.String("column", p.Column),
		zap.Int("attempts", attempts),
		zap.Error(err))
	return description, true
}

// degrade converts a generation failure into the text stored in the dictionary.
func (d *Describer) degrade(err error) (string, string) {
	var statusErr *genai.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("Error: %d", statusErr.StatusCode), "status"
	}
	return fmt.Sprintf("Error calling %s: %v", d.client.Name(), err), "error"
}
