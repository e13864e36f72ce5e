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
package genai

import (
	"context"
	"fmt"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"go.uber.org/zap"
)

// Client defines the interface for a text generation service used to
// describe columns.
type Client interface {
	// Name is the human readable provider name used in degraded descriptions.
	Name() string
	Model() string
	// Generate sends prompt and returns the model's text answer.
	Generate(ctx context.Context, prompt string) (string, error)
	// Close cleans up any resources used by the client.
	Close() error
}

// Validator is implemented by clients that can check their credentials
// before any work starts.
type Validator interface {
	Validate(ctx context.Context) error
}

// NewClient creates the client selected by cfg.Provider.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("genai")

	switch cfg.Provider {
	case config.ProviderOllama, "":
		return NewOllamaClient(cfg, logger)
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
