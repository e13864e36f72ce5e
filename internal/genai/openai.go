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
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// openAIClient talks to any OpenAI-compatible chat completion endpoint.
type openAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

var (
	_ Client    = (*openAIClient)(nil)
	_ Validator = (*openAIClient)(nil)
)

// NewOpenAIClient creates a chat completion client for cfg.Endpoint.
func NewOpenAIClient(cfg config.LLMConfig, logger *zap.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cannot create OpenAI client: API key is missing")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultOpenAIEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultOpenAIModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(endpoint, "/")
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &openAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger,
	}, nil
}

func (c *openAIClient) Name() string  { return "OpenAI" }
func (c *openAIClient) Model() string { return c.model }
func (c *openAIClient) Close() error  { return nil }

// Validate checks the API key by listing models.
func (c *openAIClient) Validate(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("failed to verify OpenAI API key by listing models: %w", toStatusError(err))
	}
	return nil
}

func (c *openAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   64,
	})
	if err != nil {
		return "", toStatusError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	c.logger.Debug("generated text",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// toStatusError maps go-openai errors that carry an HTTP status onto
// StatusError so they degrade and retry like the other providers.
func toStatusError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &StatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &StatusError{StatusCode: reqErr.HTTPStatusCode, Body: body}
	}
	return err
}
