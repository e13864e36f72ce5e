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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of a failed response is kept in a StatusError.
const maxErrorBody = 512

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response *string `json:"response"`
}

// ollamaClient calls a local Ollama server's non-streaming generate endpoint.
type ollamaClient struct {
	endpoint string
	model    string
	http     *http.Client
	logger   *zap.Logger
}

var _ Client = (*ollamaClient)(nil)

// NewOllamaClient creates a client for the Ollama /api/generate endpoint.
func NewOllamaClient(cfg config.LLMConfig, logger *zap.Logger) (Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = config.DefaultOllamaEndpoint
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = config.DefaultOllamaModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ollamaClient{
		endpoint: endpoint,
		model:    model,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}, nil
}

func (c *ollamaClient) Name() string  { return "Ollama" }
func (c *ollamaClient) Model() string { return c.model }
func (c *ollamaClient) Close() error  { return nil }

func (c *ollamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshal generate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generate response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return "", &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if parsed.Response == nil {
		return "", fmt.Errorf("generate response has no response field")
	}

	c.logger.Debug("generated text", zap.String("model", c.model), zap.Int("chars", len(*parsed.Response)))
	return strings.TrimSpace(*parsed.Response), nil
}
