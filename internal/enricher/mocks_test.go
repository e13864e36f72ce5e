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

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/database"
	"github.com/stretchr/testify/mock"
)

// MockDBAdapter is a testify mock of database.DBAdapter.
type MockDBAdapter struct {
	mock.Mock
	cfg config.DatabaseConfig
}

var _ database.DBAdapter = (*MockDBAdapter)(nil)

func (m *MockDBAdapter) ListTables(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	tables, _ := args.Get(0).([]string)
	return tables, args.Error(1)
}

func (m *MockDBAdapter) ListColumns(ctx context.Context, tableName string) ([]database.ColumnInfo, error) {
	args := m.Called(ctx, tableName)
	columns, _ := args.Get(0).([]database.ColumnInfo)
	return columns, args.Error(1)
}

func (m *MockDBAdapter) SampleTable(ctx context.Context, tableName string, limit int) (*database.SampleFrame, error) {
	args := m.Called(ctx, tableName, limit)
	frame, _ := args.Get(0).(*database.SampleFrame)
	return frame, args.Error(1)
}

func (m *MockDBAdapter) GetConfig() config.DatabaseConfig {
	return m.cfg
}

// MockLLMClient is a testify mock of genai.Client.
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Name() string  { return "Ollama" }
func (m *MockLLMClient) Model() string { return "test-model" }
func (m *MockLLMClient) Close() error  { return nil }

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
