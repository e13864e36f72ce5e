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
package enricher_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/database"
	_ "github.com/GoogleCloudPlatform/db-data-dictionary/internal/database/sqlite"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/enricher"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestPipelineAgainstSQLite runs the whole dictionary over a real SQLite file
// with a fake Ollama server that fails for one column.
func TestPipelineAgainstSQLite(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "shop.db")
	seed, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = seed.ExecContext(ctx, `
		CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT, nickname TEXT);
		CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER, total REAL);
		CREATE TABLE SYSCONFIG (k TEXT);
		INSERT INTO users VALUES (1, 'a@example.com', NULL), (2, 'b@example.com', NULL);
		INSERT INTO orders VALUES (10, 1, 19.99);
	`)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	db, err := database.New(ctx, config.DatabaseConfig{Dialect: "sqlite", DBName: path})
	require.NoError(t, err)
	defer db.Close()
	db.ExcludePrefixes = []string{"SYS", "DBC"}

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if strings.Contains(req.Prompt, "Column: total") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		column := between(req.Prompt, "Column: ", "\n")
		_ = json.NewEncoder(w).Encode(map[string]any{"response": fmt.Sprintf("Describes %s.", column)})
	}))
	defer srv.Close()

	client, err := genai.NewOllamaClient(config.LLMConfig{Endpoint: srv.URL, Model: "gemma3:4b"}, zap.NewNop())
	require.NoError(t, err)

	metrics := enricher.NewMetrics()
	describer := enricher.NewDescriber(client, enricher.DefaultRetryOptions, zap.NewNop(), metrics)
	svc := enricher.NewService(db, describer, enricher.Config{SampleSize: 5}, zap.NewNop(), metrics)

	result, summary, err := svc.Generate(ctx)
	require.NoError(t, err)

	var rows []string
	for _, r := range result {
		rows = append(rows, strings.Join([]string{r.TableName, r.ColumnName, r.DataType, r.Description, r.SampleValues}, "|"))
	}
	assert.Equal(t, []string{
		"orders|id|INTEGER|Describes id.|10",
		"orders|user_id|INTEGER|Describes user_id.|1",
		"orders|total|REAL|Error: 500|19.99",
		"users|id|INTEGER|Describes id.|" + samplesOf(result, "users", "id"),
		"users|email|TEXT|Describes email.|" + samplesOf(result, "users", "email"),
		"users|nickname|TEXT|Describes nickname.|N/A",
	}, rows)
	for _, r := range result {
		assert.Equal(t, "shop.db", r.DatabaseName, "file databases are named by their base name")
	}
	// Rows are sampled in random order.
	assert.ElementsMatch(t, []string{"1", "2"}, strings.Split(samplesOf(result, "users", "id"), ", "))
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, strings.Split(samplesOf(result, "users", "email"), ", "))
	assert.Equal(t, 6, summary.Records)
	assert.Equal(t, 1, summary.Degraded)
	assert.Equal(t, int32(6), calls.Load(), "no retries by default")
}

func samplesOf(result enricher.DictionaryResult, table, column string) string {
	for _, r := range result {
		if r.TableName == table && r.ColumnName == column {
			return r.SampleValues
		}
	}
	return ""
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	s = s[i+len(start):]
	if j := strings.Index(s, end); j >= 0 {
		return s[:j]
	}
	return s
}
