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
	"testing"
	"time"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/database"
	"github.com/stretchr/testify/assert"
)

func column(values ...any) *database.SampleFrame {
	frame := &database.SampleFrame{Columns: []string{"id", "c"}}
	for i, v := range values {
		frame.Rows = append(frame.Rows, []any{int64(i), v})
	}
	return frame
}

func TestSummarizeValues(t *testing.T) {
	tests := []struct {
		name  string
		frame *database.SampleFrame
		col   string
		want  string
	}{
		{"first three distinct skipping nulls", column(nil, "a", "a", "b", "c", "d"), "c", "a, b, c"},
		{"fewer than three", column("x", nil, "x"), "c", "x"},
		{"all null", column(nil, nil), "c", NotAvailable},
		{"no rows", column(), "c", NotAvailable},
		{"absent column", column("a"), "missing", NotAvailable},
		{"case sensitive column match", column("a"), "C", NotAvailable},
		{"nil frame", nil, "c", NotAvailable},
		{"mixed types", column(int64(5), 2.5, true, "5"), "c", "5, 2.5, true"},
		{"distinct on rendered text", column([]byte("v"), "v", "w"), "c", "v, w"},
		{"dates", column(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)), "c", "2024-01-02"},
		{"empty string is a value", column("", "a"), "c", ", a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummarizeValues(tt.frame, tt.col))
		})
	}
}

func TestSummarizeValuesShortRow(t *testing.T) {
	frame := &database.SampleFrame{
		Columns: []string{"a", "b"},
		Rows:    [][]any{{"x"}, {"y", "z"}},
	}
	assert.Equal(t, "z", SummarizeValues(frame, "b"))
}
