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
	"strings"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/database"
)

const (
	// NotAvailable stands in for sample values when a column has none.
	NotAvailable = "N/A"

	maxRepresentativeValues = 3
)

// SummarizeValues returns up to three distinct non-null values of column,
// in the order they first appear in frame, joined with ", ".
func SummarizeValues(frame *database.SampleFrame, column string) string {
	idx, ok := frame.ColumnIndex(column)
	if !ok {
		return NotAvailable
	}

	seen := make(map[string]struct{}, maxRepresentativeValues)
	values := make([]string, 0, maxRepresentativeValues)
	for _, row := range frame.Rows {
		if idx >= len(row) || row[idx] == nil {
			continue
		}
		v := database.FormatValue(row[idx])
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
		if len(values) == maxRepresentativeValues {
			break
		}
	}

	if len(values) == 0 {
		return NotAvailable
	}
	return strings.Join(values, ", ")
}
