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
package utils

import (
	"fmt"
	"strings"
)

// ParseTablesFlag parses a table filter such as "orders[id,total],users" into a
// map from table name to the columns to keep. A nil column list keeps every
// column of that table. A bare table name wins over column lists given for the
// same table anywhere in the filter.
func ParseTablesFlag(tablesFlag string) (map[string][]string, error) {
	tableColumns := make(map[string][]string)
	wholeTables := make(map[string]bool)
	if strings.TrimSpace(tablesFlag) == "" {
		return tableColumns, nil
	}

	for _, part := range SplitOutsideBrackets(tablesFlag) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		bracketStart := strings.Index(part, "[")
		if bracketStart == -1 {
			if strings.Contains(part, "]") {
				return nil, fmt.Errorf("unexpected closing bracket in: %s", part)
			}
			tableColumns[part] = nil
			wholeTables[part] = true
			continue
		}

		bracketEnd := strings.LastIndex(part, "]")
		if bracketEnd == -1 || bracketEnd < bracketStart {
			return nil, fmt.Errorf("missing closing bracket in: %s", part)
		}
		if rest := strings.TrimSpace(part[bracketEnd+1:]); rest != "" {
			return nil, fmt.Errorf("unexpected text after columns in: %s", part)
		}

		tableName := strings.TrimSpace(part[:bracketStart])
		if tableName == "" {
			return nil, fmt.Errorf("missing table name in: %s", part)
		}

		var columns []string
		for _, col := range strings.Split(part[bracketStart+1:bracketEnd], ",") {
			if col = strings.TrimSpace(col); col != "" {
				columns = append(columns, col)
			}
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("empty column list for table %s", tableName)
		}
		if !wholeTables[tableName] {
			tableColumns[tableName] = append(tableColumns[tableName], columns...)
		}
	}

	return tableColumns, nil
}

// SplitOutsideBrackets splits s on commas that are not inside square brackets.
func SplitOutsideBrackets(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, char := range s {
		switch char {
		case '[':
			depth++
			current.WriteRune(char)
		case ']':
			if depth > 0 {
				depth--
			}
			current.WriteRune(char)
		case ',':
			if depth > 0 {
				current.WriteRune(char)
			} else {
				result = append(result, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}
