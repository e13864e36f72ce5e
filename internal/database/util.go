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
package database

import (
	"fmt"
	"strings"
)

// MaxIdentifierLength bounds table and schema names accepted for interpolation.
const MaxIdentifierLength = 128

// FilterSystemTables drops tables whose name starts with any of prefixes,
// compared case-insensitively. The order of the remaining tables is kept.
func FilterSystemTables(tables []string, prefixes []string) []string {
	if len(prefixes) == 0 {
		return tables
	}
	filtered := make([]string, 0, len(tables))
	for _, table := range tables {
		if hasPrefixFold(table, prefixes) {
			continue
		}
		filtered = append(filtered, table)
	}
	return filtered
}

func hasPrefixFold(name string, prefixes []string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range prefixes {
		prefix = strings.ToLower(strings.TrimSpace(prefix))
		if prefix != "" && strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// ValidateIdentifier rejects names that must never reach a quoted identifier.
func ValidateIdentifier(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("identifier %q exceeds %d bytes", name[:32]+"...", MaxIdentifierLength)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("identifier %q contains a NUL byte", name)
	}
	return nil
}
