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
	"reflect"
	"strings"
	"testing"
)

func TestFilterSystemTables(t *testing.T) {
	tests := []struct {
		name     string
		tables   []string
		prefixes []string
		want     []string
	}{
		{"No prefixes", []string{"a", "b"}, nil, []string{"a", "b"}},
		{"Case insensitive", []string{"SYSUSERS", "sysdiag", "orders"}, []string{"SYS"}, []string{"orders"}},
		{"Order preserved", []string{"zeta", "DBC_x", "alpha", "mid"}, []string{"dbc"}, []string{"zeta", "alpha", "mid"}},
		{"Blank prefix ignored", []string{"a"}, []string{"  "}, []string{"a"}},
		{"Everything filtered", []string{"pg_a"}, []string{"pg_"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterSystemTables(tt.tables, tt.prefixes)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterSystemTables() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"Plain", "orders", false},
		{"Spaces and quotes", `my "odd" table`, false},
		{"Empty", "", true},
		{"Whitespace only", "   ", true},
		{"Too long", strings.Repeat("x", MaxIdentifierLength+1), true},
		{"Max length", strings.Repeat("x", MaxIdentifierLength), false},
		{"NUL byte", "a\x00b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
