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
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/utils"
)

const rule = 60

// collectCredentials prompts for the connection settings that are still
// missing after flags, environment and config file were applied.
func collectCredentials(p *utils.Prompter, out io.Writer, db *config.DatabaseConfig) error {
	type question struct {
		label  string
		target *string
		secret bool
	}

	var missing []question
	if db.DBName == "" {
		label := "Enter database name to analyze"
		if db.IsFileDialect() {
			label = "Enter database file path"
		}
		missing = append(missing, question{label: label, target: &db.DBName})
	}
	if !db.IsFileDialect() {
		if db.Host == "" && db.CloudSQLInstanceConnectionName == "" {
			missing = append([]question{{label: "Enter database host", target: &db.Host}}, missing...)
		}
		if db.User == "" {
			missing = append(missing, question{label: "Enter username", target: &db.User})
		}
		if db.Password == "" {
			missing = append(missing, question{label: "Enter password", target: &db.Password, secret: true})
		}
	}
	if len(missing) == 0 {
		return nil
	}

	fmt.Fprintf(out, "\n%s\nDatabase Connection Setup\n%s\n", strings.Repeat("=", rule), strings.Repeat("=", rule))
	for _, q := range missing {
		var (
			answer string
			err    error
		)
		if q.secret {
			answer, err = p.AskPassword(q.label)
		} else {
			answer, err = p.Ask(q.label)
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", strings.ToLower(strings.TrimPrefix(q.label, "Enter ")), err)
		}
		*q.target = answer
	}
	return nil
}

// printConnectionSummary shows the settings a run will use before anything
// touches the network.
func printConnectionSummary(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "\n%s\nConnection Details:\n", strings.Repeat("-", rule))
	fmt.Fprintf(out, "  Dialect: %s\n", cfg.Database.Dialect)
	switch {
	case cfg.Database.IsFileDialect():
	case cfg.Database.CloudSQLInstanceConnectionName != "":
		fmt.Fprintf(out, "  Instance: %s\n", cfg.Database.CloudSQLInstanceConnectionName)
	default:
		fmt.Fprintf(out, "  Host: %s:%d\n", cfg.Database.Host, cfg.Database.Port)
	}
	fmt.Fprintf(out, "  Database: %s\n", cfg.Database.DBName)
	if cfg.Database.Schema != "" {
		fmt.Fprintf(out, "  Schema: %s\n", cfg.Database.Schema)
	}
	if !cfg.Database.IsFileDialect() {
		fmt.Fprintf(out, "  User: %s\n", cfg.Database.User)
	}
	fmt.Fprintf(out, "  Sample Rows per Table: %d\n", cfg.Dictionary.SampleSize)
	fmt.Fprintf(out, "  Model: %s (%s)\n", cfg.LLM.Model, cfg.LLM.Provider)
	fmt.Fprintf(out, "%s\n", strings.Repeat("-", rule))
}
