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
	"context"
	"fmt"
	"io"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/database"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/utils"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var listTablesCmd = &cobra.Command{
	Use:     "list-tables",
	Short:   "List the tables a dictionary run would document",
	Long:    `Connects to the database and prints the user tables of the schema with their column counts, after system tables and excluded prefixes are filtered out.`,
	Example: `./db_data_dictionary list-tables --dialect mysql --host localhost --username user --database mydb`,
	RunE:    runListTables,
}

func runListTables(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	out := cmd.OutOrStdout()
	if err := collectCredentials(utils.NewPrompter(cmd.InOrStdin(), out), out, &cfg.Database); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	tableFilters, err := utils.ParseTablesFlag(cfg.Dictionary.Tables)
	if err != nil {
		return fmt.Errorf("invalid --tables: %w", err)
	}

	ctx := cmd.Context()
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDatabase(db, logger)

	tables, err := db.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	return printTables(ctx, out, db, tables, tableFilters, logger)
}

// columnLister is the part of *database.DB that printTables needs.
type columnLister interface {
	ListColumns(ctx context.Context, tableName string) ([]database.ColumnInfo, error)
	Schema() string
}

// printTables renders tables that pass filters with their column counts. A
// table whose columns cannot be listed is shown with "?".
func printTables(ctx context.Context, out io.Writer, db columnLister, tables []string, filters map[string][]string, logger *zap.Logger) error {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Table", "Columns"})
	shown := 0
	for _, name := range tables {
		if len(filters) > 0 {
			if _, ok := filters[name]; !ok {
				continue
			}
		}
		columns := "?"
		if cols, err := db.ListColumns(ctx, name); err != nil {
			logger.Warn("Failed to list columns", zap.String("table", name), zap.Error(err))
		} else {
			columns = fmt.Sprint(len(cols))
		}
		shown++
		t.AppendRow(table.Row{shown, name, columns})
	}
	if shown == 0 {
		fmt.Fprintln(out, "No tables found.")
		return nil
	}
	t.Render()
	fmt.Fprintf(out, "(%d tables in schema %s)\n", shown, db.Schema())
	return nil
}
