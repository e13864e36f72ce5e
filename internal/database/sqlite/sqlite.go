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
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/database"
	_ "modernc.org/sqlite"
)

// sqliteHandler implements database.DialectHandler for local SQLite files.
// The database name is the path of the file.
type sqliteHandler struct{}

var _ database.DialectHandler = (*sqliteHandler)(nil)

func (h sqliteHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, io.Closer, error) {
	return nil, nil, fmt.Errorf("cloud sql is not available for dialect sqlite")
}

func (h sqliteHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DBName) == "" {
		return nil, fmt.Errorf("sqlite requires the database file path as --database")
	}
	dsn, err := readOnlyDSN(cfg.DBName)
	if err != nil {
		return nil, err
	}
	dbPool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open (sqlite): %w", err)
	}
	dbPool.SetMaxOpenConns(1)
	return dbPool, nil
}

// readOnlyDSN returns a file: URI that opens path read only. SQLite would
// otherwise create a missing file and report an empty schema.
func readOnlyDSN(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("sqlite database file %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("sqlite database file %s is a directory", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve sqlite path %s: %w", path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}
	return u.String(), nil
}

func (h sqliteHandler) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (h sqliteHandler) DefaultSchema(cfg config.DatabaseConfig) string {
	return "main"
}

func (h sqliteHandler) SystemTablePrefixes() []string {
	return []string{"sqlite_"}
}

func (h sqliteHandler) ListTables(ctx context.Context, db *database.DB) ([]string, error) {
	query := fmt.Sprintf("SELECT name FROM %s.sqlite_master WHERE type = 'table' ORDER BY name", h.QuoteIdentifier(db.Schema()))

	rows, err := db.Pool.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}
	return tables, nil
}

// ListColumns reads pragma_table_info. Columns declared without a type
// report an empty data type.
func (h sqliteHandler) ListColumns(ctx context.Context, db *database.DB, tableName string) ([]database.ColumnInfo, error) {
	query := "SELECT name, type, cid FROM pragma_table_info(?, ?) ORDER BY cid"

	rows, err := db.Pool.QueryContext(ctx, query, tableName, db.Schema())
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []database.ColumnInfo
	for rows.Next() {
		var (
			col database.ColumnInfo
			cid int
		)
		if err := rows.Scan(&col.Name, &col.DataType, &cid); err != nil {
			return nil, fmt.Errorf("error scanning column details: %w", err)
		}
		col.Ordinal = cid + 1
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}
	return columns, nil
}

func (h sqliteHandler) SampleRows(ctx context.Context, db *database.DB, tableName string, limit int) (*database.SampleFrame, error) {
	order := ""
	if db.RandomSample {
		order = " ORDER BY random()"
	}
	query := fmt.Sprintf("SELECT * FROM %s%s LIMIT ?", db.QualifiedName(tableName), order)

	rows, err := db.Pool.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error sampling table %s: %w", tableName, err)
	}
	defer rows.Close()

	frame, err := database.ScanSampleFrame(rows)
	if err != nil {
		return nil, fmt.Errorf("error reading sample of table %s: %w", tableName, err)
	}
	return frame, nil
}

func init() {
	database.RegisterDialectHandler("sqlite", sqliteHandler{})
}
