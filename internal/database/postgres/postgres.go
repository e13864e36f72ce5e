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
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net"
	"strings"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/database"
)

const applicationName = "db_data_dictionary"

// postgresHandler struct implements database.DialectHandler for PostgreSQL.
type postgresHandler struct{}

var _ database.DialectHandler = (*postgresHandler)(nil)

// CreateCloudSQLPool dials the instance through the Cloud SQL connector and
// talks to it with pgx. Sessions are opened read only.
func (h postgresHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, io.Closer, error) {
	instance := cfg.CloudSQLInstanceConnectionName
	if cfg.User == "" || cfg.DBName == "" || instance == "" {
		return nil, nil, fmt.Errorf("cloud sql postgres requires user, database and instance connection name")
	}

	pgxConfig, err := pgx.ParseConfig("")
	if err != nil {
		return nil, nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pgxConfig.User = cfg.User
	pgxConfig.Password = cfg.Password
	pgxConfig.Database = cfg.DBName
	pgxConfig.RuntimeParams["application_name"] = applicationName
	pgxConfig.RuntimeParams["default_transaction_read_only"] = "on"

	var opts []cloudsqlconn.Option
	if cfg.UsePrivateIP {
		opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
	}
	dialer, err := cloudsqlconn.NewDialer(context.Background(), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create cloud sql dialer: %w", err)
	}
	pgxConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, instance)
	}

	connName := stdlib.RegisterConnConfig(pgxConfig)
	release := database.CloserFunc(func() error {
		stdlib.UnregisterConnConfig(connName)
		return dialer.Close()
	})
	dbPool, err := sql.Open("pgx", connName)
	if err != nil {
		release.Close()
		return nil, nil, fmt.Errorf("open cloud sql postgres pool: %w", err)
	}
	return dbPool, release, nil
}

// CreateStandardPool opens a lib/pq pool from a keyword/value connection string.
func (h postgresHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	dbPool, err := sql.Open("postgres", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	return dbPool, nil
}

func connString(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		"host=" + quoteConnValue(cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		"user=" + quoteConnValue(cfg.User),
		"password=" + quoteConnValue(cfg.Password),
		"dbname=" + quoteConnValue(cfg.DBName),
		"sslmode=" + quoteConnValue(sslMode),
		"application_name=" + applicationName,
	}
	return strings.Join(parts, " ")
}

// quoteConnValue quotes a keyword/value connection string value so passwords
// with spaces or quotes survive.
func quoteConnValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// QuoteIdentifier for PostgreSQL
func (h postgresHandler) QuoteIdentifier(name string) string {
	// Replace any existing quotes with double quotes to escape them
	name = strings.ReplaceAll(name, `"`, `""`)
	return fmt.Sprintf(`"%s"`, name)
}

func (h postgresHandler) DefaultSchema(cfg config.DatabaseConfig) string {
	return "public"
}

func (h postgresHandler) SystemTablePrefixes() []string {
	return []string{"pg_", "sql_"}
}

// ListTables for PostgreSQL
func (h postgresHandler) ListTables(ctx context.Context, db *database.DB) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name;`

	rows, err := db.Pool.QueryContext(ctx, query, db.Schema())
	if err != nil {
		return nil, fmt.Errorf("error querying tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("error scanning table name: %w", err)
		}
		tables = append(tables, tableName)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}

	return tables, nil
}

// ListColumns for PostgreSQL
func (h postgresHandler) ListColumns(ctx context.Context, db *database.DB, tableName string) ([]database.ColumnInfo, error) {
	query := `
		SELECT column_name, data_type, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1
		AND table_name = $2
		ORDER BY ordinal_position;`

	rows, err := db.Pool.QueryContext(ctx, query, db.Schema(), tableName)
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []database.ColumnInfo
	for rows.Next() {
		var colInfo database.ColumnInfo
		if err := rows.Scan(&colInfo.Name, &colInfo.DataType, &colInfo.Ordinal); err != nil {
			return nil, fmt.Errorf("error scanning column name and data type: %w", err)
		}
		columns = append(columns, colInfo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}

	return columns, nil
}

// SampleRows for PostgreSQL
func (h postgresHandler) SampleRows(ctx context.Context, db *database.DB, tableName string, limit int) (*database.SampleFrame, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT $1", db.QualifiedName(tableName))
	if db.RandomSample {
		query = fmt.Sprintf("SELECT * FROM %s ORDER BY random() LIMIT $1", db.QualifiedName(tableName))
	}

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
	database.RegisterDialectHandler("postgres", postgresHandler{})
	database.RegisterDialectHandler("cloudsqlpostgres", postgresHandler{})
}
