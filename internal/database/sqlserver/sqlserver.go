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
package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/database"
	mssql "github.com/denisenkom/go-mssqldb"
)

// sqlServerHandler struct implements database.DialectHandler for SQL Server.
type sqlServerHandler struct{}

var _ database.DialectHandler = (*sqlServerHandler)(nil)

const applicationName = "db_data_dictionary"

// cloudSQLDialer routes every driver connection through the Cloud SQL connector.
type cloudSQLDialer struct {
	dialer   *cloudsqlconn.Dialer
	instance string
	opts     []cloudsqlconn.DialOption
}

// DialContext adheres to the mssql.Dialer interface.
func (c *cloudSQLDialer) DialContext(ctx context.Context, _, _ string) (net.Conn, error) {
	return c.dialer.Dial(ctx, c.instance, c.opts...)
}

// connectionURL builds a sqlserver:// URL for host. The session declares a
// read-only intent so availability groups may route it to a secondary.
func connectionURL(cfg config.DatabaseConfig, host string, extra url.Values) string {
	query := url.Values{
		"database":          {cfg.DBName},
		"app name":          {applicationName},
		"ApplicationIntent": {"ReadOnly"},
	}
	for k, v := range extra {
		query[k] = v
	}
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     host,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// CreateCloudSQLPool for SQL Server
func (h sqlServerHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, io.Closer, error) {
	instance := cfg.CloudSQLInstanceConnectionName
	if instance == "" {
		return nil, nil, fmt.Errorf("cloud sql sqlserver requires an instance connection name")
	}

	// Lazy refresh avoids background certificate refreshes for a short-lived CLI run.
	dialer, err := cloudsqlconn.NewDialer(context.Background(), cloudsqlconn.WithLazyRefresh())
	if err != nil {
		return nil, nil, fmt.Errorf("create cloud sql dialer: %w", err)
	}
	connector, err := mssql.NewConnector(connectionURL(cfg, "localhost:1433", url.Values{
		"dial":     {"cloudsqlconn"},
		"instance": {instance},
	}))
	if err != nil {
		dialer.Close()
		return nil, nil, fmt.Errorf("configure cloud sql sqlserver connector: %w", err)
	}
	d := &cloudSQLDialer{dialer: dialer, instance: instance}
	if cfg.UsePrivateIP {
		d.opts = append(d.opts, cloudsqlconn.WithPrivateIP())
	}
	connector.Dialer = d

	return sql.OpenDB(connector), dialer, nil
}

// CreateStandardPool creates a standard SQL Server connection pool
func (h sqlServerHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	port := cfg.Port
	if port == 0 {
		port = 1433
	}
	dbPool, err := sql.Open("sqlserver", connectionURL(cfg, net.JoinHostPort(cfg.Host, strconv.Itoa(port)), nil))
	if err != nil {
		return nil, fmt.Errorf("open sqlserver pool: %w", err)
	}
	return dbPool, nil
}

// QuoteIdentifier for SQL Server
// SQL Server uses square brackets [] for identifiers; a closing bracket is escaped by doubling it.
func (h sqlServerHandler) QuoteIdentifier(name string) string {
	return fmt.Sprintf("[%s]", strings.ReplaceAll(name, "]", "]]"))
}

func (h sqlServerHandler) DefaultSchema(cfg config.DatabaseConfig) string {
	return "dbo"
}

func (h sqlServerHandler) SystemTablePrefixes() []string {
	return []string{"spt_", "MSreplication"}
}

// ListTables for SQL Server
func (h sqlServerHandler) ListTables(ctx context.Context, db *database.DB) ([]string, error) {
	query := "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_CATALOG = DB_NAME() AND TABLE_SCHEMA = @p1 ORDER BY TABLE_NAME"
	rows, err := db.Pool.QueryContext(ctx, query, sql.Named("p1", db.Schema()))
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

// ListColumns for SQL Server
func (h sqlServerHandler) ListColumns(ctx context.Context, db *database.DB, tableName string) ([]database.ColumnInfo, error) {
	query := "SELECT COLUMN_NAME, DATA_TYPE, ORDINAL_POSITION FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2 AND TABLE_CATALOG = DB_NAME() ORDER BY ORDINAL_POSITION"

	rows, err := db.Pool.QueryContext(ctx, query, sql.Named("p1", db.Schema()), sql.Named("p2", tableName))
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []database.ColumnInfo

	for rows.Next() {
		var colInfo database.ColumnInfo
		if err := rows.Scan(&colInfo.Name, &colInfo.DataType, &colInfo.Ordinal); err != nil {
			return nil, fmt.Errorf("error scanning column details: %w", err)
		}
		columns = append(columns, colInfo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}
	return columns, nil
}

// SampleRows for SQL Server
func (h sqlServerHandler) SampleRows(ctx context.Context, db *database.DB, tableName string, limit int) (*database.SampleFrame, error) {
	query := fmt.Sprintf("SELECT TOP (@p1) * FROM %s", db.QualifiedName(tableName))
	if db.RandomSample {
		query += " ORDER BY NEWID()"
	}

	rows, err := db.Pool.QueryContext(ctx, query, sql.Named("p1", limit))
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
	database.RegisterDialectHandler("sqlserver", sqlServerHandler{})
	database.RegisterDialectHandler("cloudsqlsqlserver", sqlServerHandler{})
}
