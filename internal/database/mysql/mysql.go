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
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/database"
	"github.com/go-sql-driver/mysql"
)

const applicationName = "db_data_dictionary"

type mysqlHandler struct{}

var _ database.DialectHandler = (*mysqlHandler)(nil)

// driverConfig returns the settings shared by every MySQL pool. Time columns
// are parsed so sampled values render as dates rather than raw bytes.
func driverConfig(cfg config.DatabaseConfig) *mysql.Config {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.DBName = cfg.DBName
	c.ParseTime = true
	c.AllowNativePasswords = true
	c.ConnectionAttributes = "program_name:" + applicationName
	return c
}

func (h mysqlHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, io.Closer, error) {
	instance := cfg.CloudSQLInstanceConnectionName
	if cfg.User == "" || cfg.DBName == "" || instance == "" {
		return nil, nil, fmt.Errorf("cloud sql mysql requires user, database and instance connection name")
	}

	var opts []cloudsqlconn.Option
	if cfg.UsePrivateIP {
		opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
	}
	dialer, err := cloudsqlconn.NewDialer(context.Background(), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create cloud sql dialer: %w", err)
	}

	// The driver keys custom dialers by network name, one per instance.
	network := "cloudsql-" + instance
	mysql.RegisterDialContext(network, func(ctx context.Context, _ string) (net.Conn, error) {
		conn, err := dialer.Dial(ctx, instance)
		if err != nil {
			log.Printf("ERROR: Cloud SQL dial failed for %s: %v", instance, err)
		}
		return conn, err
	})

	c := driverConfig(cfg)
	c.Net = network
	c.Addr = instance
	release := database.CloserFunc(func() error {
		mysql.DeregisterDialContext(network)
		return dialer.Close()
	})
	connector, err := mysql.NewConnector(c)
	if err != nil {
		release.Close()
		return nil, nil, fmt.Errorf("configure cloud sql mysql connector: %w", err)
	}
	return sql.OpenDB(connector), release, nil
}

func (h mysqlHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	c := driverConfig(cfg)
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	connector, err := mysql.NewConnector(c)
	if err != nil {
		return nil, fmt.Errorf("configure mysql connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

func (h mysqlHandler) QuoteIdentifier(name string) string {
	name = strings.ReplaceAll(name, "`", "``")
	return fmt.Sprintf("`%s`", name)
}

// DefaultSchema is the connected database; MySQL has no separate schema level.
func (h mysqlHandler) DefaultSchema(cfg config.DatabaseConfig) string {
	return cfg.DBName
}

func (h mysqlHandler) SystemTablePrefixes() []string {
	return nil
}

func (h mysqlHandler) ListTables(ctx context.Context, db *database.DB) ([]string, error) {
	query := "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME"

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

// ListColumns reports COLUMN_TYPE so widths and enum members reach the prompt.
func (h mysqlHandler) ListColumns(ctx context.Context, db *database.DB, tableName string) ([]database.ColumnInfo, error) {
	query := `
		  SELECT COLUMN_NAME, COLUMN_TYPE, ORDINAL_POSITION
		  FROM information_schema.COLUMNS
		  WHERE TABLE_SCHEMA = ?
			AND TABLE_NAME = ?
		  ORDER BY ORDINAL_POSITION;`

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

func (h mysqlHandler) SampleRows(ctx context.Context, db *database.DB, tableName string, limit int) (*database.SampleFrame, error) {
	order := ""
	if db.RandomSample {
		order = " ORDER BY RAND()"
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
	database.RegisterDialectHandler("mysql", mysqlHandler{})
	database.RegisterDialectHandler("cloudsqlmysql", mysqlHandler{})
}
