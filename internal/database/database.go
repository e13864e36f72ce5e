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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
)

// DBAdapter defines the read-only operations the dictionary pipeline needs.
type DBAdapter interface {
	ListTables(ctx context.Context) ([]string, error)
	ListColumns(ctx context.Context, tableName string) ([]ColumnInfo, error)
	SampleTable(ctx context.Context, tableName string, limit int) (*SampleFrame, error)
	GetConfig() config.DatabaseConfig
}

var _ DBAdapter = (*DB)(nil)

// DB holds the database connection pool and dialect handler.
type DB struct {
	Pool    *sql.DB
	Handler DialectHandler
	Config  config.DatabaseConfig

	// ExcludePrefixes are table name prefixes skipped in addition to the
	// dialect's own system prefixes.
	ExcludePrefixes []string
	// RandomSample asks the dialect to randomize sampled rows.
	RandomSample bool

	// dialer is released after Pool on Close. Only Cloud SQL pools set it.
	dialer io.Closer
}

// CloserFunc adapts a function to io.Closer.
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }

// ColumnInfo holds basic information about a database column.
type ColumnInfo struct {
	Name     string
	DataType string
	Ordinal  int
}

// DialectHandler implements the engine specific parts of schema inspection.
type DialectHandler interface {
	// CreateCloudSQLPool also returns the connector dialer, which must outlive the pool.
	CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, io.Closer, error)
	CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error)
	QuoteIdentifier(name string) string
	// DefaultSchema returns the namespace inspected when none is configured.
	DefaultSchema(cfg config.DatabaseConfig) string
	// SystemTablePrefixes lists name prefixes of catalog objects that are never user tables.
	SystemTablePrefixes() []string
	ListTables(ctx context.Context, db *DB) ([]string, error)
	ListColumns(ctx context.Context, db *DB, tableName string) ([]ColumnInfo, error)
	SampleRows(ctx context.Context, db *DB, tableName string, limit int) (*SampleFrame, error)
}

var (
	dialectHandlers = make(map[string]DialectHandler)
	mu              sync.RWMutex
)

func RegisterDialectHandler(dialect string, handler DialectHandler) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := dialectHandlers[dialect]; exists {
		log.Printf("WARN: Dialect handler for '%s' is being overwritten.", dialect)
	}
	dialectHandlers[dialect] = handler
}

func GetDialectHandler(dialect string) (DialectHandler, error) {
	mu.RLock()
	defer mu.RUnlock()
	handler, ok := dialectHandlers[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported database dialect: %s", dialect)
	}
	return handler, nil
}

// New opens a pool for cfg.Dialect and verifies it with a ping.
func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	var (
		pool   *sql.DB
		dialer io.Closer
	)
	if strings.HasPrefix(cfg.Dialect, "cloudsql") {
		pool, dialer, err = handler.CreateCloudSQLPool(cfg)
	} else {
		pool, err = handler.CreateStandardPool(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool for dialect %s: %w", cfg.Dialect, err)
	}

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		if dialer != nil {
			dialer.Close()
		}
		return nil, fmt.Errorf("failed to connect to database (ping failed) for dialect %s: %w", cfg.Dialect, err)
	}

	return &DB{
		Pool:         pool,
		Handler:      handler,
		Config:       cfg,
		RandomSample: true,
		dialer:       dialer,
	}, nil
}

func (db *DB) GetConfig() config.DatabaseConfig {
	return db.Config
}

// Schema returns the configured schema or the dialect's default.
func (db *DB) Schema() string {
	if db.Config.Schema != "" {
		return db.Config.Schema
	}
	if db.Handler == nil {
		return ""
	}
	return db.Handler.DefaultSchema(db.Config)
}

func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	return db.Pool.PingContext(ctx)
}

func (db *DB) Close() error {
	var err error
	if db.Pool != nil {
		err = db.Pool.Close()
	} else {
		log.Println("WARN: Attempted to close a nil database connection pool.")
	}
	if db.dialer != nil {
		err = errors.Join(err, db.dialer.Close())
		db.dialer = nil
	}
	return err
}

// ListTables returns user tables in listing order with system objects removed.
func (db *DB) ListTables(ctx context.Context) ([]string, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	tables, err := db.Handler.ListTables(ctx, db)
	if err != nil {
		return nil, err
	}
	prefixes := append(append([]string{}, db.Handler.SystemTablePrefixes()...), db.ExcludePrefixes...)
	return FilterSystemTables(tables, prefixes), nil
}

func (db *DB) ListColumns(ctx context.Context, tableName string) ([]ColumnInfo, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	if err := ValidateIdentifier(tableName); err != nil {
		return nil, err
	}
	return db.Handler.ListColumns(ctx, db, tableName)
}

// SampleTable pulls at most limit rows from tableName.
func (db *DB) SampleTable(ctx context.Context, tableName string, limit int) (*SampleFrame, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	if limit < 1 {
		return nil, fmt.Errorf("sample limit must be positive, got %d", limit)
	}
	if err := ValidateIdentifier(tableName); err != nil {
		return nil, err
	}
	if err := ValidateIdentifier(db.Schema()); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return db.Handler.SampleRows(ctx, db, tableName, limit)
}

// QualifiedName returns the quoted schema.table reference for tableName.
func (db *DB) QualifiedName(tableName string) string {
	return db.Handler.QuoteIdentifier(db.Schema()) + "." + db.Handler.QuoteIdentifier(tableName)
}
