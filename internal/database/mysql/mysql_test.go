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
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/database"
)

func newMockMySQLDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	db := &database.DB{
		Pool:         mockDB,
		Handler:      mysqlHandler{},
		Config:       config.DatabaseConfig{Dialect: "mysql", DBName: "shop"},
		RandomSample: true,
	}
	return db, mock
}

func TestMySQLQuoteIdentifier(t *testing.T) {
	handler := mysqlHandler{}
	if got := handler.QuoteIdentifier("order"); got != "`order`" {
		t.Errorf("QuoteIdentifier() = %v", got)
	}
	if got := handler.QuoteIdentifier("we`ird"); got != "`we``ird`" {
		t.Errorf("QuoteIdentifier() = %v", got)
	}
}

func TestMySQLDefaultSchema(t *testing.T) {
	handler := mysqlHandler{}
	if got := handler.DefaultSchema(config.DatabaseConfig{DBName: "shop"}); got != "shop" {
		t.Errorf("DefaultSchema() = %v, want shop", got)
	}
}

func TestMySQLListColumns(t *testing.T) {
	columnsQuery := `SELECT COLUMN_NAME, COLUMN_TYPE, ORDINAL_POSITION\s+FROM information_schema\.COLUMNS`

	tests := []struct {
		name          string
		expected      []database.ColumnInfo
		expectedError string
		mockSetup     func(sqlmock.Sqlmock)
	}{
		{
			name: "Success",
			expected: []database.ColumnInfo{
				{Name: "id", DataType: "int", Ordinal: 1},
				{Name: "status", DataType: "enum('new','paid')", Ordinal: 2},
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"COLUMN_NAME", "COLUMN_TYPE", "ORDINAL_POSITION"}).
					AddRow("id", "int", 1).
					AddRow("status", "enum('new','paid')", 2)
				mock.ExpectQuery(columnsQuery).WithArgs("shop", "orders").WillReturnRows(rows)
			},
		},
		{
			name:          "Database query error",
			expectedError: "error querying columns for table orders",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(columnsQuery).WithArgs("shop", "orders").WillReturnError(errors.New("database connection failed"))
			},
		},
		{
			name:          "Row scanning error",
			expectedError: "error scanning column name and data type",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"COLUMN_NAME", "COLUMN_TYPE", "ORDINAL_POSITION"}).
					AddRow("id", "int", "not-a-number")
				mock.ExpectQuery(columnsQuery).WithArgs("shop", "orders").WillReturnRows(rows)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockMySQLDB(t)
			defer db.Close()
			tt.mockSetup(mock)

			columns, err := mysqlHandler{}.ListColumns(context.Background(), db, "orders")
			if tt.expectedError != "" {
				if err == nil || !strings.Contains(err.Error(), tt.expectedError) {
					t.Fatalf("ListColumns() error = %v, want containing %q", err, tt.expectedError)
				}
			} else {
				if err != nil {
					t.Fatalf("ListColumns() unexpected error = %v", err)
				}
				if len(columns) != len(tt.expected) {
					t.Fatalf("ListColumns() = %v, want %v", columns, tt.expected)
				}
				for i := range tt.expected {
					if columns[i] != tt.expected[i] {
						t.Errorf("ListColumns()[%d] = %v, want %v", i, columns[i], tt.expected[i])
					}
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestMySQLListTables(t *testing.T) {
	db, mock := newMockMySQLDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("customers").AddRow("orders")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ?")).
		WithArgs("shop").WillReturnRows(rows)

	tables, err := mysqlHandler{}.ListTables(context.Background(), db)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if strings.Join(tables, ",") != "customers,orders" {
		t.Errorf("ListTables() = %v", tables)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestMySQLSampleRows(t *testing.T) {
	db, mock := newMockMySQLDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "status"}).AddRow(int64(7), []byte("paid"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `shop`.`orders` ORDER BY RAND() LIMIT ?")).
		WithArgs(5).WillReturnRows(rows)

	frame, err := mysqlHandler{}.SampleRows(context.Background(), db, "orders", 5)
	if err != nil {
		t.Fatalf("SampleRows() error = %v", err)
	}
	if frame.Len() != 1 || frame.Rows[0][1] != "paid" {
		t.Errorf("SampleRows() = %+v", frame)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestMySQLDriverConfig(t *testing.T) {
	c := driverConfig(config.DatabaseConfig{User: "analyst", Password: "p@ss word", DBName: "shop"})
	if !c.ParseTime {
		t.Error("ParseTime should be enabled so DATETIME columns scan as time.Time")
	}
	if c.User != "analyst" || c.Passwd != "p@ss word" || c.DBName != "shop" {
		t.Errorf("driverConfig() = %+v", c)
	}
	if c.ConnectionAttributes != "program_name:db_data_dictionary" {
		t.Errorf("ConnectionAttributes = %q", c.ConnectionAttributes)
	}
}

func TestMySQLCreateStandardPoolIsLazy(t *testing.T) {
	pool, err := mysqlHandler{}.CreateStandardPool(config.DatabaseConfig{Host: "127.0.0.1", Port: 1, DBName: "shop", User: "u"})
	if err != nil {
		t.Fatalf("CreateStandardPool() error = %v", err)
	}
	defer pool.Close()
}

func TestMySQLCloudSQLPoolRequiresInstance(t *testing.T) {
	_, _, err := mysqlHandler{}.CreateCloudSQLPool(config.DatabaseConfig{User: "u", DBName: "shop"})
	if err == nil {
		t.Fatal("expected an error without an instance connection name")
	}
}
