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
package enricher

import (
	"context"
	"errors"
	"time"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/database"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/genai"
	"go.uber.org/zap"
)

// Service builds the data dictionary for one database.
type Service struct {
	dbAdapter database.DBAdapter
	describer *Describer
	cfg       Config
	logger    *zap.Logger
	metrics   *Metrics
}

type Config struct {
	// SampleSize is the number of rows sampled per table.
	SampleSize int
	// TableFilters restricts the run to the given tables and, when a table
	// maps to a non-empty list, to those columns. Empty means everything.
	TableFilters map[string][]string
}

func NewService(db database.DBAdapter, describer *Describer, cfg Config, logger *zap.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		dbAdapter: db,
		describer: describer,
		cfg:       cfg,
		logger:    logger.Named("enricher"),
		metrics:   metrics,
	}
}

// Generate walks every table and column sequentially and returns one record
// per column of each table that could be sampled and cataloged. Table-level
// failures are logged and skipped; description failures degrade to an error
// marker. The only errors returned are invalid input and cancellation, in
// which case the records produced so far are returned alongside.
func (s *Service) Generate(ctx context.Context) (DictionaryResult, *Summary, error) {
	startTime := time.Now()
	summary := &Summary{}
	result := DictionaryResult{}

	if s.cfg.SampleSize < 1 {
		return result, summary, &ErrInvalidInput{Msg: "sample size must be at least 1"}
	}

	dbName := s.dbAdapter.GetConfig().DisplayName()
	s.logger.Info("Starting data dictionary generation",
		zap.String("database", dbName),
		zap.Int("sample_size", s.cfg.SampleSize))

	tables, err := s.dbAdapter.ListTables(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return result, summary, &ErrCancelled{Msg: "listing tables", Err: ctx.Err()}
		}
		s.logger.Error("Failed to list tables, nothing to process", zap.Error(err))
		tables = nil
	}
	summary.TablesListed = len(tables)

	tables = filterTables(tables, s.cfg.TableFilters)
	if len(tables) == 0 {
		s.logger.Info("No tables found")
		return result, summary, nil
	}
	s.logger.Info("Found tables", zap.Int("count", len(tables)))

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return result, summary, &ErrCancelled{Msg: "before table " + table, Err: err}
		}

		records, err := s.processTable(ctx, dbName, table, summary)
		result = append(result, records...)
		if err != nil {
			var tableErr *TableError
			if !errors.As(err, &tableErr) {
				return result, summary, err
			}
			summary.TablesSkipped++
			summary.Skipped = append(summary.Skipped, tableErr)
			s.metrics.tableSkipped(tableErr.Stage)
			s.logger.Error("Skipping table",
				zap.String("table", table),
				zap.String("stage", tableErr.Stage),
				zap.Error(tableErr.Err))
			continue
		}
		summary.TablesProcessed++
		s.metrics.tableProcessed()
	}

	summary.Records = len(result)
	s.logger.Info("Data dictionary generation completed",
		zap.Duration("elapsed", time.Since(startTime)),
		zap.Int("records", summary.Records),
		zap.Int("tables_processed", summary.TablesProcessed),
		zap.Int("tables_skipped", summary.TablesSkipped),
		zap.Int("degraded", summary.Degraded))
	return result, summary, nil
}

// processTable returns the records of one table. A *TableError means the
// table contributed nothing; an *ErrCancelled comes with the records
// finished before cancellation.
func (s *Service) processTable(ctx context.Context, dbName, table string, summary *Summary) (DictionaryResult, error) {
	s.logger.Info("Processing table", zap.String("table", table))

	frame, err := s.dbAdapter.SampleTable(ctx, table, s.cfg.SampleSize)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &ErrCancelled{Msg: "sampling table " + table, Err: ctx.Err()}
		}
		return nil, &TableError{Table: table, Stage: StageSample, Err: err}
	}

	columns, err := s.dbAdapter.ListColumns(ctx, table)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &ErrCancelled{Msg: "listing columns of " + table, Err: ctx.Err()}
		}
		return nil, &TableError{Table: table, Stage: StageColumns, Err: err}
	}
	columns = filterColumns(table, columns, s.cfg.TableFilters)

	records := make(DictionaryResult, 0, len(columns))
	for _, col := range columns {
		if err := ctx.Err(); err != nil {
			return records, &ErrCancelled{Msg: "before column " + table + "." + col.Name, Err: err}
		}
		s.logger.Info("Analyzing column", zap.String("table", table), zap.String("column", col.Name))

		samples := SummarizeValues(frame, col.Name)
		description, degraded := s.describer.describe(ctx, genai.ColumnPrompt{
			Table:        table,
			Column:       col.Name,
			DataType:     col.DataType,
			SampleValues: samples,
		})
		if degraded {
			summary.Degraded++
		}

		records = append(records, DictionaryRecord{
			DatabaseName: dbName,
			TableName:    table,
			ColumnName:   col.Name,
			DataType:     col.DataType,
			Description:  description,
			SampleValues: samples,
		})
		s.metrics.recordEmitted()
	}
	return records, nil
}

// filterTables keeps the tables named in tableFilters, in listing order.
func filterTables(allTables []string, tableFilters map[string][]string) []string {
	if len(tableFilters) == 0 {
		return allTables
	}
	filtered := make([]string, 0, len(tableFilters))
	for _, table := range allTables {
		if _, ok := tableFilters[table]; ok {
			filtered = append(filtered, table)
		}
	}
	return filtered
}

// filterColumns keeps the requested columns of tableName, in ordinal order.
func filterColumns(tableName string, allColumns []database.ColumnInfo, tableFilters map[string][]string) []database.ColumnInfo {
	specificColumnFilters := tableFilters[tableName]
	if len(specificColumnFilters) == 0 {
		return allColumns
	}
	allowed := make(map[string]bool, len(specificColumnFilters))
	for _, colName := range specificColumnFilters {
		allowed[colName] = true
	}
	filtered := make([]database.ColumnInfo, 0, len(specificColumnFilters))
	for _, colInfo := range allColumns {
		if allowed[colInfo.Name] {
			filtered = append(filtered, colInfo)
		}
	}
	return filtered
}
