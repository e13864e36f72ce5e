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
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/config"
	"github.com/GoogleCloudPlatform/db-data-dictionary/internal/enricher"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"
)

// Header is the column layout shared by every report format.
var Header = []string{"database_name", "table_name", "column_name", "data_type", "description", "sample_values"}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type parquetRecord struct {
	DatabaseName string `parquet:"database_name"`
	TableName    string `parquet:"table_name"`
	ColumnName   string `parquet:"column_name"`
	DataType     string `parquet:"data_type"`
	Description  string `parquet:"description"`
	SampleValues string `parquet:"sample_values"`
}

// Writer persists a dictionary to a local file.
type Writer struct {
	format string
	logger *zap.Logger
	now    func() time.Time
}

// NewWriter returns a Writer for one of the config.Format* values.
func NewWriter(format string, logger *zap.Logger) (*Writer, error) {
	switch format {
	case "":
		format = config.FormatCSV
	case config.FormatCSV, config.FormatMarkdown, config.FormatParquet:
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{format: format, logger: logger.Named("report"), now: time.Now}, nil
}

// Save writes records to filename, or to a timestamped default name when
// filename is empty, and returns the path written. Nothing is written for an
// empty result.
func (w *Writer) Save(records enricher.DictionaryResult, databaseName, filename string) (string, error) {
	if len(records) == 0 {
		w.logger.Info("No data to save")
		return "", nil
	}
	if filename == "" {
		filename = DefaultFilename(databaseName, w.now(), w.format)
	}

	var err error
	switch w.format {
	case config.FormatMarkdown:
		err = writeMarkdown(filename, records)
	case config.FormatParquet:
		err = writeParquet(filename, records)
	default:
		err = writeCSV(filename, records)
	}
	if err != nil {
		return "", err
	}

	w.logger.Info("Data dictionary saved",
		zap.String("path", filename),
		zap.String("format", w.format),
		zap.Int("records", len(records)))
	return filename, nil
}

// DefaultFilename builds data_dictionary_<database>_<YYYYmmdd_HHMMSS>.<ext>.
func DefaultFilename(databaseName string, at time.Time, format string) string {
	name := unsafeNameChars.ReplaceAllString(filepath.Base(databaseName), "_")
	if name == "" || name == "." {
		name = "database"
	}
	return fmt.Sprintf("data_dictionary_%s_%s.%s", name, at.Format("20060102_150405"), extension(format))
}

func extension(format string) string {
	switch format {
	case config.FormatMarkdown:
		return "md"
	case config.FormatParquet:
		return "parquet"
	default:
		return "csv"
	}
}

func row(r enricher.DictionaryRecord) []string {
	return []string{r.DatabaseName, r.TableName, r.ColumnName, r.DataType, r.Description, r.SampleValues}
}

func writeCSV(filename string, records enricher.DictionaryResult) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write csv row for %s.%s: %w", r.TableName, r.ColumnName, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}

func writeMarkdown(filename string, records enricher.DictionaryResult) error {
	t := table.NewWriter()
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	t.AppendHeader(header)
	for _, r := range records {
		cells := row(r)
		tr := make(table.Row, len(cells))
		for i, c := range cells {
			tr[i] = c
		}
		t.AppendRow(tr)
	}

	if err := os.WriteFile(filename, []byte(t.RenderMarkdown()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

func writeParquet(filename string, records enricher.DictionaryResult) error {
	rows := make([]parquetRecord, 0, len(records))
	for _, r := range records {
		rows = append(rows, parquetRecord{
			DatabaseName: r.DatabaseName,
			TableName:    r.TableName,
			ColumnName:   r.ColumnName,
			DataType:     r.DataType,
			Description:  r.Description,
			SampleValues: r.SampleValues,
		})
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	writer := parquet.NewGenericWriter[parquetRecord](f)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return f.Close()
}
