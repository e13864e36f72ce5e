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
	"bytes"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"
)

// maxBinaryBytes caps how much of a binary value is rendered as hex.
const maxBinaryBytes = 16

// SampleFrame is a small set of rows pulled from one table. Rows are stored in
// the order the database returned them; a nil cell is SQL NULL.
type SampleFrame struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of sampled rows.
func (f *SampleFrame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// ColumnIndex returns the position of column in the frame.
func (f *SampleFrame) ColumnIndex(column string) (int, bool) {
	if f == nil {
		return -1, false
	}
	for i, name := range f.Columns {
		if name == column {
			return i, true
		}
	}
	return -1, false
}

// ScanSampleFrame reads every remaining row of rows into a SampleFrame.
// The caller still owns rows and must close it.
func ScanSampleFrame(rows *sql.Rows) (*SampleFrame, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error reading sample columns: %w", err)
	}

	frame := &SampleFrame{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("error scanning sample row: %w", err)
		}
		for i, v := range values {
			// Text and numeric types often arrive as raw bytes.
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		frame.Rows = append(frame.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sample rows: %w", err)
	}
	return frame, nil
}

// FormatValue renders a sampled cell the way it appears in the dictionary.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if !isText([]byte(val)) {
			return formatBinary([]byte(val))
		}
		return val
	case []byte:
		if !isText(val) {
			return formatBinary(val)
		}
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return formatTime(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func isText(b []byte) bool {
	return utf8.Valid(b) && bytes.IndexByte(b, 0) < 0
}

// formatBinary renders b as 0x-prefixed hex, truncated after maxBinaryBytes.
func formatBinary(b []byte) string {
	if len(b) > maxBinaryBytes {
		return "0x" + hex.EncodeToString(b[:maxBinaryBytes]) + "..."
	}
	return "0x" + hex.EncodeToString(b)
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02 15:04:05.999999999")
	}
	return t.Format("2006-01-02 15:04:05")
}
