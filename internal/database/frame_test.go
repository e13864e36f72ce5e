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
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestScanSampleFrame(t *testing.T) {
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer mockDb.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "score"}).
			AddRow(int64(1), []byte("ann"), 4.5).
			AddRow(int64(2), nil, nil).
			AddRow(int64(3), []byte{0xff, 0x00, 0xfe}, nil),
	)

	rows, err := mockDb.Query("SELECT id, name, score FROM people")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	frame, err := ScanSampleFrame(rows)
	if err != nil {
		t.Fatalf("ScanSampleFrame() error = %v", err)
	}
	if frame.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", frame.Len())
	}
	if frame.Rows[0][1] != "ann" {
		t.Errorf("bytes should become string, got %#v", frame.Rows[0][1])
	}
	if frame.Rows[1][1] != nil || frame.Rows[1][2] != nil {
		t.Errorf("NULLs should stay nil, got %#v", frame.Rows[1])
	}
	if _, ok := frame.Rows[2][1].([]byte); !ok {
		t.Errorf("binary cell should stay []byte, got %#v", frame.Rows[2][1])
	}
	if got := FormatValue(frame.Rows[2][1]); got != "0xff00fe" {
		t.Errorf("FormatValue(binary cell) = %q, want 0xff00fe", got)
	}
	if idx, ok := frame.ColumnIndex("score"); !ok || idx != 2 {
		t.Errorf("ColumnIndex(score) = %d, %v", idx, ok)
	}
	if _, ok := frame.ColumnIndex("Score"); ok {
		t.Error("ColumnIndex must match exactly")
	}
}

func TestScanSampleFrameRowError(t *testing.T) {
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer mockDb.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).RowError(0, errors.New("io timeout")),
	)
	rows, err := mockDb.Query("SELECT id FROM t")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	if _, err := ScanSampleFrame(rows); err == nil {
		t.Error("expected row error to surface")
	}
}

func TestNilFrame(t *testing.T) {
	var f *SampleFrame
	if f.Len() != 0 {
		t.Error("nil frame should be empty")
	}
	if _, ok := f.ColumnIndex("a"); ok {
		t.Error("nil frame has no columns")
	}
}

func TestFormatValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"bytes", []byte("xyz"), "xyz"},
		{"utf8 bytes", []byte("café"), "café"},
		{"binary bytes", []byte{0xff, 0x00, 0xfe}, "0xff00fe"},
		{"bytes with nul", []byte("a\x00b"), "0x610062"},
		{"long binary", bytes.Repeat([]byte{0xab}, 40), "0x" + strings.Repeat("ab", 16) + "..."},
		{"invalid utf8 string", "\xff\xfe", "0xfffe"},
		{"int64", int64(-42), "-42"},
		{"int", 7, "7"},
		{"float", 3.25, "3.25"},
		{"whole float", float64(10), "10"},
		{"float32", float32(1.5), "1.5"},
		{"bool", true, "true"},
		{"date", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03-01"},
		{"timestamp", time.Date(2024, 3, 1, 13, 4, 5, 0, time.UTC), "2024-03-01 13:04:05"},
		{"fractional", time.Date(2024, 3, 1, 13, 4, 5, 500000000, time.UTC), "2024-03-01 13:04:05.5"},
		{"stringer", id, "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"other", []int{1, 2}, "[1 2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.in); got != tt.want {
				t.Errorf("FormatValue(%#v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
