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

// DictionaryRecord is one row of the data dictionary.
type DictionaryRecord struct {
	DatabaseName string // Database the column belongs to
	TableName    string
	ColumnName   string
	DataType     string // Type as reported by the catalog
	Description  string // Model output, or an error marker when generation failed
	SampleValues string // Up to three representative values, or N/A
}

// DictionaryResult is the ordered output of a run: tables in listing order,
// columns in ordinal order within each table.
type DictionaryResult []DictionaryRecord

// Summary counts what happened during a run.
type Summary struct {
	TablesListed    int
	TablesProcessed int
	TablesSkipped   int
	Records         int
	Degraded        int
	// Skipped holds the reason each skipped table was dropped.
	Skipped []*TableError
}
