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
package genai

import "fmt"

// ColumnPrompt carries what the model is told about one column.
type ColumnPrompt struct {
	Table        string
	Column       string
	DataType     string
	SampleValues string
}

const columnPromptTemplate = `Based on this database column information, provide a SHORT description (10-15 words max) of what this column contains:

Table: %s
Column: %s
Data Type: %s
Sample Values: %s

Provide ONLY a brief description, nothing else.`

// BuildColumnPrompt renders the column description request.
func BuildColumnPrompt(p ColumnPrompt) string {
	return fmt.Sprintf(columnPromptTemplate, p.Table, p.Column, p.DataType, p.SampleValues)
}
