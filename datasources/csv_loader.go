/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package datasources

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/tabula/core/tables"
)

// CsvLoader implements Loader for delimited text files.
//
// Required config keys:
//   - file_path: Path to the CSV file
//
// Optional config keys:
//   - has_header: "true" or "false" (default: "true")
//   - delimiter: Field delimiter (default: ",")
//   - infer_types: "true" or "false" (default: "true"); numeric columns are
//     converted to numbers
type CsvLoader struct{}

// NewCsvLoader creates a new CSV loader.
func NewCsvLoader() *CsvLoader {
	return &CsvLoader{}
}

// SourceType returns "csv".
func (l *CsvLoader) SourceType() string {
	return "csv"
}

// Load reads the whole file.
func (l *CsvLoader) Load(config map[string]string) (*tables.RowSet, error) {
	filePath, err := requireFilePath(config)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()
	return ReadCSV(file, config)
}

// ReadCSV parses delimited text using the same options as CsvLoader.
// Short records leave their trailing columns unset.
func ReadCSV(r io.Reader, config map[string]string) (*tables.RowSet, error) {
	hasHeader := configBool(config, "has_header", true)
	inferTypes := configBool(config, "infer_types", true)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	if d := config["delimiter"]; d != "" {
		if d == `\t` {
			d = "\t"
		}
		reader.Comma = []rune(d)[0]
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	var names []string
	dataStart := 0
	if hasHeader {
		names = uniqueNames(records[0])
		dataStart = 1
	} else {
		width := 0
		for _, rec := range records {
			if len(rec) > width {
				width = len(rec)
			}
		}
		for i := 0; i < width; i++ {
			names = append(names, fmt.Sprintf("col_%d", i))
		}
	}

	rows := make([]tables.Row, 0, len(records)-dataStart)
	for _, record := range records[dataStart:] {
		row := make(tables.Row, len(names))
		for i, field := range record {
			if i >= len(names) {
				break
			}
			row[names[i]] = tables.FromAny(field)
		}
		rows = append(rows, row)
	}

	if inferTypes {
		convertNumericColumns(rows, names)
	}
	return newRowSet(names, rows, nil), nil
}

// convertNumericColumns turns the cells of sampled-numeric columns into
// numbers. Empty cells become null; cells that do not parse stay text.
func convertNumericColumns(rows []tables.Row, names []string) {
	kinds := tables.InferColumnKinds(rows, names, nil)
	for _, name := range names {
		if kinds[name] != tables.ColumnNumeric {
			continue
		}
		for _, row := range rows {
			v, ok := row[name]
			if !ok {
				continue
			}
			if strings.TrimSpace(v.String()) == "" {
				row[name] = tables.Null()
				continue
			}
			if f, ok := v.Float(); ok {
				row[name] = tables.Number(f)
			}
		}
	}
}

// uniqueNames fills blank header cells and suffixes duplicates so that
// every column keeps its own key.
func uniqueNames(header []string) []string {
	seen := make(map[string]int, len(header))
	names := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		if n := seen[name]; n > 0 {
			base := name
			for {
				n++
				name = fmt.Sprintf("%s_%d", base, n)
				if seen[name] == 0 {
					break
				}
			}
			seen[base] = n
		}
		seen[name]++
		names[i] = name
	}
	return names
}
