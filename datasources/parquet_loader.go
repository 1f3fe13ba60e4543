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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/tabula/core/tables"
	"github.com/parquet-go/parquet-go"
)

// ParquetLoader implements Loader for Parquet files. Leaf columns become
// row keys joined by "." and their declared types become hints.
//
// Required config keys:
//   - file_path: Path to the Parquet file
type ParquetLoader struct{}

// NewParquetLoader creates a new Parquet loader.
func NewParquetLoader() *ParquetLoader {
	return &ParquetLoader{}
}

// SourceType returns "parquet".
func (l *ParquetLoader) SourceType() string {
	return "parquet"
}

const parquetBatchSize = 256

// Load reads every row group of the file.
func (l *ParquetLoader) Load(config map[string]string) (*tables.RowSet, error) {
	filePath, err := requireFilePath(config)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats: %w", err)
	}
	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	schema := pf.Schema()
	paths := schema.Columns()
	names := make([]string, len(paths))
	hints := make(map[string]string, len(paths))
	for _, path := range paths {
		leaf, ok := schema.Lookup(path...)
		if !ok {
			continue
		}
		name := strings.Join(path, ".")
		names[leaf.ColumnIndex] = name
		hints[name] = leaf.Node.Type().String()
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()

	rows := make([]tables.Row, 0, pf.NumRows())
	buf := make([]parquet.Row, parquetBatchSize)
	for {
		n, err := reader.ReadRows(buf)
		for _, pr := range buf[:n] {
			rows = append(rows, convertParquetRow(pr, names))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return newRowSet(names, rows, hints), nil
}

// convertParquetRow maps the values of one row to their leaf columns.
// Repeated leaves collect into a list.
func convertParquetRow(pr parquet.Row, names []string) tables.Row {
	cells := make(map[int][]any, len(names))
	order := make([]int, 0, len(names))
	for _, v := range pr {
		col := v.Column()
		if col < 0 || col >= len(names) {
			continue
		}
		if _, ok := cells[col]; !ok {
			order = append(order, col)
		}
		if v.IsNull() {
			cells[col] = append(cells[col], nil)
			continue
		}
		cells[col] = append(cells[col], parquetValue(v))
	}

	row := make(tables.Row, len(order))
	for _, col := range order {
		vals := cells[col]
		if len(vals) == 1 {
			row[names[col]] = tables.FromAny(vals[0])
			continue
		}
		row[names[col]] = tables.FromAny(vals)
	}
	return row
}

func parquetValue(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return v.Int32()
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return v.Float()
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return append([]byte(nil), v.ByteArray()...)
	default:
		return v.String()
	}
}
