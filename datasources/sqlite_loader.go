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
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/google/tabula/core/tables"
	_ "github.com/mattn/go-sqlite3"
)

// SqliteLoader implements Loader for SQLite databases. Declared column types
// of the result set become hints.
//
// Required config keys:
//   - file_path: Path to the database file
//   - query or table: SQL to run, or a table to read in full
type SqliteLoader struct{}

// NewSqliteLoader creates a new SQLite loader.
func NewSqliteLoader() *SqliteLoader {
	return &SqliteLoader{}
}

// SourceType returns "sqlite".
func (l *SqliteLoader) SourceType() string {
	return "sqlite"
}

// Load runs the configured query and collects every result row.
func (l *SqliteLoader) Load(config map[string]string) (*tables.RowSet, error) {
	filePath, err := requireFilePath(config)
	if err != nil {
		return nil, err
	}
	query, err := sqliteQuery(config)
	if err != nil {
		return nil, err
	}
	// sqlite3 would silently create a missing file.
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+filePath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	result, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer result.Close()

	names, err := result.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	hints := make(map[string]string, len(names))
	if types, err := result.ColumnTypes(); err == nil {
		for i, ct := range types {
			if t := ct.DatabaseTypeName(); t != "" {
				hints[names[i]] = t
			}
		}
	}

	var rows []tables.Row
	cells := make([]any, len(names))
	dest := make([]any, len(names))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for result.Next() {
		if err := result.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(tables.Row, len(names))
		for i, name := range names {
			row[name] = tables.FromAny(cells[i])
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return newRowSet(names, rows, hints), nil
}

func sqliteQuery(config map[string]string) (string, error) {
	if q := strings.TrimSpace(config["query"]); q != "" {
		return q, nil
	}
	table := config["table"]
	if table == "" {
		return "", fmt.Errorf("query or table is required")
	}
	return `SELECT * FROM "` + strings.ReplaceAll(table, `"`, `""`) + `"`, nil
}
