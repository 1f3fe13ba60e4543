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

// Package datasources loads row sets from files and databases and caches
// them by source name.
package datasources

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/tabula/core/tables"
)

// Loader reads one kind of source into a row set. Configuration is a flat
// string map whose keys depend on the source type.
type Loader interface {
	// SourceType returns the identifier used to select this loader, e.g. "csv".
	SourceType() string

	// Load reads every row of the source.
	Load(config map[string]string) (*tables.RowSet, error)
}

// Source describes a named source in a sources config file.
type Source struct {
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	Config map[string]string `json:"config"`
}

// Config is the on-disk sources file.
type Config struct {
	Sources []Source `json:"sources"`
}

// DefaultLoaders returns one instance of each built-in loader.
func DefaultLoaders() []Loader {
	return []Loader{
		NewCsvLoader(),
		NewJSONLoader(),
		NewParquetLoader(),
		NewSqliteLoader(),
	}
}

func requireFilePath(config map[string]string) (string, error) {
	path := config["file_path"]
	if path == "" {
		return "", fmt.Errorf("file_path is required")
	}
	return path, nil
}

// configBool reads a boolean option, returning def when the key is absent
// or unparsable.
func configBool(config map[string]string, key string, def bool) bool {
	v, ok := config[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

// newRowSet builds a row set whose headers follow the given column order.
func newRowSet(headers []string, rows []tables.Row, hints map[string]string) *tables.RowSet {
	if len(headers) == 0 {
		headers = tables.CollectHeaders(rows, 0)
	}
	return &tables.RowSet{Headers: tables.Headers(headers), Rows: rows, Hints: hints}
}
