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
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/tabula/core/tables"
)

// JSONLoader implements Loader for JSON files holding either an array of
// objects or newline-delimited objects.
//
// Required config keys:
//   - file_path: Path to the JSON file
type JSONLoader struct{}

// NewJSONLoader creates a new JSON loader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// SourceType returns "json".
func (l *JSONLoader) SourceType() string {
	return "json"
}

// Load reads the whole file.
func (l *JSONLoader) Load(config map[string]string) (*tables.RowSet, error) {
	filePath, err := requireFilePath(config)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()
	return ReadJSON(file)
}

// ReadJSON decodes objects into rows. Numbers keep full precision until
// converted, nested values are kept as their JSON text.
func ReadJSON(r io.Reader) (*tables.RowSet, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return newRowSet(nil, nil, nil), nil
		}
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	var objects []map[string]any
	if first == '[' {
		if err := dec.Decode(&objects); err != nil {
			return nil, fmt.Errorf("failed to decode JSON array: %w", err)
		}
	} else {
		for line := 1; ; line++ {
			var obj map[string]any
			err := dec.Decode(&obj)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("failed to decode JSON record %d: %w", line, err)
			}
			objects = append(objects, obj)
		}
	}

	rows := make([]tables.Row, 0, len(objects))
	for _, obj := range objects {
		row := make(tables.Row, len(obj))
		for k, v := range obj {
			row[k] = tables.FromAny(v)
		}
		rows = append(rows, row)
	}
	return newRowSet(nil, rows, nil), nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
