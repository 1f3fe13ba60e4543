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

// Command tabula loads a row source, applies a view state and prints the
// resulting table or pivot.
//
//	tabula -source csv -file sales.csv -view view.json
//	tabula -sources sources.json -table sales -url 'view=pivot&rows=region&measures=revenue'
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/rendering"
	"github.com/google/tabula/core/tables"
	"github.com/google/tabula/core/views"
	"github.com/google/tabula/datasources"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("tabula: %v", err)
	}
}

type options struct {
	sources    string
	table      string
	sourceType string
	file       string
	sql        string
	view       string
	state      string
	format     string
	limit      int
	drill      string
	debug      bool
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("tabula", flag.ContinueOnError)
	fs.StringVar(&opts.sources, "sources", "", "JSON file listing named sources")
	fs.StringVar(&opts.table, "table", "", "source name from -sources, or the table to read with -source sqlite")
	fs.StringVar(&opts.sourceType, "source", "csv", "source type for -file: csv, json, parquet or sqlite")
	fs.StringVar(&opts.file, "file", "", "file to load")
	fs.StringVar(&opts.sql, "query", "", "SQL query for -source sqlite")
	fs.StringVar(&opts.view, "view", "", "JSON view state file")
	fs.StringVar(&opts.state, "url", "", "view state as a URL query string, applied after -view")
	fs.StringVar(&opts.format, "format", "text", "output format: text or json")
	fs.IntVar(&opts.limit, "limit", 0, "maximum number of flat rows to print")
	fs.StringVar(&opts.drill, "drill", "", "print the rows behind a pivot group, e.g. region=North,product=A")
	fs.BoolVar(&opts.debug, "debug", false, "log stage timings")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.format != "text" && opts.format != "json" {
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
	if opts.sources == "" && opts.file == "" {
		return nil, fmt.Errorf("either -sources or -file is required")
	}
	return opts, nil
}

func run(args []string, w io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	views.Debug = opts.debug

	q, err := loadQuery(opts)
	if err != nil {
		return err
	}

	manager := datasources.NewDefaultManager()
	var rs *tables.RowSet
	if opts.sources != "" {
		if err := manager.LoadConfig(opts.sources); err != nil {
			return err
		}
		name := opts.table
		if name == "" {
			name = q.Table
		}
		if name == "" {
			return fmt.Errorf("-table is required with -sources (have %s)", strings.Join(manager.SourceNames(), ", "))
		}
		rs, err = manager.LoadData(name)
	} else {
		config := map[string]string{"file_path": opts.file}
		if opts.sql != "" {
			config["query"] = opts.sql
		}
		if opts.table != "" {
			config["table"] = opts.table
		}
		rs, err = manager.Load(opts.sourceType, config)
	}
	if err != nil {
		return err
	}
	if opts.debug {
		log.Printf("[tabula] loaded %d rows, %d columns", rs.Len(), len(rs.Headers))
	}

	out := views.Compute(rs.Rows, q, rs.Hints)

	if opts.drill != "" {
		if out.Drill == nil {
			return fmt.Errorf("-drill needs the pivot view")
		}
		key := parseGroupKey(opts.drill)
		return rendering.NewTextRenderer().RenderRows(w, out.Headers, out.DrillRows(key))
	}

	if opts.format == "json" {
		return rendering.RenderJSON(w, out)
	}
	renderer := rendering.NewTextRenderer()
	if out.Pivot != nil {
		return renderer.RenderPivot(w, out.Pivot, rendering.AxisColumns(*q.Pivot))
	}
	if err := renderer.RenderRows(w, out.Columns, out.Rows); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d of %d rows (%d in source)\n", len(out.Rows), out.TotalRows, out.SourceRows)
	return err
}

func loadQuery(opts *options) (*query.Query, error) {
	q := query.New()
	if opts.view != "" {
		f, err := os.Open(opts.view)
		if err != nil {
			return nil, fmt.Errorf("failed to open view file: %w", err)
		}
		defer f.Close()
		if q, err = query.Load(f); err != nil {
			return nil, err
		}
	}
	if opts.state != "" {
		values, err := url.ParseQuery(strings.TrimPrefix(opts.state, "?"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse -url: %w", err)
		}
		q.ApplyValues(values)
	}
	if opts.limit > 0 {
		q.Limit = opts.limit
	}
	return q, nil
}

// parseGroupKey reads "col=value,col2=value2".
func parseGroupKey(s string) map[string]string {
	key := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		col, val, ok := strings.Cut(part, "=")
		if !ok || col == "" {
			continue
		}
		key[strings.TrimSpace(col)] = strings.TrimSpace(val)
	}
	return key
}
