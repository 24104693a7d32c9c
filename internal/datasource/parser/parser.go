// Package parser turns uploaded CSV or JSON files into row objects plus shape
// metadata for storage as a data source.
package parser

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrEmptyFile is returned for uploads with no data rows.
var ErrEmptyFile = errors.New("file contains no data")

// Result is a parsed upload: rows as column-keyed objects and the inferred
// shape.
type Result struct {
	Rows        []map[string]any
	Columns     []string
	ColumnTypes map[string]string
}

// ParseCSV reads a CSV with a header row. Cell values are typed by column:
// a column is numeric only if every non-empty cell parses as a number.
func ParseCSV(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, c := range header {
		columns[i] = strings.TrimSpace(c)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	numeric := make([]bool, len(columns))
	for i := range numeric {
		numeric[i] = true
	}
	for _, rec := range records {
		for i := range columns {
			if i >= len(rec) {
				continue
			}
			v := strings.TrimSpace(rec[i])
			if v == "" {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric[i] = false
			}
		}
	}

	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if i >= len(rec) {
				row[col] = nil
				continue
			}
			v := strings.TrimSpace(rec[i])
			if v == "" {
				row[col] = nil
				continue
			}
			if numeric[i] {
				f, _ := strconv.ParseFloat(v, 64)
				row[col] = f
			} else {
				row[col] = v
			}
		}
		rows = append(rows, row)
	}

	types := make(map[string]string, len(columns))
	for i, col := range columns {
		if numeric[i] {
			types[col] = "number"
		} else {
			types[col] = "string"
		}
	}
	return &Result{Rows: rows, Columns: columns, ColumnTypes: types}, nil
}

// ParseJSON reads a JSON array of flat objects. Columns are reported in
// sorted order; a column is numeric only if every present value is.
func ParseJSON(r io.Reader) (*Result, error) {
	var rows []map[string]any
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	var columns []string
	seen := make(map[string]bool)
	numeric := make(map[string]bool)
	for _, row := range rows {
		for col, v := range row {
			if !seen[col] {
				seen[col] = true
				numeric[col] = true
				columns = append(columns, col)
			}
			if v == nil {
				continue
			}
			if _, ok := v.(float64); !ok {
				numeric[col] = false
			}
		}
	}
	sort.Strings(columns)

	types := make(map[string]string, len(columns))
	for _, col := range columns {
		if numeric[col] {
			types[col] = "number"
		} else {
			types[col] = "string"
		}
	}
	return &Result{Rows: rows, Columns: columns, ColumnTypes: types}, nil
}
