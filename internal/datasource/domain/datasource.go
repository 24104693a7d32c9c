// Package domain defines the data source entity: a parsed tabular upload
// attached to a dashboard.
package domain

import (
	"encoding/json"
	"time"
)

// Source types.
const (
	TypeCSV  = "csv"
	TypeJSON = "json"
)

// DataSource holds the parsed rows of one upload plus metadata about its
// shape. Data is a JSON array of row objects; Metadata records columns,
// inferred column types, and the row count.
type DataSource struct {
	ID          int64
	DashboardID int64
	Name        string
	Type        string
	FilePath    string
	Data        json.RawMessage
	Metadata    json.RawMessage
	CreatedAt   time.Time
}

// Metadata describes the shape of a parsed upload.
type Metadata struct {
	Columns     []string          `json:"columns"`
	ColumnTypes map[string]string `json:"columnTypes"`
	RowCount    int               `json:"rowCount"`
}
