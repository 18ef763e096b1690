// Package recordstore is the tabular datastore the tracker reads and appends report rows to.
//
// A Store is a workbook made of named worksheets. Every worksheet has a header row and the
// remaining rows are records keyed by header. Rows are only ever appended.
package recordstore

import (
	"context"
	"errors"
)

var (
	// ErrConnection is returned when the backend is unreachable or rejects the credentials.
	ErrConnection = errors.New("record store connection failed")

	// ErrWorksheetNotFound is returned for a worksheet that does not exist in the workbook.
	ErrWorksheetNotFound = errors.New("worksheet not found")

	// ErrRowWidth is returned when an appended row does not match the worksheet header.
	ErrRowWidth = errors.New("row width does not match worksheet header")

	// ErrUnknownBackend is returned when selecting an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown record store backend")
)

// Record is one stored row keyed by the worksheet header. Cells missing from the row
// are absent from the map.
type Record map[string]any

type Table interface {
	Name() string
	Headers() []string
	GetAllRecords(ctx context.Context) ([]Record, error)
	AppendRow(ctx context.Context, row []any) error
}

type Store interface {
	Name() string
	Worksheet(ctx context.Context, name string) (Table, error)
	Ping(ctx context.Context) error
	Close() error
}

// RecordFromRow zips header and row values, skipping trailing cells the row does not have
// and cells that are empty strings.
func RecordFromRow(headers []string, row []any) Record {
	rec := make(Record, len(headers))

	for i, h := range headers {
		if i >= len(row) || h == "" {
			continue
		}

		if s, ok := row[i].(string); ok && s == "" {
			continue
		}

		rec[h] = row[i]
	}

	return rec
}
