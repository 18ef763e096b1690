package inmemory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/andymarkow/fueltracker/internal/recordstore"
)

var (
	_ recordstore.Store = (*Storage)(nil)
	_ recordstore.Table = (*Sheet)(nil)
)

type Sheet struct {
	name    string
	headers []string
	rows    [][]any
	mu      sync.Mutex
}

type Storage struct {
	name   string
	sheets map[string]*Sheet
	mu     sync.Mutex
}

// NewStorage returns a workbook holding every worksheet of recordstore.Schema.
func NewStorage(name string) *Storage {
	s := &Storage{
		name:   name,
		sheets: make(map[string]*Sheet),
	}

	for _, sheet := range recordstore.SheetNames() {
		headers, _ := recordstore.Headers(sheet)
		s.sheets[sheet] = &Sheet{name: sheet, headers: headers}
	}

	return s
}

func (s *Storage) Name() string {
	return s.name
}

func (s *Storage) Close() error {
	return nil
}

func (s *Storage) Ping(_ context.Context) error {
	return nil
}

func (s *Storage) Worksheet(_ context.Context, name string) (recordstore.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, ok := s.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", recordstore.ErrWorksheetNotFound, name)
	}

	return sheet, nil
}

// AddWorksheet creates or replaces a worksheet with the given header row.
func (s *Storage) AddWorksheet(name string, headers []string) *Sheet {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet := &Sheet{name: name, headers: slices.Clone(headers)}
	s.sheets[name] = sheet

	return sheet
}

func (t *Sheet) Name() string {
	return t.name
}

func (t *Sheet) Headers() []string {
	return slices.Clone(t.headers)
}

func (t *Sheet) GetAllRecords(_ context.Context) ([]recordstore.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	records := make([]recordstore.Record, 0, len(t.rows))
	for _, row := range t.rows {
		records = append(records, recordstore.RecordFromRow(t.headers, row))
	}

	return records, nil
}

func (t *Sheet) AppendRow(_ context.Context, row []any) error {
	if len(row) != len(t.headers) {
		return fmt.Errorf("%w: %s has %d columns, got %d",
			recordstore.ErrRowWidth, t.name, len(t.headers), len(row))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = append(t.rows, recordstore.NormalizeRow(row))

	return nil
}

// AppendRaw stores row values as given, without width checks or normalisation. It lets
// tests seed partially filled or malformed rows the way a hand-edited sheet would hold them.
func (t *Sheet) AppendRaw(row ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = append(t.rows, slices.Clone(row))
}
