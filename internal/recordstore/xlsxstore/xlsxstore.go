// Package xlsxstore keeps the record store in a single .xlsx workbook on disk. Every append
// is written back to the file before it returns.
package xlsxstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/andymarkow/fueltracker/internal/logger"
	"github.com/andymarkow/fueltracker/internal/recordstore"
	"github.com/xuri/excelize/v2"
)

var _ recordstore.Store = (*Storage)(nil)

type Storage struct {
	log  *slog.Logger
	path string
	name string
	file *excelize.File
	mu   sync.Mutex
}

type Option func(s *Storage)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		s.log = logger
	}
}

func WithName(name string) Option {
	return func(s *Storage) {
		s.name = name
	}
}

// NewStorage opens the workbook at path, creating it when missing. Worksheets of
// recordstore.Schema that the workbook lacks are added with their header row.
func NewStorage(path string, opts ...Option) (*Storage, error) {
	s := &Storage{
		log:  logger.Nop(),
		path: path,
		name: path,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log = s.log.With(slog.String("module", "xlsxstore"), slog.String("workbook", s.name))

	file, err := excelize.OpenFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: excelize.OpenFile: %w", recordstore.ErrConnection, err)
		}

		s.log.Info("Workbook not found, creating", slog.String("path", path))

		file = excelize.NewFile()
	}

	s.file = file

	created, err := s.ensureSchema()
	if err != nil {
		file.Close() //nolint:errcheck

		return nil, err
	}

	if created {
		if err := s.save(); err != nil {
			file.Close() //nolint:errcheck

			return nil, err
		}
	}

	return s, nil
}

// ensureSchema adds missing worksheets and drops the default empty sheet of a new file.
func (s *Storage) ensureSchema() (bool, error) {
	changed := false

	for _, sheet := range recordstore.SheetNames() {
		idx, err := s.file.GetSheetIndex(sheet)
		if err != nil {
			return false, fmt.Errorf("file.GetSheetIndex: %w", err)
		}

		if idx != -1 {
			continue
		}

		if _, err := s.file.NewSheet(sheet); err != nil {
			return false, fmt.Errorf("file.NewSheet: %w", err)
		}

		headers, _ := recordstore.Headers(sheet)

		if err := s.file.SetSheetRow(sheet, "A1", &headers); err != nil {
			return false, fmt.Errorf("file.SetSheetRow: %w", err)
		}

		s.log.Info("Worksheet created", slog.String("worksheet", sheet))

		changed = true
	}

	if changed && slices.Contains(s.file.GetSheetList(), "Sheet1") {
		if err := s.file.DeleteSheet("Sheet1"); err != nil {
			return false, fmt.Errorf("file.DeleteSheet: %w", err)
		}
	}

	return changed, nil
}

func (s *Storage) save() error {
	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("%w: file.SaveAs: %w", recordstore.ErrConnection, err)
	}

	return nil
}

func (s *Storage) Name() string {
	return s.name
}

func (s *Storage) Close() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("file.Close: %w", err)
	}

	return nil
}

func (s *Storage) Ping(_ context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("%w: os.Stat: %w", recordstore.ErrConnection, err)
	}

	return nil
}

func (s *Storage) Worksheet(_ context.Context, name string) (recordstore.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.file.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("file.GetSheetIndex: %w", err)
	}

	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", recordstore.ErrWorksheetNotFound, name)
	}

	rows, err := s.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("file.GetRows: %w", err)
	}

	var headers []string
	if len(rows) > 0 {
		headers = slices.Clone(rows[0])
	}

	return &Sheet{storage: s, name: name, headers: headers}, nil
}

type Sheet struct {
	storage *Storage
	name    string
	headers []string
}

func (t *Sheet) Name() string {
	return t.name
}

func (t *Sheet) Headers() []string {
	return slices.Clone(t.headers)
}

func (t *Sheet) GetAllRecords(_ context.Context) ([]recordstore.Record, error) {
	t.storage.mu.Lock()
	defer t.storage.mu.Unlock()

	rows, err := t.storage.file.GetRows(t.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("file.GetRows: %w", err)
	}

	if len(rows) < 2 {
		return []recordstore.Record{}, nil
	}

	records := make([]recordstore.Record, 0, len(rows)-1)

	for _, row := range rows[1:] {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}

		records = append(records, recordstore.RecordFromRow(t.headers, cells))
	}

	return records, nil
}

func (t *Sheet) AppendRow(_ context.Context, row []any) error {
	if len(row) != len(t.headers) {
		return fmt.Errorf("%w: %s has %d columns, got %d",
			recordstore.ErrRowWidth, t.name, len(t.headers), len(row))
	}

	t.storage.mu.Lock()
	defer t.storage.mu.Unlock()

	rows, err := t.storage.file.GetRows(t.name)
	if err != nil {
		return fmt.Errorf("file.GetRows: %w", err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("excelize.CoordinatesToCellName: %w", err)
	}

	values := recordstore.NormalizeRow(row)

	if err := t.storage.file.SetSheetRow(t.name, cell, &values); err != nil {
		return fmt.Errorf("file.SetSheetRow: %w", err)
	}

	return t.storage.save()
}
