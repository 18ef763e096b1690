// Package pgstore keeps each worksheet of the record store in a PostgreSQL table whose columns
// are the worksheet header. Rows are read back in insertion order.
package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"syscall"
	"time"

	"github.com/andymarkow/fueltracker/internal/logger"
	"github.com/andymarkow/fueltracker/internal/recordstore"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	// Postgres driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	_ recordstore.Store = (*Storage)(nil)
	_ recordstore.Table = (*Table)(nil)
)

type Storage struct {
	db        *sql.DB
	log       *slog.Logger
	name      string
	timeout   time.Duration
	retryWait time.Duration
}

type Config struct {
	logger          *slog.Logger
	name            string
	timeout         time.Duration
	retryWait       time.Duration
	maxOpenConns    int
	maxIdleConns    int
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
}

type Option func(s *Config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

func WithName(name string) Option {
	return func(c *Config) {
		c.name = name
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.timeout = timeout
	}
}

func WithRetryWait(wait time.Duration) Option {
	return func(c *Config) {
		c.retryWait = wait
	}
}

func WithMaxOpenConns(conns int) Option {
	return func(c *Config) {
		c.maxOpenConns = conns
	}
}

func WithMaxIdleConns(conns int) Option {
	return func(c *Config) {
		c.maxIdleConns = conns
	}
}

func NewStorage(connStr string, opts ...Option) (*Storage, error) {
	cfg := &Config{
		logger:          logger.Nop(),
		name:            "postgres",
		timeout:         10 * time.Second,
		retryWait:       1 * time.Second,
		maxOpenConns:    10,
		maxIdleConns:    5,
		connMaxIdleTime: 180 * time.Second,
		connMaxLifetime: 3600 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	db.SetMaxOpenConns(cfg.maxOpenConns)
	db.SetMaxIdleConns(cfg.maxIdleConns)
	db.SetConnMaxIdleTime(cfg.connMaxIdleTime)
	db.SetConnMaxLifetime(cfg.connMaxLifetime)

	return &Storage{
		db:        db,
		log:       cfg.logger.With(slog.String("module", "pgstore")),
		name:      cfg.name,
		timeout:   cfg.timeout,
		retryWait: cfg.retryWait,
	}, nil
}

// Bootstrap applies the embedded migrations.
func (s *Storage) Bootstrap(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("fs.Sub: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, s.db, fsys)
	if err != nil {
		return fmt.Errorf("goose.NewProvider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("provider.Up: %w", err)
	}

	for _, r := range results {
		s.log.Info("Migration applied", slog.String("source", r.Source.Path), slog.Duration("duration", r.Duration))
	}

	return nil
}

func (s *Storage) Name() string {
	return s.name
}

func (s *Storage) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("db.Close: %w", err)
	}

	return nil
}

// isRetryableError checks if error is retryable.
func isRetryableError(err error) bool {
	// Connection refused error
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	// Per-attempt timeout
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsConnectionException(pgErr.Code) {
		return true
	}

	var connErr *pgconn.ConnectError

	return errors.As(err, &connErr)
}

// withRetry runs operation under the call timeout and retries it once after retryWait when
// the failure is transient. A failure that survives the retry is an ErrConnection.
func (s *Storage) withRetry(ctx context.Context, operation func(ctx context.Context) error) error {
	const attempts = 2

	var err error

	for i := 0; i < attempts; i++ {
		err = func() error {
			opCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			return operation(opCtx)
		}()
		if err == nil {
			return nil
		}

		if !isRetryableError(err) || ctx.Err() != nil {
			return err
		}

		if i < attempts-1 {
			s.log.Warn("Retrying store call", slog.Any("error", err), slog.Duration("wait", s.retryWait))

			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", recordstore.ErrConnection, ctx.Err())
			case <-time.After(s.retryWait):
			}
		}
	}

	return fmt.Errorf("%w: retry attempts exceeded: %w", recordstore.ErrConnection, err)
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		if err := s.db.PingContext(ctx); err != nil {
			return fmt.Errorf("db.PingContext: %w", err)
		}

		return nil
	})
}

// Worksheet returns the table backing a worksheet of recordstore.Schema.
func (s *Storage) Worksheet(_ context.Context, name string) (recordstore.Table, error) {
	headers, ok := recordstore.Headers(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", recordstore.ErrWorksheetNotFound, name)
	}

	return &Table{storage: s, name: name, headers: headers}, nil
}

type Table struct {
	storage *Storage
	name    string
	headers []string
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Headers() []string {
	out := make([]string, len(t.headers))
	copy(out, t.headers)

	return out
}

func (t *Table) quotedColumns() string {
	cols := make([]string, len(t.headers))
	for i, h := range t.headers {
		cols[i] = pq.QuoteIdentifier(h)
	}

	return strings.Join(cols, ", ")
}

func (t *Table) GetAllRecords(ctx context.Context) ([]recordstore.Record, error) {
	var records []recordstore.Record

	query := `SELECT ` + t.quotedColumns() + ` FROM ` + pq.QuoteIdentifier(t.name) + ` ORDER BY id`

	err := t.storage.withRetry(ctx, func(ctx context.Context) error {
		records = make([]recordstore.Record, 0)

		rows, err := t.storage.db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("db.QueryContext: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			cells := make([]any, len(t.headers))
			dest := make([]any, len(t.headers))

			for i := range cells {
				dest[i] = &cells[i]
			}

			if err := rows.Scan(dest...); err != nil {
				return fmt.Errorf("rows.Scan: %w", err)
			}

			records = append(records, recordstore.RecordFromRow(t.headers, cells))
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows.Err: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (t *Table) AppendRow(ctx context.Context, row []any) error {
	if len(row) != len(t.headers) {
		return fmt.Errorf("%w: %s has %d columns, got %d",
			recordstore.ErrRowWidth, t.name, len(t.headers), len(row))
	}

	placeholders := make([]string, len(row))
	for i := range row {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := `INSERT INTO ` + pq.QuoteIdentifier(t.name) + ` (` + t.quotedColumns() + `) VALUES (` +
		strings.Join(placeholders, ", ") + `)`

	values := recordstore.NormalizeRow(row)

	return t.storage.withRetry(ctx, func(ctx context.Context) error {
		if _, err := t.storage.db.ExecContext(ctx, query, values...); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgerrcode.IsDataException(pgErr.Code) {
				return fmt.Errorf("%w: %s", recordstore.ErrInvalidCell, pgErr.Message)
			}

			return fmt.Errorf("db.ExecContext: %w", err)
		}

		return nil
	})
}
