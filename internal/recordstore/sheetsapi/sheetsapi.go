// Package sheetsapi is a record store backed by a hosted spreadsheet reachable through the
// Google Sheets v4 values REST API. Authentication is a bearer token handed in by the
// credentials provider; token refresh is the provider's job.
package sheetsapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/andymarkow/fueltracker/internal/httpclient"
	"github.com/andymarkow/fueltracker/internal/logger"
	"github.com/andymarkow/fueltracker/internal/recordstore"
	"github.com/go-resty/resty/v2"
)

var (
	_ recordstore.Store = (*Storage)(nil)
	_ recordstore.Table = (*Sheet)(nil)
)

type spreadsheetModel struct {
	Properties struct {
		Title string `json:"title"`
	} `json:"properties"`
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

type valueRangeModel struct {
	Range          string  `json:"range,omitempty"`
	MajorDimension string  `json:"majorDimension,omitempty"`
	Values         [][]any `json:"values"`
}

type errorModel struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type Config struct {
	logger        *slog.Logger
	baseURL       string
	token         string
	timeout       time.Duration
	retryWaitTime time.Duration
	client        *resty.Client
}

type Option func(c *Config)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.baseURL = baseURL
	}
}

func WithAccessToken(token string) Option {
	return func(c *Config) {
		c.token = token
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.timeout = timeout
	}
}

func WithRetryWaitTime(wait time.Duration) Option {
	return func(c *Config) {
		c.retryWaitTime = wait
	}
}

// WithClient replaces the HTTP client built from the other options.
func WithClient(client *resty.Client) Option {
	return func(c *Config) {
		c.client = client
	}
}

type Storage struct {
	log           *slog.Logger
	client        *resty.Client
	spreadsheetID string
}

func NewStorage(spreadsheetID string, opts ...Option) *Storage {
	cfg := &Config{
		logger:        logger.Nop(),
		baseURL:       "https://sheets.googleapis.com",
		timeout:       10 * time.Second,
		retryWaitTime: 1 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	client := cfg.client
	if client == nil {
		client = httpclient.New(
			httpclient.WithBaseURL(cfg.baseURL),
			httpclient.WithTimeout(cfg.timeout),
			httpclient.WithRetryCount(1),
			httpclient.WithRetryWaitTime(cfg.retryWaitTime),
			httpclient.WithRetryMaxWaitTime(2*cfg.retryWaitTime),
		)
	}

	if cfg.token != "" {
		client.SetAuthToken(cfg.token)
	}

	return &Storage{
		log:           cfg.logger.With(slog.String("module", "sheetsapi")),
		client:        client,
		spreadsheetID: spreadsheetID,
	}
}

func (s *Storage) Name() string {
	return s.spreadsheetID
}

func (s *Storage) Close() error {
	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.sheetTitles(ctx)

	return err
}

func (s *Storage) sheetTitles(ctx context.Context) ([]string, error) {
	meta := new(spreadsheetModel)

	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(meta).
		SetError(new(errorModel)).
		SetPathParam("spreadsheetId", s.spreadsheetID).
		SetQueryParam("fields", "properties.title,sheets.properties.title").
		Get("/v4/spreadsheets/{spreadsheetId}")
	if err := s.checkResponse("spreadsheets.get", resp, err); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		titles = append(titles, sh.Properties.Title)
	}

	return titles, nil
}

func (s *Storage) Worksheet(ctx context.Context, name string) (recordstore.Table, error) {
	titles, err := s.sheetTitles(ctx)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(titles, name) {
		return nil, fmt.Errorf("%w: %s", recordstore.ErrWorksheetNotFound, name)
	}

	values, err := s.getValues(ctx, name+"!1:1")
	if err != nil {
		return nil, err
	}

	var headers []string
	if len(values) > 0 {
		for _, v := range values[0] {
			headers = append(headers, recordstore.String(v))
		}
	}

	return &Sheet{storage: s, name: name, headers: headers}, nil
}

func (s *Storage) getValues(ctx context.Context, a1Range string) ([][]any, error) {
	vr := new(valueRangeModel)

	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(vr).
		SetError(new(errorModel)).
		SetPathParams(map[string]string{
			"spreadsheetId": s.spreadsheetID,
			"range":         a1Range,
		}).
		SetQueryParams(map[string]string{
			"majorDimension":       "ROWS",
			"valueRenderOption":    "UNFORMATTED_VALUE",
			"dateTimeRenderOption": "SERIAL_NUMBER",
		}).
		Get("/v4/spreadsheets/{spreadsheetId}/values/{range}")
	if err := s.checkResponse("values.get", resp, err); err != nil {
		return nil, err
	}

	return vr.Values, nil
}

// checkResponse maps transport failures and error statuses onto recordstore errors.
func (s *Storage) checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		s.log.Error(op, slog.Any("error", err))

		return fmt.Errorf("%w: %s: %w", recordstore.ErrConnection, op, err)
	}

	if !resp.IsError() {
		return nil
	}

	msg := resp.Status()
	if apiErr, ok := resp.Error().(*errorModel); ok && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}

	s.log.Error(op, slog.Int("status", resp.StatusCode()), slog.String("message", msg))

	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s: %s", recordstore.ErrWorksheetNotFound, op, msg)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %s: credentials rejected: %s", recordstore.ErrConnection, op, msg)
	case httpclient.IsRetryableStatus(code):
		return fmt.Errorf("%w: %s: %s", recordstore.ErrConnection, op, msg)
	default:
		return errors.New(op + ": " + msg)
	}
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

func (t *Sheet) GetAllRecords(ctx context.Context) ([]recordstore.Record, error) {
	values, err := t.storage.getValues(ctx, t.name)
	if err != nil {
		return nil, err
	}

	if len(values) < 2 {
		return []recordstore.Record{}, nil
	}

	records := make([]recordstore.Record, 0, len(values)-1)
	for _, row := range values[1:] {
		records = append(records, recordstore.RecordFromRow(t.headers, row))
	}

	return records, nil
}

func (t *Sheet) AppendRow(ctx context.Context, row []any) error {
	if len(row) != len(t.headers) {
		return fmt.Errorf("%w: %s has %d columns, got %d",
			recordstore.ErrRowWidth, t.name, len(t.headers), len(row))
	}

	body := valueRangeModel{
		MajorDimension: "ROWS",
		Values:         [][]any{recordstore.NormalizeRow(row)},
	}

	resp, err := t.storage.client.R().
		SetContext(ctx).
		SetBody(body).
		SetError(new(errorModel)).
		SetPathParams(map[string]string{
			"spreadsheetId": t.storage.spreadsheetID,
			"range":         t.name,
		}).
		SetQueryParams(map[string]string{
			"valueInputOption": "RAW",
			"insertDataOption": "INSERT_ROWS",
		}).
		Post("/v4/spreadsheets/{spreadsheetId}/values/{range}:append")

	return t.storage.checkResponse("values.append", resp, err)
}
