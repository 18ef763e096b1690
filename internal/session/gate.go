package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/andymarkow/fueltracker/internal/domain/users"
	"github.com/andymarkow/fueltracker/internal/logger"
	"github.com/andymarkow/fueltracker/internal/recordstore"
)

// Gate authenticates against the users worksheet of the record store.
type Gate struct {
	store recordstore.Store
	log   *slog.Logger
}

type Option func(g *Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		g.log = logger
	}
}

func NewGate(store recordstore.Store, opts ...Option) *Gate {
	g := &Gate{
		store: store,
		log:   logger.Nop(),
	}

	for _, opt := range opts {
		opt(g)
	}

	g.log = g.log.With(slog.String("module", "session"))

	return g
}

// Users reads every usable row of the users worksheet in stored order.
func (g *Gate) Users(ctx context.Context) ([]users.User, error) {
	table, err := g.store.Worksheet(ctx, recordstore.UsersSheet)
	if err != nil {
		return nil, fmt.Errorf("store.Worksheet: %w", err)
	}

	records, err := table.GetAllRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("table.GetAllRecords: %w", err)
	}

	list := make([]users.User, 0, len(records))
	seen := make(map[string]int, len(records))

	for i, rec := range records {
		u, err := users.FromRecord(rec)
		if err != nil {
			g.log.WarnContext(ctx, "Skipping user row", slog.Int("row", i+2), slog.Any("error", err))

			continue
		}

		key := strings.ToLower(strings.TrimSpace(u.Username))
		if first, ok := seen[key]; ok {
			g.log.WarnContext(ctx, "Duplicate username, first row wins",
				slog.String("username", u.Username), slog.Int("row", i+2), slog.Int("first_row", first))
		} else {
			seen[key] = i + 2
		}

		list = append(list, u)
	}

	return list, nil
}

// Login authenticates the credentials and returns a logged in session.
func (g *Gate) Login(ctx context.Context, username, password string) (*Session, error) {
	list, err := g.Users(ctx)
	if err != nil {
		return nil, err
	}

	u, err := Authenticate(username, password, list)
	if err != nil {
		g.log.InfoContext(ctx, "Login rejected", slog.String("username", strings.TrimSpace(username)))

		return nil, err
	}

	s := New()
	if err := s.Login(u); err != nil {
		g.log.WarnContext(ctx, "Login without a usable role",
			slog.String("username", u.Username), slog.String("role", u.Role.String()), slog.Any("error", err))

		return nil, err
	}

	return s, nil
}
