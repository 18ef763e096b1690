package auth

import (
	"fmt"
	"time"

	"github.com/andymarkow/fueltracker/internal/session"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	ClaimRole      = "role"
	ClaimStationID = "station_id"
)

type JWTAuth struct {
	secret   []byte
	issuer   string
	tokenTTL time.Duration
	now      func() time.Time
}

type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	StationID string `json:"station_id,omitempty"`
}

func NewJWTAuth(secret []byte, opts ...Option) *JWTAuth {
	a := &JWTAuth{
		secret:   secret,
		tokenTTL: 12 * time.Hour,
		issuer:   "fueltracker",
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

type Option func(a *JWTAuth)

func WithIssuer(issuer string) Option {
	return func(a *JWTAuth) {
		a.issuer = issuer
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(a *JWTAuth) {
		a.tokenTTL = ttl
	}
}

// Token is a signed session token and the facts it carries.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// CreateJWTString signs a session token for the user with the view they were dispatched to.
func (a *JWTAuth) CreateJWTString(sub string, view session.View) (Token, error) {
	now := a.now()
	expiresAt := now.Add(a.tokenTTL)
	id := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    a.issuer,
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role:      view.Kind.String(),
		StationID: view.StationID,
	})

	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return Token{}, fmt.Errorf("token.SignedString: %w", err)
	}

	return Token{Value: tokenString, ID: id, ExpiresAt: expiresAt}, nil
}

// ViewFromClaims rebuilds the view a token was issued for.
func ViewFromClaims(claims map[string]any) (session.View, error) {
	role, _ := claims[ClaimRole].(string)
	station, _ := claims[ClaimStationID].(string)

	switch role {
	case session.ViewManager.String():
		if station == "" {
			return session.View{}, session.ErrStationMissing
		}

		return session.View{Kind: session.ViewManager, StationID: station}, nil
	case session.ViewOwner.String():
		return session.View{Kind: session.ViewOwner}, nil
	default:
		return session.View{}, fmt.Errorf("%w: %q", session.ErrUnknownRole, role)
	}
}
