package auth

import (
	"testing"
	"time"

	"github.com/andymarkow/fueltracker/internal/session"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateJWTString(t *testing.T) {
	now := time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC)

	a := NewJWTAuth([]byte("secret"), WithTokenTTL(time.Hour), WithIssuer("test"))
	a.now = func() time.Time { return now }

	tok, err := a.CreateJWTString("alice", session.View{Kind: session.ViewManager, StationID: "ST1"})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), tok.ExpiresAt)
	assert.NotEmpty(t, tok.ID)

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tok.Value, claims, func(*jwt.Token) (any, error) {
		return []byte("secret"), nil
	}, jwt.WithoutClaimsValidation())
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "test", claims.Issuer)
	assert.Equal(t, tok.ID, claims.ID)
	assert.Equal(t, "manager", claims.Role)
	assert.Equal(t, "ST1", claims.StationID)
}

func TestCreateJWTString_UniqueIDs(t *testing.T) {
	a := NewJWTAuth([]byte("secret"))

	first, err := a.CreateJWTString("owner", session.View{Kind: session.ViewOwner})
	require.NoError(t, err)

	second, err := a.CreateJWTString("owner", session.View{Kind: session.ViewOwner})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestViewFromClaims(t *testing.T) {
	v, err := ViewFromClaims(map[string]any{ClaimRole: "manager", ClaimStationID: "ST1"})
	require.NoError(t, err)
	assert.Equal(t, session.View{Kind: session.ViewManager, StationID: "ST1"}, v)

	v, err = ViewFromClaims(map[string]any{ClaimRole: "owner"})
	require.NoError(t, err)
	assert.Equal(t, session.ViewOwner, v.Kind)

	_, err = ViewFromClaims(map[string]any{ClaimRole: "manager"})
	assert.ErrorIs(t, err, session.ErrStationMissing)

	_, err = ViewFromClaims(map[string]any{})
	assert.ErrorIs(t, err, session.ErrUnknownRole)
}
