package session

import (
	"testing"

	"github.com/andymarkow/fueltracker/internal/domain/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testUsers = []users.User{
	{Username: "admin", Password: "secret", Role: users.RoleOwner},
	{Username: "mgr1", Password: "pw1", Role: users.RoleManager, StationID: "ST1"},
	{Username: "Admin", Password: "other", Role: users.RoleManager, StationID: "ST9"},
}

func TestAuthenticate(t *testing.T) {
	u, err := Authenticate("Admin", " secret ", testUsers)
	require.NoError(t, err)
	assert.Equal(t, testUsers[0], u)

	u, err = Authenticate(" MGR1 ", "pw1", testUsers)
	require.NoError(t, err)
	assert.Equal(t, "ST1", u.StationID)
}

func TestAuthenticate_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "wrong password", username: "admin", password: "Secret"},
		{name: "unknown user", username: "nobody", password: "secret"},
		{name: "empty", username: "", password: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Authenticate(tt.username, tt.password, testUsers)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestAuthenticate_DuplicateUsernameFirstMatchWins(t *testing.T) {
	u, err := Authenticate("admin", "other", testUsers)
	require.NoError(t, err)
	assert.Equal(t, "ST9", u.StationID)
}

func TestAuthenticate_Bcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	list := []users.User{{Username: "owner", Password: string(hash), Role: users.RoleOwner}}

	_, err = Authenticate("owner", "hunter2", list)
	require.NoError(t, err)

	_, err = Authenticate("owner", string(hash), list)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestDispatch(t *testing.T) {
	v, err := Dispatch(users.User{Username: "m", Role: "Manager", StationID: "ST1"})
	require.NoError(t, err)
	assert.Equal(t, View{Kind: ViewManager, StationID: "ST1"}, v)
	assert.Equal(t, "manager", v.Kind.String())

	v, err = Dispatch(users.User{Username: "o", Role: "owner", StationID: "ST1"})
	require.NoError(t, err)
	assert.Equal(t, View{Kind: ViewOwner}, v)

	_, err = Dispatch(users.User{Username: "m", Role: "manager"})
	assert.ErrorIs(t, err, ErrStationMissing)

	_, err = Dispatch(users.User{Username: "x", Role: "auditor"})
	assert.ErrorIs(t, err, ErrUnknownRole)

	_, err = Dispatch(users.User{Username: "x"})
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestSession_StateMachine(t *testing.T) {
	s := New()
	assert.Equal(t, StateLoggedOut, s.State())

	_, err := s.View()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.ErrorIs(t, s.Logout(), ErrNotLoggedIn)

	require.NoError(t, s.Login(testUsers[1]))
	assert.Equal(t, StateLoggedIn, s.State())
	assert.Equal(t, "logged_in", s.State().String())

	v, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, ViewManager, v.Kind)

	assert.ErrorIs(t, s.Login(testUsers[0]), ErrAlreadyLoggedIn)

	require.NoError(t, s.Logout())
	assert.Equal(t, StateLoggedOut, s.State())

	_, err = s.User()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSession_LoginUnknownRoleStaysLoggedOut(t *testing.T) {
	s := New()

	err := s.Login(users.User{Username: "x", Role: "auditor"})
	assert.ErrorIs(t, err, ErrUnknownRole)
	assert.Equal(t, StateLoggedOut, s.State())
}
