// Package session decides who is using the tracker and which view they get.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andymarkow/fueltracker/internal/domain/users"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownRole        = users.ErrUnknownRole
	ErrStationMissing     = errors.New("manager has no station")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrAlreadyLoggedIn    = errors.New("already logged in")
)

// Authenticate returns the first user whose username matches ignoring case and surrounding
// whitespace and whose password matches after trimming. Stored bcrypt hashes are verified
// with bcrypt, other stored passwords are compared as plain text.
func Authenticate(username, password string, list []users.User) (users.User, error) {
	name := strings.ToLower(strings.TrimSpace(username))
	pass := strings.TrimSpace(password)

	for _, u := range list {
		if strings.ToLower(strings.TrimSpace(u.Username)) != name {
			continue
		}

		if passwordMatches(strings.TrimSpace(u.Password), pass) {
			return u, nil
		}
	}

	return users.User{}, ErrInvalidCredentials
}

func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}

	return stored == given
}

func isBcryptHash(s string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}

	return false
}

type ViewKind int

const (
	ViewManager ViewKind = iota + 1
	ViewOwner
)

func (k ViewKind) String() string {
	switch k {
	case ViewManager:
		return "manager"
	case ViewOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// View is the screen a user is routed to. Managers are scoped to their station.
type View struct {
	Kind      ViewKind
	StationID string
}

// Dispatch routes a user by role. Roles other than manager and owner are rejected.
func Dispatch(u users.User) (View, error) {
	role, err := users.ParseRole(string(u.Role))
	if err != nil {
		return View{}, err //nolint:wrapcheck
	}

	switch role {
	case users.RoleManager:
		if u.StationID == "" {
			return View{}, fmt.Errorf("%w: %s", ErrStationMissing, u.Username)
		}

		return View{Kind: ViewManager, StationID: u.StationID}, nil
	case users.RoleOwner:
		return View{Kind: ViewOwner}, nil
	}

	return View{}, fmt.Errorf("%w: %q", ErrUnknownRole, u.Role)
}

type State int

const (
	StateLoggedOut State = iota
	StateLoggedIn
)

func (s State) String() string {
	if s == StateLoggedIn {
		return "logged_in"
	}

	return "logged_out"
}

// Session is the state of one user interaction: logged out, or logged in as a user with
// the view their role grants.
type Session struct {
	state State
	user  users.User
	view  View
}

// New returns a logged out session.
func New() *Session {
	return &Session{state: StateLoggedOut}
}

// Login moves a logged out session to logged in. The user must dispatch to a view.
func (s *Session) Login(u users.User) error {
	if s.state == StateLoggedIn {
		return ErrAlreadyLoggedIn
	}

	view, err := Dispatch(u)
	if err != nil {
		return err
	}

	s.state = StateLoggedIn
	s.user = u
	s.view = view

	return nil
}

// Logout moves a logged in session back to logged out.
func (s *Session) Logout() error {
	if s.state != StateLoggedIn {
		return ErrNotLoggedIn
	}

	*s = Session{state: StateLoggedOut}

	return nil
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) User() (users.User, error) {
	if s.state != StateLoggedIn {
		return users.User{}, ErrNotLoggedIn
	}

	return s.user, nil
}

func (s *Session) View() (View, error) {
	if s.state != StateLoggedIn {
		return View{}, ErrNotLoggedIn
	}

	return s.view, nil
}
