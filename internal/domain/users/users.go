package users

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andymarkow/fueltracker/internal/recordstore"
)

var (
	ErrUsernameEmpty = errors.New("username is empty")
	ErrPasswordEmpty = errors.New("password is empty")
	ErrUnknownRole   = errors.New("unknown role")
)

// Role is the raw role value stored in the users worksheet. Only RoleManager and RoleOwner
// are recognised; ParseRole rejects the rest.
type Role string

const (
	RoleManager Role = "manager"
	RoleOwner   Role = "owner"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleManager, RoleOwner:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) String() string {
	return string(r)
}

// User is a row of the users worksheet. Users are maintained directly in the store and are
// read-only here.
type User struct {
	Username  string
	Password  string
	Role      Role
	StationID string
}

// FromRecord reads a user from a users worksheet record. Numeric cells are rendered as text,
// since a password or station typed as digits comes back as a number. The role is kept as
// stored; it is only interpreted on dispatch. Rows without a password are rejected so that a
// blank cell never matches an empty login.
func FromRecord(rec recordstore.Record) (User, error) {
	usr := User{
		Username:  recordstore.String(rec["username"]),
		Password:  recordstore.String(rec["password"]),
		Role:      Role(recordstore.String(rec["role"])),
		StationID: strings.TrimSpace(recordstore.String(rec["station_id"])),
	}

	if err := ValidateUsername(usr.Username); err != nil {
		return User{}, err
	}

	if strings.TrimSpace(usr.Password) == "" {
		return User{}, fmt.Errorf("%w: user %q", ErrPasswordEmpty, strings.TrimSpace(usr.Username))
	}

	return usr, nil
}

func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrUsernameEmpty
	}

	return nil
}
