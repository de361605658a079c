package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of principal roles. Unknown strings are rejected
// when decoded, so code past the boundary only ever sees valid values.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleChild   Role = "CHILD"
	RoleParent  Role = "PARENT"
	RoleVendor  Role = "VENDOR"
	RoleFaculty Role = "FACULTY"
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleChild, RoleParent, RoleVendor, RoleFaculty}
}

// IsValid reports whether r is one of the predefined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleChild, RoleParent, RoleVendor, RoleFaculty:
		return true
	default:
		return false
	}
}

// ParseRole accepts any letter case and returns the canonical role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", Validation(fmt.Sprintf("invalid role type %q", s))
	}
	return r, nil
}

// UnmarshalText leaves an empty value unset so callers can apply a default.
func (r *Role) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*r = ""
		return nil
	}
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) String() string { return string(r) }

// Status is the account status of a principal.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", Validation(fmt.Sprintf("invalid status %q", s))
	}
	return st, nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// User is the principal: the subject every request authenticates as.
type User struct {
	ID           uuid.UUID  `json:"uuid"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone_no"`
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	Age          *int       `json:"age,omitempty"`
	ImageURL     string     `json:"img_url,omitempty"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"-"`
}

// IsDeleted reports whether the user was soft-deleted.
func (u *User) IsDeleted() bool { return u.DeletedAt != nil }

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
