package account

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength = 254
)

// Role is the role claim the backend returns at login.
type Role string

// Role constants
const (
	RoleAdmin          Role = "admin"
	RoleHeadOfPlanning Role = "head_of_planning"
	RoleDepartmentUser Role = "department_user"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleAdmin, RoleHeadOfPlanning, RoleDepartmentUser}

// Domain errors
var (
	ErrInvalidEmail  = errors.New("email must contain '@'")
	ErrEmptyEmail    = errors.New("email cannot be empty")
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrInvalidRole   = errors.New("role must be one of: admin, head_of_planning, department_user")
)

// Credentials carries the login form input.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the credentials before they are sent to the backend.
// PRE: Credentials struct is populated
// POST: Returns nil if valid, error otherwise
func (c Credentials) Validate() error {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return ErrEmptyEmail
	}
	if len(email) > MaxEmailLength {
		return errors.New("email cannot exceed 254 characters")
	}
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	if c.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// Session is the authenticated identity held for one console session.
// Token is the backend access token; it is opaque to the console.
type Session struct {
	Token      string
	Role       Role
	Department string
	UserID     string
	Email      string
	CreatedAt  time.Time
}

// Valid reports whether the session carries a token.
// Expiry is not tracked locally: it is discovered when the backend answers 401.
// INVARIANT: Session fields are not mutated
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// Clear wipes every session field.
// POST: Valid() returns false
func (s *Session) Clear() {
	*s = Session{}
}

// IsAdmin returns true if the session has the admin role.
// INVARIANT: Session fields are not mutated
func (s *Session) IsAdmin() bool {
	return s.Valid() && s.Role == RoleAdmin
}

// ParseRole converts a raw role claim to a Role.
// PRE: none
// POST: Returns ErrInvalidRole for anything outside ValidRoles
func ParseRole(raw string) (Role, error) {
	r := Role(strings.TrimSpace(raw))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether r is one of ValidRoles.
func (r Role) Valid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable role name.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleHeadOfPlanning:
		return "Head of Planning"
	case RoleDepartmentUser:
		return "Department User"
	}
	return string(r)
}
