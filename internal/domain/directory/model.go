package directory

import (
	"errors"
	"strings"

	"reportconsole/internal/domain/account"
)

// MaxNameLength bounds first, last and department names.
const MaxNameLength = 100

// Domain errors
var (
	ErrEmptyFirstName  = errors.New("first name cannot be empty")
	ErrEmptyLastName   = errors.New("last name cannot be empty")
	ErrEmptyEmail      = errors.New("email cannot be empty")
	ErrInvalidEmail    = errors.New("email must contain '@'")
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrEmptyDepartment = errors.New("department is required")
	ErrEmptyName       = errors.New("department name cannot be empty")
	ErrNameTooLong     = errors.New("name cannot exceed 100 characters")
)

// User is a console user as listed by the backend.
type User struct {
	ID         int    `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

// FullName returns "First Last".
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// MatchesName reports whether the full name contains query, ignoring case.
// An empty query matches every user.
func (u User) MatchesName(query string) bool {
	return strings.Contains(strings.ToLower(u.FullName()), strings.ToLower(strings.TrimSpace(query)))
}

// DepartmentLabel returns the department or "N/A" when the backend has none.
func (u User) DepartmentLabel() string {
	if u.Department == "" {
		return "N/A"
	}
	return u.Department
}

// NewUser carries the admin registration form.
type NewUser struct {
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Email        string       `json:"email"`
	Password     string       `json:"password"`
	DepartmentID string       `json:"department_id"`
	Role         account.Role `json:"role"`
}

// Normalize trims fields and applies the default role.
// POST: Role is department_user when left empty
func (n *NewUser) Normalize() {
	n.FirstName = strings.TrimSpace(n.FirstName)
	n.LastName = strings.TrimSpace(n.LastName)
	n.Email = strings.TrimSpace(n.Email)
	n.DepartmentID = strings.TrimSpace(n.DepartmentID)
	if n.Role == "" {
		n.Role = account.RoleDepartmentUser
	}
}

// Validate checks the registration form.
// PRE: Normalize has been called
// POST: Returns nil if valid, error otherwise
func (n NewUser) Validate() error {
	if n.FirstName == "" {
		return ErrEmptyFirstName
	}
	if n.LastName == "" {
		return ErrEmptyLastName
	}
	if len(n.FirstName) > MaxNameLength || len(n.LastName) > MaxNameLength {
		return ErrNameTooLong
	}
	if n.Email == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(n.Email, "@") {
		return ErrInvalidEmail
	}
	if n.Password == "" {
		return ErrEmptyPassword
	}
	if n.DepartmentID == "" {
		return ErrEmptyDepartment
	}
	if !n.Role.Valid() {
		return account.ErrInvalidRole
	}
	return nil
}

// Department is an organisational unit that submits service counts.
type Department struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MatchesName reports whether the department name contains query, ignoring case.
func (d Department) MatchesName(query string) bool {
	return strings.Contains(strings.ToLower(d.Name), strings.ToLower(strings.TrimSpace(query)))
}

// NewDepartment carries the department creation form.
type NewDepartment struct {
	Name string `json:"name"`
}

// Validate checks the department form.
// PRE: none
// POST: Returns nil if valid, error otherwise
func (n NewDepartment) Validate() error {
	name := strings.TrimSpace(n.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// Profile is the signed-in user's own record.
type Profile struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

// ProfileUpdate carries the profile form. An empty Password leaves it unchanged.
type ProfileUpdate struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Validate checks the profile form.
// PRE: none
// POST: Returns nil if valid, error otherwise
func (p ProfileUpdate) Validate() error {
	if strings.TrimSpace(p.FirstName) == "" {
		return ErrEmptyFirstName
	}
	if strings.TrimSpace(p.LastName) == "" {
		return ErrEmptyLastName
	}
	if strings.TrimSpace(p.Email) == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(p.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// Form pre-fills a profile update from the current profile, leaving the password blank.
func (p Profile) Form() ProfileUpdate {
	return ProfileUpdate{FirstName: p.FirstName, LastName: p.LastName, Email: p.Email}
}
