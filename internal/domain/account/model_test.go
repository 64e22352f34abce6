package account_test

import (
	"testing"

	"reportconsole/internal/domain/account"
)

// TestCredentials_Validate tests validation of login credentials.
func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   account.Credentials
		wantErr error
	}{
		{"valid", account.Credentials{Email: "jane@example.com", Password: "secret"}, nil},
		{"empty email", account.Credentials{Email: "  ", Password: "secret"}, account.ErrEmptyEmail},
		{"missing at", account.Credentials{Email: "jane.example.com", Password: "secret"}, account.ErrInvalidEmail},
		{"empty password", account.Credentials{Email: "jane@example.com"}, account.ErrEmptyPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestParseRole verifies that only the three backend roles are accepted.
func TestParseRole(t *testing.T) {
	for _, raw := range []string{"admin", "head_of_planning", "department_user", " admin "} {
		if _, err := account.ParseRole(raw); err != nil {
			t.Errorf("ParseRole(%q) unexpected error: %v", raw, err)
		}
	}
	for _, raw := range []string{"", "coach", "Admin"} {
		if _, err := account.ParseRole(raw); err != account.ErrInvalidRole {
			t.Errorf("ParseRole(%q) error = %v, want ErrInvalidRole", raw, err)
		}
	}
}

// TestSession_Clear verifies that clearing removes every field and invalidates the session.
func TestSession_Clear(t *testing.T) {
	s := account.Session{Token: "tok", Role: account.RoleAdmin, Department: "Planning", UserID: "7", Email: "a@b.c"}
	s.Clear()
	if s.Valid() {
		t.Error("expected cleared session to be invalid")
	}
	if s.Token != "" || s.Role != "" || s.Department != "" || s.UserID != "" || s.Email != "" {
		t.Errorf("expected all fields cleared, got %+v", s)
	}
	if got := account.Authorize(&s, ""); got != account.RedirectLogin {
		t.Errorf("Authorize after Clear = %v, want RedirectLogin", got)
	}
}

// TestSession_ValidNil verifies a nil session is never valid.
func TestSession_ValidNil(t *testing.T) {
	var s *account.Session
	if s.Valid() {
		t.Error("nil session must not be valid")
	}
	if s.IsAdmin() {
		t.Error("nil session must not be admin")
	}
}
