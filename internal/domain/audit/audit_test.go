package audit_test

import (
	"testing"

	"reportconsole/internal/domain/audit"
)

// TestNewEvent verifies defaults and builder methods.
func TestNewEvent(t *testing.T) {
	e := audit.NewEvent("7", "jane@example.com", "admin", audit.CategorySession, audit.ActionLogin).
		WithResource("session", "abc").
		WithDescription("signed in").
		WithRequest("10.0.0.1", "test-agent")

	if e.ID == "" {
		t.Error("expected generated ID")
	}
	if e.Severity != audit.SeverityInfo {
		t.Errorf("Severity = %q, want info", e.Severity)
	}
	if e.ResourceType != "session" || e.ResourceID != "abc" {
		t.Errorf("unexpected resource: %s/%s", e.ResourceType, e.ResourceID)
	}
	if e.IPAddress != "10.0.0.1" || e.UserAgent != "test-agent" || e.Description != "signed in" {
		t.Errorf("unexpected fields: %+v", e)
	}
	if e.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}

	other := audit.NewEvent("", "", "", audit.CategorySession, audit.ActionLogout)
	if other.ID == e.ID {
		t.Error("expected unique IDs")
	}
	if w := other.WithSeverity(audit.SeverityWarning); w.Severity != audit.SeverityWarning || other.Severity != audit.SeverityInfo {
		t.Error("WithSeverity must return a modified copy")
	}
}
