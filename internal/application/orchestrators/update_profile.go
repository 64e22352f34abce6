package orchestrators

import (
	"context"
	"strings"

	"reportconsole/internal/domain/directory"
)

// Profile messages.
const (
	MsgProfileUpdated      = "Profile updated successfully!"
	MsgProfileUpdateFailed = "Failed to update profile"
)

// ProfileWriter defines the backend call needed by UpdateProfile.
type ProfileWriter interface {
	UpdateProfile(ctx context.Context, upd directory.ProfileUpdate) (string, error)
}

// ExecuteUpdateProfile saves the signed-in user's profile. An empty password keeps the current one.
// PRE: ctx carries the signed-in session
// POST: Returns the backend's confirmation message
func ExecuteUpdateProfile(ctx context.Context, input directory.ProfileUpdate, profiles ProfileWriter) (string, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.TrimSpace(input.Email)
	if err := input.Validate(); err != nil {
		return "", invalid(err)
	}
	msg, err := profiles.UpdateProfile(ctx, input)
	if err != nil {
		return "", fail(err, MsgProfileUpdateFailed, true)
	}
	if msg == "" {
		msg = MsgProfileUpdated
	}
	return msg, nil
}
