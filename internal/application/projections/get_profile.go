package projections

import (
	"context"
	"errors"
	"log/slog"

	"reportconsole/internal/adapters/backend"
	"reportconsole/internal/domain/directory"
)

// GetProfileResult carries the query result.
type GetProfileResult struct {
	Profile directory.Profile
	Form    directory.ProfileUpdate
	Error   string
}

// QueryGetProfile loads the signed-in user's profile and pre-fills the edit form.
// PRE: ctx carries the signed-in session
// POST: Fetch failures are reported in Error; only ErrUnauthorized is returned
func QueryGetProfile(ctx context.Context, profiles ProfileSource) (GetProfileResult, error) {
	prof, err := profiles.Profile(ctx)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return GetProfileResult{}, err
		}
		slog.Warn("backend_error", "op", "profile.get", "error", err)
		return GetProfileResult{Error: MsgProfileFailed}, nil
	}
	return GetProfileResult{Profile: prof, Form: prof.Form()}, nil
}
