package users

import "context"

// Repo is the credential store. Lookups return errors.ErrNotFound when nothing
// matches, Create returns errors.ErrDuplicateIdentity on a uniqueness
// violation, and unavailability surfaces as errors.ErrTransientStore.
type Repo interface {
	Create(ctx context.Context, user NewUser) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByFederatedID(ctx context.Context, googleID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*User, error)

	// UpdateRefreshToken replaces the mirrored refresh token. An empty value
	// clears the session.
	UpdateRefreshToken(ctx context.Context, id, refreshToken string) (*User, error)
}
