package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
)

// UserStore defines the interface for user data persistence, including the
// set of active session tokens each user owns.
type UserStore interface {
	// Create saves a new user to the store.
	// It validates the user and hashes the plaintext Password internally.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their (normalized) email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByIDAndToken retrieves a user only if token is currently in that
	// user's token set. Returns ErrUserNotFound otherwise.
	GetByIDAndToken(ctx context.Context, id uuid.UUID, token string) (*domain.User, error)

	// Update modifies an existing user's details.
	// The caller MUST provide a complete user object including HashedPassword.
	// If a new plaintext Password is provided it is hashed and replaces HashedPassword.
	// Returns ErrUserNotFound if the user does not exist.
	// Returns ErrEmailExists if updating to an email that already exists.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user, their tokens and their stored avatar.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// AddToken appends token to the user's token set.
	// Returns ErrUserNotFound if the user does not exist.
	AddToken(ctx context.Context, userID uuid.UUID, token string) error

	// RemoveToken removes a single token. Removing an absent token is not an error.
	RemoveToken(ctx context.Context, userID uuid.UUID, token string) error

	// ClearTokens empties the user's token set.
	ClearTokens(ctx context.Context, userID uuid.UUID) error

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
