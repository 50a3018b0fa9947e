package store

import (
	"context"

	"github.com/google/uuid"
)

// AvatarStore persists one PNG image per user.
type AvatarStore interface {
	// PutAvatar stores image as the user's avatar, replacing any previous one.
	PutAvatar(ctx context.Context, userID uuid.UUID, image []byte) error

	// GetAvatar returns the user's avatar. Returns ErrAvatarNotFound when the
	// user has none or does not exist.
	GetAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error)

	// DeleteAvatar removes the user's avatar. Removing a missing avatar is not an error.
	DeleteAvatar(ctx context.Context, userID uuid.UUID) error
}
