package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService defines operations for signing and verifying session tokens.
// A valid signature alone does not make a session active; callers must also
// check that the token is still in the user's token set.
type JWTService interface {
	// GenerateToken creates a signed session token for the user.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken verifies the signature and time claims of tokenString and
	// returns its claims. Returns ErrExpiredToken or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the decoded contents of a session token.
type Claims struct {
	// UserID is the unique identifier of the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	Subject  string    `json:"sub,omitempty"`
	IssuedAt time.Time `json:"iat,omitempty"`
	// ExpiresAt is zero for tokens issued without a lifetime.
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
