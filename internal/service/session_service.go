package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
)

// SessionService issues, checks and revokes session tokens.
// A token is an active session only while its signature is valid AND it is
// still present in its user's token set.
type SessionService interface {
	// Issue signs a new token for userID and adds it to the user's token set.
	Issue(ctx context.Context, userID uuid.UUID) (string, error)

	// Authenticate resolves token to its user. Every failure is ErrUnauthenticated.
	Authenticate(ctx context.Context, token string) (*domain.User, error)

	// Revoke removes a single token; other sessions stay active.
	Revoke(ctx context.Context, userID uuid.UUID, token string) error

	// RevokeAll removes every token of the user.
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

type sessionServiceImpl struct {
	tokens auth.JWTService
	users  store.UserStore
	logger *slog.Logger
}

var _ SessionService = (*sessionServiceImpl)(nil)

// NewSessionService creates a SessionService.
func NewSessionService(
	tokens auth.JWTService,
	users store.UserStore,
	logger *slog.Logger,
) (SessionService, error) {
	if tokens == nil {
		return nil, domain.NewValidationError("tokens", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &sessionServiceImpl{
		tokens: tokens,
		users:  users,
		logger: logger.With(slog.String("component", "session_service")),
	}, nil
}

// Issue implements SessionService.
func (s *sessionServiceImpl) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	token, err := s.tokens.GenerateToken(ctx, userID)
	if err != nil {
		return "", NewServiceError("issue_token", "failed to sign token", err)
	}

	if err := s.users.AddToken(ctx, userID, token); err != nil {
		log.Error("failed to store session token",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return "", NewServiceError("issue_token", "failed to store token", err)
	}

	log.Debug("session token issued", slog.String("user_id", userID.String()))
	return token, nil
}

// Authenticate implements SessionService.
func (s *sessionServiceImpl) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if token == "" {
		log.Debug("authentication failed", slog.String("step", "missing_token"))
		return nil, ErrUnauthenticated
	}

	claims, err := s.tokens.ValidateToken(ctx, token)
	if err != nil {
		log.Debug("authentication failed",
			slog.String("step", "validate_token"),
			slog.String("error", err.Error()))
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetByIDAndToken(ctx, claims.UserID, token)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("authentication failed",
				slog.String("step", "lookup_session"),
				slog.String("user_id", claims.UserID.String()))
		} else {
			log.Error("session lookup failed",
				slog.String("error", err.Error()),
				slog.String("user_id", claims.UserID.String()))
		}
		return nil, ErrUnauthenticated
	}

	return user, nil
}

// Revoke implements SessionService.
func (s *sessionServiceImpl) Revoke(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.users.RemoveToken(ctx, userID, token); err != nil {
		return NewServiceError("revoke_token", "failed to remove token", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Debug("session token revoked",
		slog.String("user_id", userID.String()))
	return nil
}

// RevokeAll implements SessionService.
func (s *sessionServiceImpl) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.ClearTokens(ctx, userID); err != nil {
		return NewServiceError("revoke_all_tokens", "failed to clear tokens", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("all session tokens revoked",
		slog.String("user_id", userID.String()))
	return nil
}
