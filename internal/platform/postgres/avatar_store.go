package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/store"
)

// PostgresAvatarStore keeps avatar images in the users.avatar column.
type PostgresAvatarStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAvatarStore creates an AvatarStore backed by the users table.
func NewPostgresAvatarStore(db store.DBTX, logger *slog.Logger) *PostgresAvatarStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAvatarStore{
		db:     db,
		logger: logger.With(slog.String("component", "avatar_store")),
	}
}

var _ store.AvatarStore = (*PostgresAvatarStore)(nil)

// PutAvatar implements store.AvatarStore.PutAvatar
func (s *PostgresAvatarStore) PutAvatar(ctx context.Context, userID uuid.UUID, image []byte) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET avatar = $1 WHERE id = $2`, image, userID)
	if err != nil {
		log.Error("failed to store avatar",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
		return err
	}

	log.Debug("avatar stored",
		slog.String("user_id", userID.String()),
		slog.Int("bytes", len(image)))
	return nil
}

// GetAvatar implements store.AvatarStore.GetAvatar
func (s *PostgresAvatarStore) GetAvatar(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var image []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT avatar FROM users WHERE id = $1`, userID).Scan(&image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAvatarNotFound
		}
		log.Error("failed to load avatar",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if len(image) == 0 {
		return nil, store.ErrAvatarNotFound
	}
	return image, nil
}

// DeleteAvatar implements store.AvatarStore.DeleteAvatar
func (s *PostgresAvatarStore) DeleteAvatar(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `UPDATE users SET avatar = NULL WHERE id = $1`, userID)
	if err != nil {
		log.Error("failed to delete avatar",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}
