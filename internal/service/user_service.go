package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/platform/imaging"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
)

// Registration holds the fields accepted when creating an account.
type Registration struct {
	Name     string
	Email    string
	Password string
	Age      int
}

// UserService provides account, session and avatar operations.
type UserService interface {
	// Register creates the account and signs the user in.
	Register(ctx context.Context, reg Registration) (*domain.User, string, error)

	// Login checks the credentials and issues a new session token.
	// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)

	// Logout revokes only the given token.
	Logout(ctx context.Context, userID uuid.UUID, token string) error

	// LogoutAll revokes every token of the user.
	LogoutAll(ctx context.Context, userID uuid.UUID) error

	// Profile returns the user.
	Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateProfile applies an already validated patch.
	UpdateProfile(ctx context.Context, userID uuid.UUID, patch domain.UserPatch) (*domain.User, error)

	// DeleteAccount removes the user and all of their tasks in one transaction
	// and returns the removed user.
	DeleteAccount(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// SetAvatar normalizes the uploaded image and stores it.
	SetAvatar(ctx context.Context, userID uuid.UUID, image []byte) error

	// DeleteAvatar clears the user's avatar.
	DeleteAvatar(ctx context.Context, userID uuid.UUID) error

	// Avatar returns the stored PNG avatar.
	Avatar(ctx context.Context, userID uuid.UUID) ([]byte, error)
}

// ImageTranscoder converts an uploaded image into the stored avatar format.
type ImageTranscoder interface {
	ToPNG(data []byte) ([]byte, error)
}

// UserServiceDeps lists the collaborators of the user service.
type UserServiceDeps struct {
	DB         store.TxBeginner
	Users      store.UserStore
	Tasks      store.TaskStore
	Avatars    store.AvatarStore
	Sessions   SessionService
	Passwords  auth.PasswordVerifier
	Transcoder ImageTranscoder
	// Events may be nil, in which case no events are emitted.
	Events events.EventEmitter
}

type userServiceImpl struct {
	UserServiceDeps
	logger *slog.Logger
}

var _ UserService = (*userServiceImpl)(nil)

// NewUserService creates a UserService. It returns a validation error if a
// required dependency is missing.
func NewUserService(deps UserServiceDeps, logger *slog.Logger) (UserService, error) {
	required := []struct {
		name  string
		isNil bool
	}{
		{"db", deps.DB == nil},
		{"users", deps.Users == nil},
		{"tasks", deps.Tasks == nil},
		{"avatars", deps.Avatars == nil},
		{"sessions", deps.Sessions == nil},
		{"passwords", deps.Passwords == nil},
		{"transcoder", deps.Transcoder == nil},
	}
	for _, r := range required {
		if r.isNil {
			return nil, domain.NewValidationError(r.name, "cannot be nil", domain.ErrValidation)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &userServiceImpl{
		UserServiceDeps: deps,
		logger:          logger.With(slog.String("component", "user_service")),
	}, nil
}

// Register implements UserService.
func (s *userServiceImpl) Register(ctx context.Context, reg Registration) (*domain.User, string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(reg.Name, reg.Email, reg.Password, reg.Age)
	if err != nil {
		return nil, "", err
	}

	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("registration with existing email rejected")
			return nil, "", err
		}
		if errors.Is(err, domain.ErrValidation) {
			return nil, "", err
		}
		log.Error("failed to create user", slog.String("error", err.Error()))
		return nil, "", NewServiceError("register", "failed to create user", err)
	}

	token, err := s.Sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	s.emit(ctx, events.TypeUserRegistered, user)

	return user, token, nil
}

// Login implements UserService.
func (s *userServiceImpl) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login failed", slog.String("reason", "unknown_email"))
			return nil, "", ErrInvalidCredentials
		}
		log.Error("failed to look up user for login", slog.String("error", err.Error()))
		return nil, "", NewServiceError("login", "failed to look up user", err)
	}

	if err := s.Passwords.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login failed",
			slog.String("reason", "password_mismatch"),
			slog.String("user_id", user.ID.String()))
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.Sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Logout implements UserService.
func (s *userServiceImpl) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	return s.Sessions.Revoke(ctx, userID, token)
}

// LogoutAll implements UserService.
func (s *userServiceImpl) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.Sessions.RevokeAll(ctx, userID)
}

// Profile implements UserService.
func (s *userServiceImpl) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewServiceError("profile", "failed to load user", err)
	}
	return user, nil
}

// UpdateProfile implements UserService.
func (s *userServiceImpl) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	patch domain.UserPatch,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return user, nil
	}

	patch.Apply(user)

	if err := s.Users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrEmailExists):
			log.Debug("profile update to existing email rejected",
				slog.String("user_id", userID.String()))
			return nil, err
		case errors.Is(err, domain.ErrValidation), store.IsNotFoundError(err):
			return nil, err
		}
		log.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("update_profile", "failed to update user", err)
	}

	log.Info("user profile updated", slog.String("user_id", userID.String()))
	return user, nil
}

// DeleteAccount implements UserService.
func (s *userServiceImpl) DeleteAccount(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var removedTasks int64
	err = store.RunInTransaction(ctx, s.DB, func(ctx context.Context, tx *sql.Tx) error {
		n, err := s.Tasks.WithTx(tx).DeleteByOwner(ctx, userID)
		if err != nil {
			return err
		}
		removedTasks = n
		return s.Users.WithTx(tx).Delete(ctx, userID)
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		log.Error("failed to delete account",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("delete_account", "failed to delete user and tasks", err)
	}

	if err := s.Avatars.DeleteAvatar(ctx, userID); err != nil {
		log.Warn("failed to remove avatar of deleted user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
	}

	log.Info("account deleted",
		slog.String("user_id", userID.String()),
		slog.Int64("removed_tasks", removedTasks))
	s.emit(ctx, events.TypeUserDeleted, user)

	return user, nil
}

// SetAvatar implements UserService.
func (s *userServiceImpl) SetAvatar(ctx context.Context, userID uuid.UUID, image []byte) error {
	png, err := s.Transcoder.ToPNG(image)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return ErrUnsupportedAvatar
		}
		return NewServiceError("set_avatar", "failed to convert image", err)
	}

	if err := s.Avatars.PutAvatar(ctx, userID, png); err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewServiceError("set_avatar", "failed to store avatar", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("avatar updated",
		slog.String("user_id", userID.String()),
		slog.Int("bytes", len(png)))
	return nil
}

// DeleteAvatar implements UserService.
func (s *userServiceImpl) DeleteAvatar(ctx context.Context, userID uuid.UUID) error {
	if err := s.Avatars.DeleteAvatar(ctx, userID); err != nil {
		return NewServiceError("delete_avatar", "failed to remove avatar", err)
	}
	return nil
}

// Avatar implements UserService.
func (s *userServiceImpl) Avatar(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	image, err := s.Avatars.GetAvatar(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewServiceError("get_avatar", "failed to load avatar", err)
	}
	return image, nil
}

// emit publishes a user event. Delivery failures are logged and never fail
// the operation that triggered them.
func (s *userServiceImpl) emit(ctx context.Context, eventType string, user *domain.User) {
	if s.Events == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewEvent(eventType, events.UserPayload{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	})
	if err != nil {
		log.Error("failed to build event",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType))
		return
	}

	if err := s.Events.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit event",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType),
			slog.String("user_id", user.ID.String()))
	}
}
