package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/mocks"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-that-is-long-enough-for-testing"

func newJWT(t *testing.T) auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testJWTSecret})
	require.NoError(t, err)
	return svc
}

func createUser(t *testing.T, users *mocks.MockUserStore, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser("Ann", email, "s3cret-pass", 30)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestNewSessionService(t *testing.T) {
	_, err := service.NewSessionService(nil, mocks.NewMockUserStore(), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.NewSessionService(&mocks.MockJWTService{}, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSessionService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	users := mocks.NewMockUserStore()
	sessions, err := service.NewSessionService(newJWT(t), users, nil)
	require.NoError(t, err)

	user := createUser(t, users, "ann@example.com")

	first, err := sessions.Issue(ctx, user.ID)
	require.NoError(t, err)
	second, err := sessions.Issue(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	got, err := sessions.Authenticate(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// Revoking one device leaves the other signed in
	require.NoError(t, sessions.Revoke(ctx, user.ID, second))
	_, err = sessions.Authenticate(ctx, second)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	_, err = sessions.Authenticate(ctx, first)
	assert.NoError(t, err)

	third, err := sessions.Issue(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, sessions.RevokeAll(ctx, user.ID))
	for _, token := range []string{first, third} {
		_, err = sessions.Authenticate(ctx, token)
		assert.ErrorIs(t, err, service.ErrUnauthenticated)
	}
}

func TestSessionService_Authenticate(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("empty token", func(t *testing.T) {
		users := &mocks.TestifyMockUserStore{}
		sessions, err := service.NewSessionService(&mocks.MockJWTService{}, users, nil)
		require.NoError(t, err)

		_, err = sessions.Authenticate(ctx, "")
		assert.ErrorIs(t, err, service.ErrUnauthenticated)
		users.AssertNotCalled(t, "GetByIDAndToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad signature never reaches the store", func(t *testing.T) {
		users := &mocks.TestifyMockUserStore{}
		jwt := &mocks.MockJWTService{ValidateErr: auth.ErrInvalidToken}
		sessions, err := service.NewSessionService(jwt, users, nil)
		require.NoError(t, err)

		_, err = sessions.Authenticate(ctx, "forged")
		assert.ErrorIs(t, err, service.ErrUnauthenticated)
		users.AssertNotCalled(t, "GetByIDAndToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("valid signature for deleted user", func(t *testing.T) {
		users := &mocks.TestifyMockUserStore{}
		users.On("GetByIDAndToken", mock.Anything, userID, "tok").Return(nil, store.ErrUserNotFound)
		jwt := &mocks.MockJWTService{Claims: &auth.Claims{UserID: userID}}
		sessions, err := service.NewSessionService(jwt, users, nil)
		require.NoError(t, err)

		_, err = sessions.Authenticate(ctx, "tok")
		assert.ErrorIs(t, err, service.ErrUnauthenticated)
		users.AssertExpectations(t)
	})

	t.Run("store failure is still unauthenticated", func(t *testing.T) {
		users := &mocks.TestifyMockUserStore{}
		users.On("GetByIDAndToken", mock.Anything, userID, "tok").Return(nil, errors.New("connection reset"))
		jwt := &mocks.MockJWTService{Claims: &auth.Claims{UserID: userID}}
		sessions, err := service.NewSessionService(jwt, users, nil)
		require.NoError(t, err)

		_, err = sessions.Authenticate(ctx, "tok")
		assert.ErrorIs(t, err, service.ErrUnauthenticated)
	})
}

func TestSessionService_IssueFailures(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("signing failure", func(t *testing.T) {
		jwt := &mocks.MockJWTService{Err: errors.New("no key")}
		sessions, err := service.NewSessionService(jwt, &mocks.TestifyMockUserStore{}, nil)
		require.NoError(t, err)

		_, err = sessions.Issue(ctx, userID)
		var svcErr *service.ServiceError
		assert.ErrorAs(t, err, &svcErr)
	})

	t.Run("store failure", func(t *testing.T) {
		users := &mocks.TestifyMockUserStore{}
		users.On("AddToken", mock.Anything, userID, "tok").Return(errors.New("disk full"))
		sessions, err := service.NewSessionService(&mocks.MockJWTService{Token: "tok"}, users, nil)
		require.NoError(t, err)

		token, err := sessions.Issue(ctx, userID)
		assert.Empty(t, token)
		var svcErr *service.ServiceError
		assert.ErrorAs(t, err, &svcErr)
	})
}
