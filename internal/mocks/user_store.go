package mocks

import (
	"context"
	"database/sql"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// MockUserStore is an in-memory store.UserStore. It hashes passwords with the
// minimum bcrypt cost and keeps a token set per user.
type MockUserStore struct {
	// Function fields for customizable behavior
	CreateFn   func(ctx context.Context, user *domain.User) error
	GetByIDFn  func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateFn   func(ctx context.Context, user *domain.User) error
	DeleteFn   func(ctx context.Context, id uuid.UUID) error
	AddTokenFn func(ctx context.Context, userID uuid.UUID, token string) error

	mu     sync.Mutex
	users  map[uuid.UUID]*domain.User
	tokens map[uuid.UUID][]string
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store with initialized defaults
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users:  make(map[uuid.UUID]*domain.User),
		tokens: make(map[uuid.UUID][]string),
	}
}

// Create implements the UserStore interface
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}

	user.Normalize()
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(user.Email, user.ID) {
		return store.ErrEmailExists
	}
	if err := hashInto(user); err != nil {
		return err
	}

	m.users[user.ID] = copyUser(user)
	return nil
}

// GetByID implements the UserStore interface
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return copyUser(user), nil
}

// GetByEmail implements the UserStore interface
func (m *MockUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, store.ErrUserNotFound
}

// GetByIDAndToken implements the UserStore interface
func (m *MockUserStore) GetByIDAndToken(_ context.Context, id uuid.UUID, token string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok || !slices.Contains(m.tokens[id], token) {
		return nil, store.ErrUserNotFound
	}
	return copyUser(user), nil
}

// Update implements the UserStore interface
func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}

	user.Normalize()
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	if m.emailTaken(user.Email, user.ID) {
		return store.ErrEmailExists
	}
	if user.Password != "" {
		if err := hashInto(user); err != nil {
			return err
		}
	}

	user.UpdatedAt = time.Now().UTC()
	m.users[user.ID] = copyUser(user)
	return nil
}

// Delete implements the UserStore interface
func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(m.users, id)
	delete(m.tokens, id)
	return nil
}

// AddToken implements the UserStore interface
func (m *MockUserStore) AddToken(ctx context.Context, userID uuid.UUID, token string) error {
	if m.AddTokenFn != nil {
		return m.AddTokenFn(ctx, userID, token)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return store.ErrUserNotFound
	}
	m.tokens[userID] = append(m.tokens[userID], token)
	return nil
}

// RemoveToken implements the UserStore interface
func (m *MockUserStore) RemoveToken(_ context.Context, userID uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[userID] = slices.DeleteFunc(m.tokens[userID], func(t string) bool { return t == token })
	return nil
}

// ClearTokens implements the UserStore interface
func (m *MockUserStore) ClearTokens(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, userID)
	return nil
}

// WithTx implements the UserStore interface for transaction support
func (m *MockUserStore) WithTx(*sql.Tx) store.UserStore {
	return m
}

// Tokens returns a copy of the user's current token set.
func (m *MockUserStore) Tokens(userID uuid.UUID) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tokens[userID])
}

// Stored returns the stored copy of a user, including the password hash.
func (m *MockUserStore) Stored(id uuid.UUID) (*domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, false
	}
	return copyUser(user), true
}

func (m *MockUserStore) emailTaken(email string, except uuid.UUID) bool {
	for id, user := range m.users {
		if id != except && user.Email == email {
			return true
		}
	}
	return false
}

func hashInto(user *domain.User) error {
	hash, err := auth.HashPassword(user.Password, bcrypt.MinCost)
	if err != nil {
		return err
	}
	user.HashedPassword = hash
	user.Password = ""
	return nil
}

func copyUser(user *domain.User) *domain.User {
	c := *user
	return &c
}
