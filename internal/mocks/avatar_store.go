package mocks

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/store"
)

// MockAvatarStore is an in-memory store.AvatarStore.
type MockAvatarStore struct {
	// PutErr, when set, is returned by PutAvatar.
	PutErr error
	// DeleteErr, when set, is returned by DeleteAvatar.
	DeleteErr error

	mu      sync.Mutex
	avatars map[uuid.UUID][]byte
}

var _ store.AvatarStore = (*MockAvatarStore)(nil)

// NewMockAvatarStore creates an empty in-memory avatar store.
func NewMockAvatarStore() *MockAvatarStore {
	return &MockAvatarStore{avatars: make(map[uuid.UUID][]byte)}
}

// PutAvatar implements the AvatarStore interface
func (m *MockAvatarStore) PutAvatar(_ context.Context, userID uuid.UUID, image []byte) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.avatars[userID] = bytes.Clone(image)
	return nil
}

// GetAvatar implements the AvatarStore interface
func (m *MockAvatarStore) GetAvatar(_ context.Context, userID uuid.UUID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	image, ok := m.avatars[userID]
	if !ok {
		return nil, store.ErrAvatarNotFound
	}
	return bytes.Clone(image), nil
}

// DeleteAvatar implements the AvatarStore interface
func (m *MockAvatarStore) DeleteAvatar(_ context.Context, userID uuid.UUID) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.avatars, userID)
	return nil
}
