package mocks

import (
	"cmp"
	"context"
	"database/sql"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/store"
)

// MockTaskStore is an in-memory store.TaskStore that applies the same owner
// scoping, filtering, ordering and paging as the postgres store.
type MockTaskStore struct {
	// ListFn overrides ListByOwner when set.
	ListFn func(ctx context.Context, query store.TaskQuery) ([]*domain.Task, error)
	// UpdateCalls counts Update invocations.
	UpdateCalls int

	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an empty in-memory task store.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = copyTask(task)
	return nil
}

// GetByIDForOwner implements the TaskStore interface
func (m *MockTaskStore) GetByIDForOwner(_ context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	return copyTask(task), nil
}

// ListByOwner implements the TaskStore interface
func (m *MockTaskStore) ListByOwner(ctx context.Context, query store.TaskQuery) ([]*domain.Task, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, query)
	}

	m.mu.Lock()
	result := make([]*domain.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		if task.OwnerID != query.OwnerID {
			continue
		}
		if query.Completed != nil && task.Completed != *query.Completed {
			continue
		}
		result = append(result, copyTask(task))
	}
	m.mu.Unlock()

	slices.SortFunc(result, func(a, b *domain.Task) int {
		c := compareTasks(a, b, query.SortField)
		if query.SortDesc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	if query.Skip > 0 {
		if query.Skip >= len(result) {
			return []*domain.Task{}, nil
		}
		result = result[query.Skip:]
	}
	if query.Limit > 0 && query.Limit < len(result) {
		result = result[:query.Limit]
	}
	return result, nil
}

// Update implements the TaskStore interface
func (m *MockTaskStore) Update(_ context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++

	existing, ok := m.tasks[task.ID]
	if !ok || existing.OwnerID != task.OwnerID {
		return store.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now().UTC()
	m.tasks[task.ID] = copyTask(task)
	return nil
}

// DeleteForOwner implements the TaskStore interface
func (m *MockTaskStore) DeleteForOwner(_ context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return task, nil
}

// DeleteByOwner implements the TaskStore interface
func (m *MockTaskStore) DeleteByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, task := range m.tasks {
		if task.OwnerID == ownerID {
			delete(m.tasks, id)
			n++
		}
	}
	return n, nil
}

// WithTx implements the TaskStore interface for transaction support
func (m *MockTaskStore) WithTx(*sql.Tx) store.TaskStore {
	return m
}

// Count returns how many tasks ownerID currently has.
func (m *MockTaskStore) Count(ownerID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, task := range m.tasks {
		if task.OwnerID == ownerID {
			n++
		}
	}
	return n
}

func compareTasks(a, b *domain.Task, field store.TaskSortField) int {
	switch field {
	case store.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case store.SortByDescription:
		return strings.Compare(a.Description, b.Description)
	case store.SortByCompleted:
		return cmp.Compare(boolRank(a.Completed), boolRank(b.Completed))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func copyTask(task *domain.Task) *domain.Task {
	c := *task
	return &c
}
