package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
)

// TaskSortField names a column tasks can be ordered by.
type TaskSortField string

// Sortable task fields.
const (
	SortByCreatedAt   TaskSortField = "created_at"
	SortByUpdatedAt   TaskSortField = "updated_at"
	SortByDescription TaskSortField = "description"
	SortByCompleted   TaskSortField = "completed"
)

// TaskQuery filters and pages a listing of one owner's tasks.
type TaskQuery struct {
	OwnerID uuid.UUID
	// Completed filters on completion state when non-nil.
	Completed *bool
	// Limit of zero means no limit.
	Limit int
	Skip  int
	// SortField defaults to SortByCreatedAt.
	SortField TaskSortField
	SortDesc  bool
}

// TaskStore defines the interface for task persistence.
// Every read and write that targets a single task is scoped by owner; a task
// belonging to another user behaves exactly like a missing one.
type TaskStore interface {
	// Create saves a new task. The task must carry its OwnerID.
	Create(ctx context.Context, task *domain.Task) error

	// GetByIDForOwner returns the task only when it belongs to ownerID.
	// Returns ErrTaskNotFound otherwise.
	GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)

	// ListByOwner returns the owner's tasks filtered, sorted and paged by query.
	ListByOwner(ctx context.Context, query TaskQuery) ([]*domain.Task, error)

	// Update persists description and completed for a task owned by task.OwnerID
	// and refreshes task.UpdatedAt. Returns ErrTaskNotFound if no such task exists.
	Update(ctx context.Context, task *domain.Task) error

	// DeleteForOwner removes and returns a task owned by ownerID.
	// Returns ErrTaskNotFound if no such task exists.
	DeleteForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)

	// DeleteByOwner removes every task owned by ownerID and returns how many were removed.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
