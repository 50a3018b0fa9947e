package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/store"
)

// TaskService provides task operations scoped to the authenticated owner.
// A task that exists but belongs to someone else yields store.ErrTaskNotFound,
// exactly as a missing task does.
type TaskService interface {
	// Create adds a task owned by ownerID.
	Create(ctx context.Context, ownerID uuid.UUID, description string, completed bool) (*domain.Task, error)

	// Get returns one of the owner's tasks.
	Get(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)

	// List returns the owner's tasks. The owner in query is always replaced by ownerID.
	List(ctx context.Context, ownerID uuid.UUID, query store.TaskQuery) ([]*domain.Task, error)

	// Update applies an already validated patch. An empty patch returns the
	// current task without writing.
	Update(ctx context.Context, ownerID, taskID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)

	// Delete removes one of the owner's tasks and returns it.
	Delete(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)
}

type taskServiceImpl struct {
	tasks  store.TaskStore
	logger *slog.Logger
}

var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a TaskService.
func NewTaskService(tasks store.TaskStore, logger *slog.Logger) (TaskService, error) {
	if tasks == nil {
		return nil, domain.NewValidationError("tasks", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_service")),
	}, nil
}

// Create implements TaskService.
func (s *taskServiceImpl) Create(
	ctx context.Context,
	ownerID uuid.UUID,
	description string,
	completed bool,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(ownerID, description, completed)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, NewServiceError("create_task", "failed to save task", err)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", ownerID.String()))
	return task, nil
}

// Get implements TaskService.
func (s *taskServiceImpl) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByIDForOwner(ctx, taskID, ownerID)
	if err != nil {
		return nil, s.wrap(ctx, "get_task", "failed to load task", err)
	}
	return task, nil
}

// List implements TaskService.
func (s *taskServiceImpl) List(
	ctx context.Context,
	ownerID uuid.UUID,
	query store.TaskQuery,
) ([]*domain.Task, error) {
	query.OwnerID = ownerID
	if query.Limit < 0 || query.Skip < 0 {
		return nil, domain.NewValidationError("limit", "must not be negative", domain.ErrValidation)
	}

	tasks, err := s.tasks.ListByOwner(ctx, query)
	if err != nil {
		return nil, s.wrap(ctx, "list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// Update implements TaskService.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	task, err := s.Get(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return task, nil
	}

	patch.Apply(task)
	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, s.wrap(ctx, "update_task", "failed to update task", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("task updated",
		slog.String("task_id", taskID.String()),
		slog.String("owner_id", ownerID.String()))
	return task, nil
}

// Delete implements TaskService.
func (s *taskServiceImpl) Delete(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.DeleteForOwner(ctx, taskID, ownerID)
	if err != nil {
		return nil, s.wrap(ctx, "delete_task", "failed to delete task", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("owner_id", ownerID.String()))
	return task, nil
}

// wrap passes expected store conditions through unchanged and wraps the rest.
func (s *taskServiceImpl) wrap(ctx context.Context, operation, message string, err error) error {
	if store.IsNotFoundError(err) || errors.Is(err, domain.ErrValidation) {
		return err
	}
	logger.FromContextOrDefault(ctx, s.logger).Error(message,
		slog.String("error", err.Error()),
		slog.String("operation", operation))
	return NewServiceError(operation, message, err)
}
