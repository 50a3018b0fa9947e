package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/mocks"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTaskService(t *testing.T) (service.TaskService, *mocks.MockTaskStore) {
	t.Helper()
	tasks := mocks.NewMockTaskStore()
	svc, err := service.NewTaskService(tasks, nil)
	require.NoError(t, err)
	return svc, tasks
}

func TestNewTaskService(t *testing.T) {
	_, err := service.NewTaskService(nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTaskService_Ownership(t *testing.T) {
	ctx := context.Background()
	svc, tasks := newTaskService(t)
	alice, bob := uuid.New(), uuid.New()

	task, err := svc.Create(ctx, alice, "  Buy milk ", false)
	require.NoError(t, err)
	assert.Equal(t, alice, task.OwnerID)
	assert.Equal(t, "Buy milk", task.Description)

	t.Run("owner can read", func(t *testing.T) {
		got, err := svc.Get(ctx, alice, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
	})

	t.Run("foreign task looks missing", func(t *testing.T) {
		_, err := svc.Get(ctx, bob, task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		done := true
		_, err = svc.Update(ctx, bob, task.ID, domain.TaskPatch{Completed: &done})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		_, err = svc.Delete(ctx, bob, task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)

		list, err := svc.List(ctx, bob, store.TaskQuery{OwnerID: alice})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("foreign attempts left the task untouched", func(t *testing.T) {
		got, err := svc.Get(ctx, alice, task.ID)
		require.NoError(t, err)
		assert.False(t, got.Completed)
		assert.Zero(t, tasks.UpdateCalls)
	})
}

func TestTaskService_Update(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("applies patch", func(t *testing.T) {
		svc, _ := newTaskService(t)
		task, err := svc.Create(ctx, owner, "Buy milk", false)
		require.NoError(t, err)

		patch, err := domain.ParseTaskPatch([]byte(`{"completed":true,"description":"Buy oat milk"}`))
		require.NoError(t, err)

		updated, err := svc.Update(ctx, owner, task.ID, patch)
		require.NoError(t, err)
		assert.True(t, updated.Completed)
		assert.Equal(t, "Buy oat milk", updated.Description)
	})

	t.Run("empty patch does not write", func(t *testing.T) {
		svc, tasks := newTaskService(t)
		task, err := svc.Create(ctx, owner, "Buy milk", false)
		require.NoError(t, err)

		got, err := svc.Update(ctx, owner, task.ID, domain.TaskPatch{})
		require.NoError(t, err)
		assert.Equal(t, "Buy milk", got.Description)
		assert.Zero(t, tasks.UpdateCalls)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		tasks := &mocks.TestifyMockTaskStore{}
		id := uuid.New()
		existing := &domain.Task{ID: id, OwnerID: owner, Description: "x"}
		tasks.On("GetByIDForOwner", mock.Anything, id, owner).Return(existing, nil)
		tasks.On("Update", mock.Anything, existing).Return(errors.New("connection reset"))

		svc, err := service.NewTaskService(tasks, nil)
		require.NoError(t, err)

		done := true
		_, err = svc.Update(ctx, owner, id, domain.TaskPatch{Completed: &done})
		var svcErr *service.ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "update_task", svcErr.Operation)
		tasks.AssertExpectations(t)
	})
}

func TestTaskService_List(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("owner is forced", func(t *testing.T) {
		tasks := &mocks.TestifyMockTaskStore{}
		tasks.On("ListByOwner", mock.Anything, mock.MatchedBy(func(q store.TaskQuery) bool {
			return q.OwnerID == owner && q.Limit == 5
		})).Return([]*domain.Task{}, nil)

		svc, err := service.NewTaskService(tasks, nil)
		require.NoError(t, err)

		list, err := svc.List(ctx, owner, store.TaskQuery{OwnerID: uuid.New(), Limit: 5})
		require.NoError(t, err)
		assert.NotNil(t, list)
		tasks.AssertExpectations(t)
	})

	t.Run("negative paging", func(t *testing.T) {
		svc, _ := newTaskService(t)
		_, err := svc.List(ctx, owner, store.TaskQuery{Skip: -1})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestTaskService_CreateValidation(t *testing.T) {
	svc, _ := newTaskService(t)
	_, err := svc.Create(context.Background(), uuid.New(), "   ", false)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, tasks := newTaskService(t)
	owner := uuid.New()

	task, err := svc.Create(ctx, owner, "Buy milk", false)
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted.ID)
	assert.Zero(t, tasks.Count(owner))

	_, err = svc.Delete(ctx, owner, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}
