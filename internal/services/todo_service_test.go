package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Sonukamble/TodoApp/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockTodoRepository is an in-memory implementation of TodoRepository
type mockTodoRepository struct {
	todos  map[int]*models.Todo
	nextID int
	err    error
}

func newMockTodoRepository(todos ...models.Todo) *mockTodoRepository {
	m := &mockTodoRepository{todos: make(map[int]*models.Todo), nextID: 1}
	for i := range todos {
		todo := todos[i]
		m.todos[todo.ID] = &todo
		if todo.ID >= m.nextID {
			m.nextID = todo.ID + 1
		}
	}
	return m
}

func (m *mockTodoRepository) owned(id, ownerID int) (*models.Todo, error) {
	todo, ok := m.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	return todo, nil
}

func (m *mockTodoRepository) ListByOwner(ctx context.Context, ownerID int) ([]models.Todo, error) {
	if m.err != nil {
		return nil, m.err
	}
	todos := make([]models.Todo, 0)
	for id := 1; id < m.nextID; id++ {
		if todo, ok := m.todos[id]; ok && todo.OwnerID == ownerID {
			todos = append(todos, *todo)
		}
	}
	return todos, nil
}

func (m *mockTodoRepository) GetByID(ctx context.Context, id, ownerID int) (*models.Todo, error) {
	if m.err != nil {
		return nil, m.err
	}
	todo, err := m.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	copied := *todo
	return &copied, nil
}

func (m *mockTodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	if m.err != nil {
		return m.err
	}
	todo.ID = m.nextID
	m.nextID++
	stored := *todo
	m.todos[todo.ID] = &stored
	return nil
}

func (m *mockTodoRepository) Update(ctx context.Context, todo *models.Todo) error {
	if m.err != nil {
		return m.err
	}
	current, err := m.owned(todo.ID, todo.OwnerID)
	if err != nil {
		return err
	}
	current.Title = todo.Title
	current.Description = todo.Description
	current.Priority = todo.Priority
	return nil
}

func (m *mockTodoRepository) Delete(ctx context.Context, id, ownerID int) error {
	if m.err != nil {
		return m.err
	}
	if _, err := m.owned(id, ownerID); err != nil {
		return err
	}
	delete(m.todos, id)
	return nil
}

func (m *mockTodoRepository) ToggleComplete(ctx context.Context, id, ownerID int) (*models.Todo, error) {
	if m.err != nil {
		return nil, m.err
	}
	current, err := m.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	current.Complete = !current.Complete
	copied := *current
	return &copied, nil
}

const (
	aliceID = 1
	bobID   = 2
)

func TestNewTodoService(t *testing.T) {
	logger := zap.NewNop()
	repo := newMockTodoRepository()

	svc := NewTodoService(repo, logger)

	assert.NotNil(t, svc)
	assert.Equal(t, repo, svc.repo)
	assert.Equal(t, logger, svc.logger)
}

func TestTodoService_Create(t *testing.T) {
	tests := []struct {
		name          string
		input         models.TodoInput
		repoErr       error
		expectedError error
		expectedField string
	}{
		{
			name:  "success",
			input: models.TodoInput{Title: "Buy milk", Description: "2%", Priority: 3},
		},
		{
			name:  "trims title and description",
			input: models.TodoInput{Title: "  Buy milk ", Description: " 2% ", Priority: 3},
		},
		{
			name:          "empty title",
			input:         models.TodoInput{Title: "  ", Priority: 3},
			expectedError: models.ErrValidationFailed,
			expectedField: "title",
		},
		{
			name:          "title too long",
			input:         models.TodoInput{Title: strings.Repeat("t", 201), Priority: 3},
			expectedError: models.ErrValidationFailed,
			expectedField: "title",
		},
		{
			name:          "multibyte title too long",
			input:         models.TodoInput{Title: strings.Repeat("牛", 201), Priority: 3},
			expectedError: models.ErrValidationFailed,
			expectedField: "title",
		},
		{
			name:          "description too long",
			input:         models.TodoInput{Title: "Buy milk", Description: strings.Repeat("d", 1001), Priority: 3},
			expectedError: models.ErrValidationFailed,
			expectedField: "description",
		},
		{
			name:          "priority below range",
			input:         models.TodoInput{Title: "Buy milk", Priority: 0},
			expectedError: models.ErrValidationFailed,
			expectedField: "priority",
		},
		{
			name:          "priority above range",
			input:         models.TodoInput{Title: "Buy milk", Priority: 6},
			expectedError: models.ErrValidationFailed,
			expectedField: "priority",
		},
		{
			name:          "repository error",
			input:         models.TodoInput{Title: "Buy milk", Priority: 3},
			repoErr:       errors.New("database error"),
			expectedError: errors.New("any"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockTodoRepository()
			repo.err = tt.repoErr
			svc := NewTodoService(repo, zap.NewNop())

			todo, err := svc.Create(context.Background(), aliceID, tt.input)

			switch {
			case tt.expectedError == nil:
				require.NoError(t, err)
				require.NotNil(t, todo)
				assert.Equal(t, 1, todo.ID)
				assert.Equal(t, "Buy milk", todo.Title)
				assert.Equal(t, "2%", todo.Description)
				assert.Equal(t, 3, todo.Priority)
				assert.False(t, todo.Complete)
				assert.Equal(t, aliceID, todo.OwnerID)
			case errors.Is(tt.expectedError, models.ErrValidationFailed):
				assert.ErrorIs(t, err, models.ErrValidationFailed)
				var verr *models.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.expectedField, verr.Field)
				assert.Nil(t, todo)
				assert.Empty(t, repo.todos)
			default:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, models.ErrValidationFailed)
				assert.Nil(t, todo)
			}
		})
	}
}

func TestTodoService_CreateMultibyteAtLimit(t *testing.T) {
	repo := newMockTodoRepository()
	svc := NewTodoService(repo, zap.NewNop())
	// 200 characters but 600 bytes
	title := strings.Repeat("牛", 200)
	description := strings.Repeat("乳", 1000)

	todo, err := svc.Create(context.Background(), aliceID, models.TodoInput{Title: title, Description: description, Priority: 2})

	require.NoError(t, err)
	require.NotNil(t, todo)
	assert.Equal(t, title, todo.Title)
	assert.Equal(t, description, todo.Description)
}

func TestTodoService_CreateThenList(t *testing.T) {
	repo := newMockTodoRepository(models.Todo{ID: 1, Title: "Walk dog", Priority: 2, OwnerID: bobID})
	svc := NewTodoService(repo, zap.NewNop())
	ctx := context.Background()

	created, err := svc.Create(ctx, aliceID, models.TodoInput{Title: "Buy milk", Description: "2%", Priority: 3})
	require.NoError(t, err)

	todos, err := svc.List(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, *created, todos[0])
	assert.Equal(t, aliceID, todos[0].OwnerID)
}

func TestTodoService_List(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		svc := NewTodoService(newMockTodoRepository(), zap.NewNop())

		todos, err := svc.List(context.Background(), aliceID)

		require.NoError(t, err)
		assert.NotNil(t, todos)
		assert.Empty(t, todos)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := newMockTodoRepository()
		repo.err = errors.New("database error")
		svc := NewTodoService(repo, zap.NewNop())

		todos, err := svc.List(context.Background(), aliceID)

		assert.Error(t, err)
		assert.Nil(t, todos)
	})
}

func TestTodoService_Get(t *testing.T) {
	repo := newMockTodoRepository(
		models.Todo{ID: 1, Title: "Buy milk", Priority: 3, OwnerID: aliceID},
		models.Todo{ID: 2, Title: "Walk dog", Priority: 2, OwnerID: bobID},
	)
	svc := NewTodoService(repo, zap.NewNop())

	tests := []struct {
		name          string
		id            int
		expectedError error
	}{
		{name: "own todo", id: 1},
		{name: "foreign todo", id: 2, expectedError: models.ErrNotFound},
		{name: "missing todo", id: 99, expectedError: models.ErrNotFound},
		{name: "non-positive id", id: 0, expectedError: models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todo, err := svc.Get(context.Background(), tt.id, aliceID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, todo)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, todo.ID)
		})
	}
}

func TestTodoService_Update(t *testing.T) {
	tests := []struct {
		name          string
		id            int
		input         models.TodoInput
		expectedError error
	}{
		{
			name:  "success",
			id:    1,
			input: models.TodoInput{Title: "Buy oat milk", Description: "1L", Priority: 5},
		},
		{
			name:          "foreign todo",
			id:            2,
			input:         models.TodoInput{Title: "Hijack", Priority: 1},
			expectedError: models.ErrNotFound,
		},
		{
			name:          "invalid priority",
			id:            1,
			input:         models.TodoInput{Title: "Buy milk", Priority: 9},
			expectedError: models.ErrValidationFailed,
		},
		{
			name:          "non-positive id",
			id:            -1,
			input:         models.TodoInput{Title: "Buy milk", Priority: 3},
			expectedError: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockTodoRepository(
				models.Todo{ID: 1, Title: "Buy milk", Description: "2%", Priority: 3, OwnerID: aliceID},
				models.Todo{ID: 2, Title: "Walk dog", Priority: 2, OwnerID: bobID},
			)
			svc := NewTodoService(repo, zap.NewNop())

			err := svc.Update(context.Background(), tt.id, aliceID, tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Equal(t, "Walk dog", repo.todos[2].Title)
				assert.Equal(t, "Buy milk", repo.todos[1].Title)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Buy oat milk", repo.todos[1].Title)
			assert.Equal(t, "1L", repo.todos[1].Description)
			assert.Equal(t, 5, repo.todos[1].Priority)
			assert.Equal(t, aliceID, repo.todos[1].OwnerID)
		})
	}
}

func TestTodoService_Delete(t *testing.T) {
	repo := newMockTodoRepository(
		models.Todo{ID: 1, Title: "Buy milk", Priority: 3, OwnerID: aliceID},
		models.Todo{ID: 2, Title: "Walk dog", Priority: 2, OwnerID: bobID},
	)
	svc := NewTodoService(repo, zap.NewNop())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, 2, aliceID), models.ErrNotFound)
	assert.Contains(t, repo.todos, 2)

	require.NoError(t, svc.Delete(ctx, 1, aliceID))
	assert.NotContains(t, repo.todos, 1)

	assert.ErrorIs(t, svc.Delete(ctx, 1, aliceID), models.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 0, aliceID), models.ErrNotFound)
}

func TestTodoService_ToggleComplete(t *testing.T) {
	repo := newMockTodoRepository(
		models.Todo{ID: 1, Title: "Buy milk", Priority: 3, OwnerID: aliceID},
		models.Todo{ID: 2, Title: "Walk dog", Priority: 2, OwnerID: bobID},
	)
	svc := NewTodoService(repo, zap.NewNop())
	ctx := context.Background()

	t.Run("double toggle restores original state", func(t *testing.T) {
		first, err := svc.ToggleComplete(ctx, 1, aliceID)
		require.NoError(t, err)
		assert.True(t, first.Complete)

		second, err := svc.ToggleComplete(ctx, 1, aliceID)
		require.NoError(t, err)
		assert.False(t, second.Complete)
		assert.False(t, repo.todos[1].Complete)
	})

	t.Run("foreign todo", func(t *testing.T) {
		todo, err := svc.ToggleComplete(ctx, 2, aliceID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.Nil(t, todo)
		assert.False(t, repo.todos[2].Complete)
	})

	t.Run("repository error", func(t *testing.T) {
		failing := newMockTodoRepository()
		failing.err = errors.New("database error")

		todo, err := NewTodoService(failing, zap.NewNop()).ToggleComplete(ctx, 1, aliceID)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrNotFound)
		assert.Nil(t, todo)
	})
}
