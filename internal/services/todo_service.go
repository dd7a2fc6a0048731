package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Sonukamble/TodoApp/internal/models"
	"go.uber.org/zap"
)

// TodoRepository is the interface that wraps methods for todos table data access.
//
// Every method is scoped to the owner: a todo of another user is reported as models.ErrNotFound.
type TodoRepository interface {
	// Method ListByOwner retrieves all todos of the owner ordered by id.
	ListByOwner(ctx context.Context, ownerID int) ([]models.Todo, error)
	// Method GetByID retrieves a single todo of the owner.
	GetByID(ctx context.Context, id, ownerID int) (*models.Todo, error)
	// Method Create inserts a todo and sets its ID.
	Create(ctx context.Context, todo *models.Todo) error
	// Method Update overwrites title, description and priority of the todo identified by ID and OwnerID.
	Update(ctx context.Context, todo *models.Todo) error
	// Method Delete removes a todo of the owner.
	Delete(ctx context.Context, id, ownerID int) error
	// Method ToggleComplete flips the completion flag and returns the updated todo.
	ToggleComplete(ctx context.Context, id, ownerID int) (*models.Todo, error)
}

const (
	maxTitleLength       = 200
	maxDescriptionLength = 1000
)

type todoService struct {
	repo   TodoRepository
	logger *zap.Logger
}

// NewTodoService creates a new todo service
func NewTodoService(repo TodoRepository, logger *zap.Logger) *todoService {
	return &todoService{
		repo:   repo,
		logger: logger,
	}
}

// List retrieves all todos of the owner
func (s *todoService) List(ctx context.Context, ownerID int) ([]models.Todo, error) {
	todos, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// Get retrieves a todo of the owner
func (s *todoService) Get(ctx context.Context, id, ownerID int) (*models.Todo, error) {
	if id <= 0 {
		return nil, models.ErrNotFound
	}

	todo, err := s.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

// Create validates the input and stores a new incomplete todo owned by ownerID
func (s *todoService) Create(ctx context.Context, ownerID int, input models.TodoInput) (*models.Todo, error) {
	input, err := validateTodoInput(input)
	if err != nil {
		return nil, err
	}

	todo := &models.Todo{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		Complete:    false,
		OwnerID:     ownerID,
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	s.logger.Debug("todo created", zap.Int("todo_id", todo.ID), zap.Int("owner_id", ownerID))
	return todo, nil
}

// Update validates the input and overwrites the editable fields of a todo of the owner
func (s *todoService) Update(ctx context.Context, id, ownerID int, input models.TodoInput) error {
	if id <= 0 {
		return models.ErrNotFound
	}

	input, err := validateTodoInput(input)
	if err != nil {
		return err
	}

	todo := &models.Todo{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		OwnerID:     ownerID,
	}
	if err := s.repo.Update(ctx, todo); err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return nil
}

// Delete removes a todo of the owner
func (s *todoService) Delete(ctx context.Context, id, ownerID int) error {
	if id <= 0 {
		return models.ErrNotFound
	}

	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return nil
}

// ToggleComplete flips the completion flag of a todo of the owner
func (s *todoService) ToggleComplete(ctx context.Context, id, ownerID int) (*models.Todo, error) {
	if id <= 0 {
		return nil, models.ErrNotFound
	}

	todo, err := s.repo.ToggleComplete(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle todo: %w", err)
	}
	return todo, nil
}

// validateTodoInput trims and checks the editable fields of a todo
func validateTodoInput(input models.TodoInput) (models.TodoInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)

	switch {
	case input.Title == "":
		return input, models.NewValidationError("title", "cannot be empty")
	case utf8.RuneCountInString(input.Title) > maxTitleLength:
		return input, models.NewValidationError("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	case utf8.RuneCountInString(input.Description) > maxDescriptionLength:
		return input, models.NewValidationError("description", fmt.Sprintf("must be at most %d characters", maxDescriptionLength))
	case input.Priority < models.MinPriority || input.Priority > models.MaxPriority:
		return input, models.NewValidationError("priority", fmt.Sprintf("must be between %d and %d", models.MinPriority, models.MaxPriority))
	}

	return input, nil
}
