package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Sonukamble/TodoApp/internal/models"
	"go.uber.org/zap"
)

// todoRepository stores todos. Every query is scoped to the owning user,
// so a todo of another user behaves exactly like a missing one.
type todoRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(db *sql.DB, logger *zap.Logger) *todoRepository {
	return &todoRepository{
		db:     db,
		logger: logger,
	}
}

// ListByOwner retrieves all todos of a user ordered by id
func (r *todoRepository) ListByOwner(ctx context.Context, ownerID int) ([]models.Todo, error) {
	query := `
		SELECT id, title, description, priority, complete, owner_id
		FROM todos
		WHERE owner_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("failed to query todos", zap.Error(err), zap.Int("owner_id", ownerID))
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := make([]models.Todo, 0)
	for rows.Next() {
		var todo models.Todo
		if err := rows.Scan(&todo.ID, &todo.Title, &todo.Description, &todo.Priority, &todo.Complete, &todo.OwnerID); err != nil {
			r.logger.Error("failed to scan todo", zap.Error(err))
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return todos, nil
}

// GetByID retrieves a todo of the given owner.
// A missing or foreign todo returns models.ErrNotFound.
func (r *todoRepository) GetByID(ctx context.Context, id, ownerID int) (*models.Todo, error) {
	return r.getByID(ctx, r.db, id, ownerID, false)
}

// Create inserts a new todo and sets its ID
func (r *todoRepository) Create(ctx context.Context, todo *models.Todo) error {
	query := `
		INSERT INTO todos (title, description, priority, complete, owner_id)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, todo.Title, todo.Description, todo.Priority, todo.Complete, todo.OwnerID)
	if err != nil {
		r.logger.Error("failed to create todo", zap.Error(err), zap.Int("owner_id", todo.OwnerID))
		return fmt.Errorf("failed to create todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	todo.ID = int(id)
	return nil
}

// Update overwrites the title, description and priority of a todo of the given owner
func (r *todoRepository) Update(ctx context.Context, todo *models.Todo) error {
	return WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		if _, err := r.getByID(ctx, tx, todo.ID, todo.OwnerID, true); err != nil {
			return err
		}

		query := `
			UPDATE todos
			SET title = ?, description = ?, priority = ?
			WHERE id = ? AND owner_id = ?
		`
		if _, err := tx.ExecContext(ctx, query, todo.Title, todo.Description, todo.Priority, todo.ID, todo.OwnerID); err != nil {
			r.logger.Error("failed to update todo", zap.Error(err), zap.Int("todo_id", todo.ID))
			return fmt.Errorf("failed to update todo: %w", err)
		}
		return nil
	})
}

// Delete removes a todo of the given owner
func (r *todoRepository) Delete(ctx context.Context, id, ownerID int) error {
	return WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		if _, err := r.getByID(ctx, tx, id, ownerID, true); err != nil {
			return err
		}

		query := `DELETE FROM todos WHERE id = ? AND owner_id = ?`
		if _, err := tx.ExecContext(ctx, query, id, ownerID); err != nil {
			r.logger.Error("failed to delete todo", zap.Error(err), zap.Int("todo_id", id))
			return fmt.Errorf("failed to delete todo: %w", err)
		}
		return nil
	})
}

// ToggleComplete flips the completion flag of a todo of the given owner and returns the updated todo
func (r *todoRepository) ToggleComplete(ctx context.Context, id, ownerID int) (*models.Todo, error) {
	var todo *models.Todo
	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		current, err := r.getByID(ctx, tx, id, ownerID, true)
		if err != nil {
			return err
		}

		current.Complete = !current.Complete
		query := `UPDATE todos SET complete = ? WHERE id = ? AND owner_id = ?`
		if _, err := tx.ExecContext(ctx, query, current.Complete, id, ownerID); err != nil {
			r.logger.Error("failed to toggle todo", zap.Error(err), zap.Int("todo_id", id))
			return fmt.Errorf("failed to toggle todo: %w", err)
		}

		todo = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	return todo, nil
}

// getByID reads a todo through q, optionally locking the row for the rest of the transaction
func (r *todoRepository) getByID(ctx context.Context, q DBTX, id, ownerID int, forUpdate bool) (*models.Todo, error) {
	query := `
		SELECT id, title, description, priority, complete, owner_id
		FROM todos
		WHERE id = ? AND owner_id = ?
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	todo := &models.Todo{}
	err := q.QueryRowContext(ctx, query, id, ownerID).Scan(
		&todo.ID,
		&todo.Title,
		&todo.Description,
		&todo.Priority,
		&todo.Complete,
		&todo.OwnerID,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get todo by id", zap.Error(err), zap.Int("todo_id", id))
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	return todo, nil
}
