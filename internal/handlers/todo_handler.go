package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Sonukamble/TodoApp/internal/auth"
	"github.com/Sonukamble/TodoApp/internal/middleware"
	"github.com/Sonukamble/TodoApp/internal/models"
	"github.com/Sonukamble/TodoApp/internal/views"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TodoService is the interface that wraps methods for todo business logic.
//
// Every method takes the caller's user id as "ownerID"; todos of other users are reported as models.ErrNotFound.
type TodoService interface {
	// Method List retrieves all todos of the owner.
	List(ctx context.Context, ownerID int) ([]models.Todo, error)
	// Method Get retrieves a single todo of the owner.
	Get(ctx context.Context, id, ownerID int) (*models.Todo, error)
	// Method Create validates the input and stores a new incomplete todo.
	//
	// If the input is invalid, an error matching models.ErrValidationFailed is returned together with "nil" value.
	Create(ctx context.Context, ownerID int, input models.TodoInput) (*models.Todo, error)
	// Method Update validates the input and overwrites title, description and priority.
	Update(ctx context.Context, id, ownerID int, input models.TodoInput) error
	// Method Delete removes a todo.
	Delete(ctx context.Context, id, ownerID int) error
	// Method ToggleComplete flips the completion flag once.
	ToggleComplete(ctx context.Context, id, ownerID int) (*models.Todo, error)
}

// TodoHandler serves the todo pages of the signed in user
type TodoHandler struct {
	BaseHandler
	todoService TodoService
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(todoService TodoService, renderer Renderer, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{
		BaseHandler: BaseHandler{logger: logger, views: renderer},
		todoService: todoService,
	}
}

// RegisterRoutes registers all todo routes behind sessionMiddleware
func (h *TodoHandler) RegisterRoutes(r chi.Router, sessionMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware)

		r.Get("/", h.Home)
		r.Get("/add-todo", h.AddTodoPage)
		r.Post("/add-todo", h.AddTodo)
		r.Get("/update-todo/{id}", h.EditTodoPage)
		r.Post("/update-todo/{id}", h.UpdateTodo)
		r.Get("/delete/{id}", h.DeleteTodo)
		r.Get("/complete/{id}", h.CompleteTodo)
	})
}

// Home handles GET /
func (h *TodoHandler) Home(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	todos, err := h.todoService.List(r.Context(), identity.UserID)
	if err != nil {
		h.unknownError(w, r, identity, err)
		return
	}

	h.render(w, http.StatusOK, views.PageHome, &views.PageData{
		Title:    "My Todos",
		Username: identity.Username,
		Todos:    todos,
	})
}

// AddTodoPage handles GET /add-todo
func (h *TodoHandler) AddTodoPage(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	h.render(w, http.StatusOK, views.PageAddTodo, &views.PageData{
		Title:    "Add Todo",
		Username: identity.Username,
	})
}

// AddTodo handles POST /add-todo
func (h *TodoHandler) AddTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	input := readTodoInput(r, "title", "description", "priority")
	if _, err := h.todoService.Create(r.Context(), identity.UserID, input); err != nil {
		h.formError(w, r, identity, views.PageAddTodo, "Add Todo", &models.Todo{
			Title:       input.Title,
			Description: input.Description,
			Priority:    input.Priority,
		}, err)
		return
	}

	h.redirect(w, r, homePath)
}

// EditTodoPage handles GET /update-todo/{id}
func (h *TodoHandler) EditTodoPage(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, ok := h.todoID(w, r, identity)
	if !ok {
		return
	}

	todo, err := h.todoService.Get(r.Context(), id, identity.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.notFound(w, identity)
			return
		}
		h.unknownError(w, r, identity, err)
		return
	}

	h.render(w, http.StatusOK, views.PageEditTodo, &views.PageData{
		Title:    "Edit Todo",
		Username: identity.Username,
		Todo:     todo,
	})
}

// UpdateTodo handles POST /update-todo/{id}
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, ok := h.todoID(w, r, identity)
	if !ok {
		return
	}

	input := readTodoInput(r, "todo_title", "todo_description", "todo_priority")
	if err := h.todoService.Update(r.Context(), id, identity.UserID, input); err != nil {
		h.formError(w, r, identity, views.PageEditTodo, "Edit Todo", &models.Todo{
			ID:          id,
			Title:       input.Title,
			Description: input.Description,
			Priority:    input.Priority,
		}, err)
		return
	}

	h.redirect(w, r, homePath)
}

// DeleteTodo handles GET /delete/{id}
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, ok := h.todoID(w, r, identity)
	if !ok {
		return
	}

	if err := h.todoService.Delete(r.Context(), id, identity.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.notFound(w, identity)
			return
		}
		h.unknownError(w, r, identity, err)
		return
	}

	h.redirect(w, r, homePath)
}

// CompleteTodo handles GET /complete/{id}
func (h *TodoHandler) CompleteTodo(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.caller(w, r)
	if !ok {
		return
	}

	id, ok := h.todoID(w, r, identity)
	if !ok {
		return
	}

	if _, err := h.todoService.ToggleComplete(r.Context(), id, identity.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.notFound(w, identity)
			return
		}
		h.unknownError(w, r, identity, err)
		return
	}

	h.redirect(w, r, homePath)
}

// caller returns the identity stored by the session gate
func (h *TodoHandler) caller(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		h.redirect(w, r, loginPath)
		return nil, false
	}
	return identity, true
}

// todoID parses the {id} URL parameter. A malformed id is a missing todo.
func (h *TodoHandler) todoID(w http.ResponseWriter, r *http.Request, identity *auth.Identity) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.notFound(w, identity)
		return 0, false
	}
	return id, true
}

// readTodoInput reads a todo form. An unparsable priority is left at zero and rejected by validation.
func readTodoInput(r *http.Request, titleField, descriptionField, priorityField string) models.TodoInput {
	priority, _ := strconv.Atoi(r.PostFormValue(priorityField))
	return models.TodoInput{
		Title:       r.PostFormValue(titleField),
		Description: r.PostFormValue(descriptionField),
		Priority:    priority,
	}
}

// formError re-renders a todo form for a failed submission
func (h *TodoHandler) formError(w http.ResponseWriter, r *http.Request, identity *auth.Identity, page, title string, todo *models.Todo, err error) {
	data := &views.PageData{Title: title, Username: identity.Username, Todo: todo}

	switch {
	case errors.Is(err, models.ErrNotFound):
		h.notFound(w, identity)
	case errors.Is(err, models.ErrValidationFailed):
		data.Error = err.Error()
		h.render(w, http.StatusBadRequest, page, data)
	default:
		h.logger.Error("failed to save todo",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Int("user_id", identity.UserID),
			zap.Error(err),
		)
		data.Error = msgUnknownError
		h.render(w, http.StatusInternalServerError, page, data)
	}
}

func (h *TodoHandler) notFound(w http.ResponseWriter, identity *auth.Identity) {
	h.render(w, http.StatusNotFound, views.PageNotFound, &views.PageData{
		Title:    "Not Found",
		Username: identity.Username,
	})
}

func (h *TodoHandler) unknownError(w http.ResponseWriter, r *http.Request, identity *auth.Identity, err error) {
	h.logger.Error("todo request failed",
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("user_id", identity.UserID),
		zap.Error(err),
	)
	h.render(w, http.StatusInternalServerError, views.PageHome, &views.PageData{
		Title:    "My Todos",
		Username: identity.Username,
		Error:    msgUnknownError,
	})
}
