package models

// Priority bounds accepted by the todo forms
const (
	MinPriority = 1
	MaxPriority = 5
)

// Todo represents a task owned by a single user
type Todo struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Complete    bool   `json:"complete"`
	OwnerID     int    `json:"owner_id"`
}

// TodoInput holds the editable fields of a todo
type TodoInput struct {
	Title       string
	Description string
	Priority    int
}
