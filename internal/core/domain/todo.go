package domain

import "errors"

const (
	ContentMinLength = 5
	ContentMaxLength = 200
)

var (
	ErrTodoNotFound = errors.New("todo not found")
	ErrNoTodos      = errors.New("no todos found")
)

type Todo struct {
	ID          int
	Content     string `validate:"required,min=5,max=200"`
	IsCompleted bool
}

// ToMap returns the mutable columns of the todo keyed by column name.
// The id is never part of an update.
func (t *Todo) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"content":      t.Content,
		"is_completed": t.IsCompleted,
	}
}

// Apply overwrites content and completion from the payload, keeping the id.
func (t *Todo) Apply(payload Todo) {
	t.Content = payload.Content
	t.IsCompleted = payload.IsCompleted
}
