package request

import "simpletodo/internal/core/domain"

// TodoRequest is the payload of create and update. Any id sent by the client
// is dropped during binding.
type TodoRequest struct {
	Content     string `json:"content"`
	IsCompleted bool   `json:"is_completed"`
}

func (r TodoRequest) ToDomain() domain.Todo {
	return domain.Todo{
		Content:     r.Content,
		IsCompleted: r.IsCompleted,
	}
}
