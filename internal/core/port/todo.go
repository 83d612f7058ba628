package port

import (
	"context"

	"simpletodo/internal/core/domain"
)

type TodoRepository interface {
	GetAll(ctx context.Context) ([]domain.Todo, error)
	GetByID(ctx context.Context, id int) (domain.Todo, error)
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	Update(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	DeleteByID(ctx context.Context, id int) error
}

type TodoService interface {
	GetAll(ctx context.Context) ([]domain.Todo, error)
	GetByID(ctx context.Context, id int) (domain.Todo, error)
	Create(ctx context.Context, todo domain.Todo) (domain.Todo, error)
	UpdateByID(ctx context.Context, id int, todo domain.Todo) (domain.Todo, error)
	DeleteByID(ctx context.Context, id int) error
}
