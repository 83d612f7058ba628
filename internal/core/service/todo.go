package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"simpletodo/internal/core/domain"
	"simpletodo/internal/core/port"
	tel "simpletodo/internal/core/telemetry"
	ct "simpletodo/pkg/context"
)

const serviceName = "todo"

type TodoService struct {
	repo      port.TodoRepository
	validator port.Validator
	telemetry port.Telemetry
}

func NewTodoService(repo port.TodoRepository, validator port.Validator, telemetry port.Telemetry) *TodoService {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &TodoService{
		repo:      repo,
		validator: validator,
		telemetry: telemetry,
	}
}

// GetAll returns every todo ordered by id. An empty table is reported as
// domain.ErrNoTodos rather than an empty slice.
func (ts *TodoService) GetAll(ctx context.Context) (todos []domain.Todo, err error) {
	ctx, done := ts.trace(ctx, "GetAll", nil)
	defer func() { done(err) }()

	todos, err = ts.repo.GetAll(ctx)

	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	if len(todos) == 0 {
		return nil, domain.ErrNoTodos
	}

	return todos, nil
}

func (ts *TodoService) GetByID(ctx context.Context, id int) (todo domain.Todo, err error) {
	ctx, done := ts.trace(ctx, "GetByID", map[string]interface{}{"todo.id": id})
	defer func() { done(err) }()

	todo, err = ts.repo.GetByID(ctx, id)

	if err != nil {
		return domain.Todo{}, fmt.Errorf("get todo %d: %w", id, err)
	}

	return todo, nil
}

func (ts *TodoService) Create(ctx context.Context, todo domain.Todo) (saved domain.Todo, err error) {
	ctx, done := ts.trace(ctx, "Create", nil)
	defer func() { done(err) }()

	newTodo := domain.Todo{
		Content:     todo.Content,
		IsCompleted: todo.IsCompleted,
	}

	if err := ts.validator.ValidateStruct(newTodo); err != nil {
		return domain.Todo{}, err
	}

	saved, err = ts.repo.Create(ctx, newTodo)

	if err != nil {
		return domain.Todo{}, fmt.Errorf("create todo: %w", err)
	}

	if err := ts.commit(ctx); err != nil {
		return domain.Todo{}, err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "created", "todo", strconv.Itoa(saved.ID), map[string]interface{}{
		"is_completed": saved.IsCompleted,
	})

	return saved, nil
}

// UpdateByID loads the todo and overwrites content and is_completed. The id
// carried by the payload is ignored.
func (ts *TodoService) UpdateByID(ctx context.Context, id int, todo domain.Todo) (updated domain.Todo, err error) {
	ctx, done := ts.trace(ctx, "UpdateByID", map[string]interface{}{"todo.id": id})
	defer func() { done(err) }()

	payload := domain.Todo{
		Content:     todo.Content,
		IsCompleted: todo.IsCompleted,
	}

	if err := ts.validator.ValidateStruct(payload); err != nil {
		return domain.Todo{}, err
	}

	existing, err := ts.repo.GetByID(ctx, id)

	if err != nil {
		return domain.Todo{}, fmt.Errorf("update todo %d: %w", id, err)
	}

	existing.Apply(payload)

	updated, err = ts.repo.Update(ctx, existing)

	if err != nil {
		return domain.Todo{}, fmt.Errorf("update todo %d: %w", id, err)
	}

	if err := ts.commit(ctx); err != nil {
		return domain.Todo{}, err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "updated", "todo", strconv.Itoa(updated.ID), map[string]interface{}{
		"is_completed": updated.IsCompleted,
	})

	return updated, nil
}

func (ts *TodoService) DeleteByID(ctx context.Context, id int) (err error) {
	ctx, done := ts.trace(ctx, "DeleteByID", map[string]interface{}{"todo.id": id})
	defer func() { done(err) }()

	if err := ts.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}

	if err := ts.commit(ctx); err != nil {
		return err
	}

	ts.telemetry.RecordBusinessEvent(ctx, "deleted", "todo", strconv.Itoa(id), nil)

	return nil
}

// commit commits the request session, if any. Without a session the
// repository already ran in auto-commit mode.
func (ts *TodoService) commit(ctx context.Context) error {
	session, ok := ct.SessionFromContext(ctx)

	if !ok {
		return nil
	}

	if err := session.Commit(ctx); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}

	return nil
}

func (ts *TodoService) trace(ctx context.Context, operation string, attrs map[string]interface{}) (context.Context, func(error)) {
	ctx, span := ts.telemetry.StartServiceSpan(ctx, serviceName, operation, attrs)
	startTime := time.Now()

	return ctx, func(err error) {
		ts.telemetry.RecordServiceOperation(ctx, serviceName, operation, time.Since(startTime), err)
		span.End()
	}
}
