package handler

import (
	"errors"
	"net/http"
	"strconv"

	. "simpletodo/internal/adapter/http/helper"
	. "simpletodo/internal/adapter/http/validation"
	"simpletodo/internal/core/domain"
	"simpletodo/internal/core/model/request"
	"simpletodo/internal/core/model/response"
	"simpletodo/internal/core/port"
	"simpletodo/internal/core/telemetry"
	"simpletodo/pkg/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	MessageNoTodos       = "Tasks does not exist."
	MessageTodoNotFound  = "Task with the given ID does not exist."
	MessageUpdateMissing = "No task found"
	MessageTodoDeleted   = "Task successfully deleted"
)

type TodoHandler struct {
	svc     port.TodoService
	Logger  *config.LokiLogger
	metrics *telemetry.AppMetrics
}

func NewTodoHandler(todoService port.TodoService, logger *config.LokiLogger, metrics *telemetry.AppMetrics) *TodoHandler {
	if logger == nil {
		logger = config.NewNopLogger()
	}

	return &TodoHandler{
		svc:     todoService,
		Logger:  logger,
		metrics: metrics,
	}
}

func (t *TodoHandler) GetAllTodos(c *gin.Context) {
	todos, err := t.svc.GetAll(c.Request.Context())
	t.record(c, "list", err)

	if err != nil {
		t.sendError(c, err, MessageNoTodos)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoListResponse(todos))
}

func (t *TodoHandler) GetTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	todo, err := t.svc.GetByID(c.Request.Context(), id)
	t.record(c, "get", err)

	if err != nil {
		t.sendError(c, err, MessageTodoNotFound)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo))
}

func (t *TodoHandler) CreateTodo(c *gin.Context) {
	var params request.TodoRequest

	if err := c.ShouldBindJSON(&params); err != nil {
		SendBadRequestError(c, "body", "Invalid JSON payload")
		return
	}

	todo, err := t.svc.Create(c.Request.Context(), params.ToDomain())
	t.record(c, "create", err)

	if err != nil {
		t.sendError(c, err, "")
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo))
}

func (t *TodoHandler) UpdateTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	var params request.TodoRequest

	if err := c.ShouldBindJSON(&params); err != nil {
		SendBadRequestError(c, "body", "Invalid JSON payload")
		return
	}

	todo, err := t.svc.UpdateByID(c.Request.Context(), id, params.ToDomain())
	t.record(c, "update", err)

	if err != nil {
		t.sendError(c, err, MessageUpdateMissing)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTodoResponse(todo))
}

func (t *TodoHandler) DeleteTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	err := t.svc.DeleteByID(c.Request.Context(), id)
	t.record(c, "delete", err)

	if err != nil {
		t.sendError(c, err, MessageTodoNotFound)
		return
	}

	SendMessage(c, http.StatusOK, MessageTodoDeleted)
}

func todoID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))

	if err != nil {
		SendBadRequestError(c, "id", "id must be an integer")
		return 0, false
	}

	return id, true
}

// sendError maps service errors onto responses. notFound is the message used
// when the todo, or every todo, is missing.
func (t *TodoHandler) sendError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrTodoNotFound), errors.Is(err, domain.ErrNoTodos):
		SendNotFoundError(c, notFound)
	case len(FormatValidationErrors(err)) > 0:
		SendValidationError(c, err)
	default:
		t.Logger.ErrorWithTrace(c.Request.Context(), "Todo request failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)

		SendInternalError(c, "Internal server error")
	}
}

func (t *TodoHandler) record(c *gin.Context, operation string, err error) {
	if t.metrics != nil {
		t.metrics.RecordTodoOperation(c.Request.Context(), operation, err)
	}
}
