package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	. "simpletodo/pkg/test"

	server "simpletodo/internal/adapter/http"
	"simpletodo/internal/adapter/database/sqlite"
	"simpletodo/internal/adapter/http/handler"
	"simpletodo/internal/core/model/response"
	"simpletodo/internal/core/telemetry"
	"simpletodo/pkg/config"
)

type TodoAPISuite struct {
	suite.Suite
	DB     *sqlite.DB
	Router *gin.Engine
}

func (s *TodoAPISuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.DB = InitTestDB(s.T())

	logger := config.NewNopLogger()
	metrics := telemetry.NewAppMetrics(prometheus.NewRegistry())
	container := server.NewSQLiteContainer(s.DB, telemetry.NewNoOpProbe(), metrics, logger)

	s.Router = server.NewRouter(container, metrics, logger, config.GetDefaultConfig())
}

func TestTodoAPISuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TodoAPISuite))
}

func (s *TodoAPISuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader

	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	return w
}

func (s *TodoAPISuite) decodeTodo(w *httptest.ResponseRecorder) response.TodoResponse {
	var todo response.TodoResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &todo))
	return todo
}

func (s *TodoAPISuite) decodeError(w *httptest.ResponseRecorder) response.ErrorResponse {
	var errResponse response.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &errResponse))
	return errResponse
}

func (s *TodoAPISuite) create(content string) response.TodoResponse {
	w := s.do(http.MethodPost, "/todos/", map[string]any{"content": content})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return s.decodeTodo(w)
}

func (s *TodoAPISuite) TestRoot() {
	w := s.do(http.MethodGet, "/", nil)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).To(MatchJSON(`{"message":"Welcome. This is not your first time here :)"}`))
	Expect(w.Header().Get("X-Request-ID")).ToNot(BeEmpty())
}

func (s *TodoAPISuite) TestRequestIDIsEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	Expect(w.Header().Get("X-Request-ID")).To(Equal("req-123"))
}

func (s *TodoAPISuite) TestCreate_Success() {
	w := s.do(http.MethodPost, "/todos/", map[string]any{"content": "Buy milk"})

	Expect(w.Code).To(Equal(http.StatusOK))

	todo := s.decodeTodo(w)
	Expect(todo.ID).To(BeNumerically(">", 0))
	Expect(todo.Content).To(Equal("Buy milk"))
	Expect(todo.IsCompleted).To(BeFalse())
}

func (s *TodoAPISuite) TestCreate_IgnoresClientID() {
	w := s.do(http.MethodPost, "/todos/", map[string]any{"id": 42, "content": "Buy milk", "is_completed": true})

	Expect(w.Code).To(Equal(http.StatusOK))

	todo := s.decodeTodo(w)
	Expect(todo.ID).To(Equal(1))
	Expect(todo.IsCompleted).To(BeTrue())
}

func (s *TodoAPISuite) TestCreate_ContentTooShort() {
	w := s.do(http.MethodPost, "/todos/", map[string]any{"content": "abcd"})

	Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))

	errResponse := s.decodeError(w)
	Expect(errResponse.Detail).To(Equal("content must have at least 5 characters"))
	Expect(errResponse.Error.Code).To(Equal("VALIDATION_ERROR"))
	Expect(errResponse.Error.Errors[0].Field).To(Equal("content"))

	Expect(s.do(http.MethodGet, "/todos/", nil).Code).To(Equal(http.StatusNotFound))
}

func (s *TodoAPISuite) TestCreate_ContentTooLong() {
	w := s.do(http.MethodPost, "/todos/", map[string]any{"content": strings.Repeat("a", 201)})

	Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
	Expect(s.decodeError(w).Detail).To(Equal("content must have at most 200 characters"))
}

func (s *TodoAPISuite) TestCreate_Boundaries() {
	Expect(s.do(http.MethodPost, "/todos/", map[string]any{"content": "abcde"}).Code).To(Equal(http.StatusOK))
	Expect(s.do(http.MethodPost, "/todos/", map[string]any{"content": strings.Repeat("a", 200)}).Code).To(Equal(http.StatusOK))
}

func (s *TodoAPISuite) TestCreate_MalformedJSON() {
	w := s.do(http.MethodPost, "/todos/", `{"content": `)

	Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
	Expect(s.decodeError(w).Error.Code).To(Equal("VALIDATION_ERROR"))
}

func (s *TodoAPISuite) TestCreate_WrongType() {
	w := s.do(http.MethodPost, "/todos/", `{"content": 12345}`)

	Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
}

func (s *TodoAPISuite) TestList_Empty() {
	w := s.do(http.MethodGet, "/todos/", nil)

	Expect(w.Code).To(Equal(http.StatusNotFound))

	errResponse := s.decodeError(w)
	Expect(errResponse.Detail).To(Equal(handler.MessageNoTodos))
	Expect(errResponse.Error.Code).To(Equal("NOT_FOUND"))
}

func (s *TodoAPISuite) TestList_OrderedByID() {
	first := s.create("first todo")
	second := s.create("second todo")

	w := s.do(http.MethodGet, "/todos/", nil)

	Expect(w.Code).To(Equal(http.StatusOK))

	var todos []response.TodoResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &todos))
	Expect(todos).To(Equal([]response.TodoResponse{first, second}))
}

func (s *TodoAPISuite) TestGet_Success() {
	saved := s.create("Walk the dog")

	w := s.do(http.MethodGet, "/todos/1", nil)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(s.decodeTodo(w)).To(Equal(saved))
}

func (s *TodoAPISuite) TestGet_NotFound() {
	w := s.do(http.MethodGet, "/todos/999", nil)

	Expect(w.Code).To(Equal(http.StatusNotFound))
	Expect(s.decodeError(w).Detail).To(Equal(handler.MessageTodoNotFound))
}

func (s *TodoAPISuite) TestGet_NonIntegerID() {
	w := s.do(http.MethodGet, "/todos/abc", nil)

	Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
	Expect(s.decodeError(w).Error.Errors[0].Field).To(Equal("id"))
}

func (s *TodoAPISuite) TestUpdate_Success() {
	saved := s.create("Buy milk")

	w := s.do(http.MethodPut, "/todos/1", map[string]any{"id": 77, "content": "Buy oat milk", "is_completed": true})

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(s.decodeTodo(w)).To(Equal(response.TodoResponse{ID: saved.ID, Content: "Buy oat milk", IsCompleted: true}))

	Expect(s.decodeTodo(s.do(http.MethodGet, "/todos/1", nil)).Content).To(Equal("Buy oat milk"))
	Expect(s.do(http.MethodGet, "/todos/77", nil).Code).To(Equal(http.StatusNotFound))
}

func (s *TodoAPISuite) TestUpdate_NotFound() {
	w := s.do(http.MethodPut, "/todos/999", map[string]any{"content": "Buy oat milk"})

	Expect(w.Code).To(Equal(http.StatusNotFound))
	Expect(s.decodeError(w).Detail).To(Equal(handler.MessageUpdateMissing))
}

func (s *TodoAPISuite) TestUpdate_InvalidContentKeepsRow() {
	s.create("Buy milk")

	w := s.do(http.MethodPut, "/todos/1", map[string]any{"content": "no"})

	Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
	Expect(s.decodeTodo(s.do(http.MethodGet, "/todos/1", nil)).Content).To(Equal("Buy milk"))
}

func (s *TodoAPISuite) TestDelete_Success() {
	s.create("Buy milk")

	w := s.do(http.MethodDelete, "/todos/1", nil)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Body.String()).To(MatchJSON(`{"message":"Task successfully deleted"}`))
	Expect(s.do(http.MethodGet, "/todos/1", nil).Code).To(Equal(http.StatusNotFound))
}

func (s *TodoAPISuite) TestDelete_NotFound() {
	w := s.do(http.MethodDelete, "/todos/999", nil)

	Expect(w.Code).To(Equal(http.StatusNotFound))
	Expect(s.decodeError(w).Detail).To(Equal(handler.MessageTodoNotFound))
}

func (s *TodoAPISuite) TestBuyMilkScenario() {
	created := s.decodeTodo(s.do(http.MethodPost, "/todos/", map[string]any{"content": "Buy milk"}))
	Expect(created).To(Equal(response.TodoResponse{ID: 1, Content: "Buy milk", IsCompleted: false}))

	w := s.do(http.MethodGet, "/todos/", nil)
	Expect(w.Body.String()).To(MatchJSON(`[{"id":1,"content":"Buy milk","is_completed":false}]`))

	w = s.do(http.MethodPut, "/todos/1", map[string]any{"content": "Buy milk", "is_completed": true})
	Expect(w.Body.String()).To(MatchJSON(`{"id":1,"content":"Buy milk","is_completed":true}`))

	w = s.do(http.MethodDelete, "/todos/1", nil)
	Expect(w.Body.String()).To(MatchJSON(`{"message":"Task successfully deleted"}`))

	w = s.do(http.MethodGet, "/todos/1", nil)
	Expect(w.Code).To(Equal(http.StatusNotFound))
	Expect(s.decodeError(w).Detail).To(Equal("Task with the given ID does not exist."))
}

func (s *TodoAPISuite) TestConcurrentUpdatesOfDistinctRows() {
	const count = 20

	for i := 1; i <= count; i++ {
		s.create(fmt.Sprintf("todo number %d", i))
	}

	statuses := make([]int, count)
	var wg sync.WaitGroup

	for i := 0; i < count; i++ {
		index := i
		wg.Go(func() {
			path := fmt.Sprintf("/todos/%d", index+1)
			body := fmt.Sprintf(`{"content":"updated todo %d","is_completed":true}`, index+1)
			statuses[index] = s.do(http.MethodPut, path, body).Code
		})
	}

	wg.Wait()

	for _, status := range statuses {
		Expect(status).To(Equal(http.StatusOK))
	}

	var todos []response.TodoResponse
	s.Require().NoError(json.Unmarshal(s.do(http.MethodGet, "/todos/", nil).Body.Bytes(), &todos))
	Expect(todos).To(HaveLen(count))

	for _, todo := range todos {
		Expect(todo.IsCompleted).To(BeTrue())
		Expect(todo.Content).To(Equal(fmt.Sprintf("updated todo %d", todo.ID)))
	}
}

func (s *TodoAPISuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/todos/", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-Request-ID")

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	Expect(w.Code).To(Equal(http.StatusNoContent))
	Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
	Expect(w.Header().Get("Access-Control-Allow-Methods")).To(ContainSubstring("PUT"))
	Expect(strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))).To(ContainSubstring("x-request-id"))
	Expect(w.Header().Get("Access-Control-Max-Age")).To(Equal("43200"))
}

func (s *TodoAPISuite) TestCORSSimpleRequest() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://example.com")

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	Expect(w.Code).To(Equal(http.StatusOK))
	Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
}
