package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todos/internal/dto"
	"todos/internal/repo/repotest"
	"todos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *repotest.MemTodoRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := repotest.NewMemTodoRepo()
	h := NewTodoHandler(service.NewTodoService(r, nil))

	e := gin.New()
	e.POST("/todos", h.Create)
	e.GET("/todos", h.List)
	e.GET("/todos/:id", h.GetByID)
	e.PATCH("/todos/:id", h.Update)
	e.DELETE("/todos/:id", h.Delete)
	return e, r
}

func do(e *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeTodo(t *testing.T, rec *httptest.ResponseRecorder) dto.TodoResponse {
	t.Helper()
	var out dto.TodoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestTodoLifecycleOverHTTP(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := do(e, http.MethodPost, "/todos", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(e, http.MethodGet, "/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, false, list[0]["isDone"])
	assert.Nil(t, list[0]["finished"])
	assert.Contains(t, list[0], "description")
	assert.NotContains(t, list[0], "status")

	rec = do(e, http.MethodPatch, "/todos/1", `{"isDone":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodGet, "/todos/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	done := decodeTodo(t, rec)
	assert.True(t, done.IsDone)
	require.NotNil(t, done.Finished)

	rec = do(e, http.MethodPatch, "/todos/1", `{"title":"Buy oat milk"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodGet, "/todos/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	renamed := decodeTodo(t, rec)
	assert.Equal(t, "Buy oat milk", renamed.Title)
	assert.True(t, renamed.IsDone)
	require.NotNil(t, renamed.Finished)
	assert.True(t, done.Finished.Equal(*renamed.Finished))

	rec = do(e, http.MethodDelete, "/todos/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodGet, "/todos/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"record not found"}`, rec.Body.String())

	rec = do(e, http.MethodDelete, "/todos/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/todos", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetUnknownID(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := do(e, http.MethodGet, "/todos/999999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidID(t *testing.T) {
	e, _ := newTestRouter(t)

	for _, path := range []string{"/todos/abc", "/todos/1.5", "/todos/0", "/todos/-3"} {
		rec := do(e, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		rec = do(e, http.MethodPatch, path, `{"title":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		rec = do(e, http.MethodDelete, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestCreateValidationNeverReachesService(t *testing.T) {
	e, r := newTestRouter(t)

	rec := do(e, http.MethodPost, "/todos", `{"description":"no title"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["fields"], "title")

	rec = do(e, http.MethodPost, "/todos", `{"title":"a","extra":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Zero(t, r.Creates)
}

func TestUpdateValidation(t *testing.T) {
	e, r := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/todos", `{"title":"a"}`).Code)

	rec := do(e, http.MethodPatch, "/todos/1", `{"isDone":"true"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, r.Updates)
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	e, r := newTestRouter(t)

	rec := do(e, http.MethodPatch, "/todos/42", `{"isDone":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, r.Updates)
}

func TestStorageErrorIs500(t *testing.T) {
	e, r := newTestRouter(t)
	r.Err = errors.New("connection reset")

	rec := do(e, http.MethodGet, "/todos", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestUpdateDescriptionNullClears(t *testing.T) {
	e, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/todos", `{"title":"a","description":"d"}`).Code)

	rec := do(e, http.MethodPatch, "/todos/1", `{"title":"b"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	got := decodeTodo(t, do(e, http.MethodGet, "/todos/1", ""))
	require.NotNil(t, got.Description)
	assert.Equal(t, "d", *got.Description)

	rec = do(e, http.MethodPatch, "/todos/1", `{"description":null}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodGet, "/todos/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "description")
	assert.Nil(t, body["description"])
	assert.Equal(t, "b", body["title"])
}
