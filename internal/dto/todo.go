package dto

import (
	"time"

	dom "todos/internal/domain"
)

type CreateTodoRequest struct {
	Title       string  `json:"title" binding:"required,notblank,max=255"`
	Description *string `json:"description" binding:"omitnil,max=1000"`
}

// UpdateTodoRequest is a partial update; nil = leave as is.
// An explicit "description": null sets ClearDescription.
type UpdateTodoRequest struct {
	Title       *string `json:"title" binding:"omitnil,notblank,max=255"`
	Description *string `json:"description" binding:"omitnil,max=1000"`
	IsDone      *bool   `json:"isDone"`

	ClearDescription bool `json:"-"`
}

// TodoResponse is the public view of a todo. The status flag is never exposed.
type TodoResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	IsDone      bool       `json:"isDone"`
	Finished    *time.Time `json:"finished"`
}

func TodoToResponse(t dom.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsDone:      t.IsDone,
		Finished:    t.Finished,
	}
}

func TodosToResponses(list []dom.Todo) []TodoResponse {
	out := make([]TodoResponse, len(list))
	for i := range list {
		out[i] = TodoToResponse(list[i])
	}
	return out
}
