package domain

import "time"

// Todo is the stored shape of a task. Status is the visibility flag:
// false means soft-deleted and the record is never served.
type Todo struct {
	ID          int64
	Title       string
	Description *string
	IsDone      bool
	Finished    *time.Time
	Status      bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTodo holds the caller-supplied fields of an insert. Everything else
// comes from column defaults.
type NewTodo struct {
	Title       string
	Description *string
}

// TodoPatch is a partial write. Nil fields are left untouched.
// Description and Finished are nullable, so they are written only when
// their Set flag is true; a nil value then clears the column.
type TodoPatch struct {
	Title  *string
	IsDone *bool
	Status *bool

	SetDescription bool
	Description    *string

	SetFinished bool
	Finished    *time.Time
}
