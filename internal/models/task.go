package models

import (
	"errors"
	"fmt"
)

// TaskTypeCall is the task type that requires a phone number on the form.
const TaskTypeCall = "Call"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

var ErrInvalidStatus = errors.New("status must be either \"open\" or \"closed\"")

// Validate reports whether the status is one of the known values.
func (s Status) Validate() error {
	switch s {
	case StatusOpen, StatusClosed:
		return nil
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidStatus, string(s))
	}
}

// Task is the task record exchanged with the remote store.
// ID is zero until the store assigns one.
type Task struct {
	ID            int       `json:"id,omitempty"`
	CreatedDate   Timestamp `json:"created_date"`
	EntityName    string    `json:"entity_name"`
	TaskType      string    `json:"task_type"`
	TaskTime      Timestamp `json:"task_time"`
	ContactPerson string    `json:"contact_person"`
	Note          string    `json:"note"`
	Status        Status    `json:"status"`
}

// HasID reports whether the store has assigned an identity to the task.
func (t Task) HasID() bool {
	return t.ID > 0
}

// Draft is the create payload: a task without id, created_date and status.
type Draft struct {
	EntityName    string    `json:"entity_name"`
	TaskType      string    `json:"task_type"`
	TaskTime      Timestamp `json:"task_time"`
	ContactPerson string    `json:"contact_person"`
	Note          string    `json:"note,omitempty"`
}

// Patch is a partial update. Only non-nil fields are sent and applied.
type Patch struct {
	EntityName    *string    `json:"entity_name,omitempty"`
	TaskType      *string    `json:"task_type,omitempty"`
	TaskTime      *Timestamp `json:"task_time,omitempty"`
	ContactPerson *string    `json:"contact_person,omitempty"`
	Note          *string    `json:"note,omitempty"`
	Status        *Status    `json:"status,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.EntityName == nil && p.TaskType == nil && p.TaskTime == nil &&
		p.ContactPerson == nil && p.Note == nil && p.Status == nil
}

// Apply copies the supplied fields of the patch onto the task.
func (p Patch) Apply(task *Task) {
	if p.EntityName != nil {
		task.EntityName = *p.EntityName
	}
	if p.TaskType != nil {
		task.TaskType = *p.TaskType
	}
	if p.TaskTime != nil {
		task.TaskTime = *p.TaskTime
	}
	if p.ContactPerson != nil {
		task.ContactPerson = *p.ContactPerson
	}
	if p.Note != nil {
		task.Note = *p.Note
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
}
