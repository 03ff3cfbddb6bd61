// Package form holds the draft state behind the new-task and edit-task forms.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/iris/internal/lib/logger/sl"
	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/UnknownOlympus/iris/internal/notify"
)

var (
	ErrClosed    = errors.New("form is closed")
	ErrNoTaskID  = errors.New("task to edit has no id")
	errNoChanges = errors.New("nothing to update")
)

// Mode tells a create form from an edit form.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Gateway is the subset of the remote task API a form submits through.
type Gateway interface {
	Create(ctx context.Context, draft models.Draft) (models.Task, error)
	Update(ctx context.Context, id int, patch models.Patch) (models.Task, error)
	UpdateStatus(ctx context.Context, id int, status models.Status) (models.Task, error)
}

// Sink receives the records a form produced. The list controller implements it.
type Sink interface {
	OnTaskCreated(task models.Task)
	OnTaskUpdated(task models.Task)
}

// Deps are the collaborators of a form.
type Deps struct {
	Log      *slog.Logger
	Gateway  Gateway
	Sink     Sink
	Notifier notify.Notifier
	// Location interprets the date and time inputs. Nil means time.Local.
	Location *time.Location
}

// Form is the draft of one task. Fields are bound directly by the rendering layer.
// A Form is not safe for concurrent use.
type Form struct {
	EntityName    string
	TaskType      string
	Date          string // YYYY-MM-DD
	Hour          int    // 1-12
	Minute        int    // 0-59
	Meridiem      Meridiem
	PhoneNumber   string
	ContactPerson string
	Note          string
	Status        models.Status

	log      *slog.Logger
	gateway  Gateway
	sink     Sink
	notifier notify.Notifier
	loc      *time.Location
	mode     Mode
	original models.Task
	closed   bool
	onClose  func()
}

func newForm(deps Deps, mode Mode) *Form {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}

	return &Form{
		log:      sl.Op(deps.Log, "Form", "form").With(slog.String("mode", mode.String())),
		gateway:  deps.Gateway,
		sink:     deps.Sink,
		notifier: deps.Notifier,
		loc:      loc,
		mode:     mode,
	}
}

// NewCreate returns an empty new-task form: a Call at 12:00 PM, status open.
func NewCreate(deps Deps) *Form {
	f := newForm(deps, ModeCreate)
	f.TaskType = models.TaskTypeCall
	f.Hour = 12
	f.Minute = 0
	f.Meridiem = PM
	f.Status = models.StatusOpen

	return f
}

// NewEdit returns a form filled from an existing task.
func NewEdit(deps Deps, task models.Task) (*Form, error) {
	if !task.HasID() {
		return nil, ErrNoTaskID
	}

	f := newForm(deps, ModeEdit)
	f.InitializeFromRecord(task)

	return f, nil
}

// InitializeFromRecord fills the draft from task, splitting task_time into the
// date and 12-hour inputs in the form's location.
func (f *Form) InitializeFromRecord(task models.Task) {
	f.original = task
	f.EntityName = task.EntityName
	f.TaskType = task.TaskType
	f.ContactPerson = task.ContactPerson
	f.Note = task.Note
	f.Status = task.Status
	f.PhoneNumber = ""

	if task.TaskTime.IsZero() {
		f.Date = ""
		f.Hour, f.Minute, f.Meridiem = 12, 0, PM
		return
	}

	local := task.TaskTime.In(f.loc)
	f.Date = local.Format(time.DateOnly)
	f.Hour, f.Meridiem = From24Hour(local.Hour())
	f.Minute = local.Minute()
}

// Mode reports whether the form creates or edits.
func (f *Form) Mode() Mode {
	return f.mode
}

// Closed reports whether the form was submitted successfully or cancelled.
func (f *Form) Closed() bool {
	return f.closed
}

// OnClose registers fn to run when the form closes.
func (f *Form) OnClose(fn func()) {
	f.onClose = fn
}

// Cancel closes the form without submitting.
func (f *Form) Cancel() {
	f.close()
}

// SetTaskType changes the task type and applies OnTaskTypeChange.
func (f *Form) SetTaskType(taskType string) {
	f.TaskType = taskType
	f.OnTaskTypeChange()
}

// OnTaskTypeChange drops the phone number once the type is no longer a Call.
func (f *Form) OnTaskTypeChange() {
	if f.TaskType != models.TaskTypeCall {
		f.PhoneNumber = ""
	}
}

// SetStatus picks the status toggle.
func (f *Form) SetStatus(status models.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	f.Status = status

	return nil
}

// ComposeTaskTime combines the date and the 12-hour inputs into a 24-hour time.
func (f *Form) ComposeTaskTime() (time.Time, error) {
	return composeTime(f.Date, f.Hour, f.Minute, f.Meridiem, f.loc)
}

// Submit validates the draft and sends it. On success the resulting record goes
// to the sink and the form closes; on failure the form stays open.
func (f *Form) Submit(ctx context.Context) (models.Task, error) {
	const opn = "Form.Submit"
	log := f.log.With(slog.String("op", opn))

	if f.closed {
		return models.Task{}, ErrClosed
	}

	if err := f.Validate(); err != nil {
		log.DebugContext(ctx, "Draft rejected", sl.Err(err))
		f.notifier.Notify(ctx, notify.Error("Please fill in all required fields", err))
		return models.Task{}, err
	}

	taskTime, err := f.ComposeTaskTime()
	if err != nil {
		return models.Task{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var task models.Task
	if f.mode == ModeCreate {
		task, err = f.create(ctx, taskTime)
	} else {
		task, err = f.update(ctx, taskTime)
	}

	switch {
	case errors.Is(err, errNoChanges):
		log.DebugContext(ctx, "No changes to submit", sl.TaskID(f.original.ID))
		f.close()
		return f.original, nil
	case err != nil:
		log.ErrorContext(ctx, "Error saving task", sl.Err(err))
		f.notifier.Notify(ctx, notify.Error("Error saving task. Please try again.", err))
		return models.Task{}, err
	}

	log.InfoContext(ctx, "Task saved", sl.TaskID(task.ID))
	f.close()

	return task, nil
}

func (f *Form) create(ctx context.Context, taskTime time.Time) (models.Task, error) {
	draft := models.Draft{
		EntityName:    f.EntityName,
		TaskType:      f.TaskType,
		TaskTime:      models.NewTimestamp(taskTime.UTC()),
		ContactPerson: f.ContactPerson,
		Note:          f.Note,
	}

	task, err := f.gateway.Create(ctx, draft)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	f.sink.OnTaskCreated(task)

	return task, nil
}

// update sends the changed fields, then the status through its own call.
func (f *Form) update(ctx context.Context, taskTime time.Time) (models.Task, error) {
	patch := f.changes(taskTime)
	statusChanged := f.Status != f.original.Status
	if patch.IsEmpty() && !statusChanged {
		return models.Task{}, errNoChanges
	}

	id := f.original.ID
	result := f.original

	if !patch.IsEmpty() {
		updated, err := f.gateway.Update(ctx, id, patch)
		if err != nil {
			return models.Task{}, fmt.Errorf("failed to update task %d: %w", id, err)
		}
		result = updated
	}

	if statusChanged {
		updated, err := f.gateway.UpdateStatus(ctx, id, f.Status)
		if err != nil {
			if !patch.IsEmpty() {
				// the field update already landed; keep the list and the form in step with it
				f.sink.OnTaskUpdated(result)
				f.original = result
			}
			return models.Task{}, fmt.Errorf("failed to update status of task %d: %w", id, err)
		}
		result = updated
	}

	f.sink.OnTaskUpdated(result)

	return result, nil
}

func (f *Form) changes(taskTime time.Time) models.Patch {
	var patch models.Patch
	orig := f.original

	if f.EntityName != orig.EntityName {
		patch.EntityName = ptr(f.EntityName)
	}
	if f.TaskType != orig.TaskType {
		patch.TaskType = ptr(f.TaskType)
	}
	if !taskTime.Equal(orig.TaskTime.Truncate(time.Minute)) {
		patch.TaskTime = ptr(models.NewTimestamp(taskTime.UTC()))
	}
	if f.ContactPerson != orig.ContactPerson {
		patch.ContactPerson = ptr(f.ContactPerson)
	}
	if f.Note != orig.Note {
		patch.Note = ptr(f.Note)
	}

	return patch
}

func ptr[T any](v T) *T {
	return &v
}

func (f *Form) close() {
	if f.closed {
		return
	}
	f.closed = true
	if f.onClose != nil {
		f.onClose()
	}
}
