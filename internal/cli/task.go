package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/iris/internal/form"
	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// taskFlags are the form inputs shared by create and edit.
type taskFlags struct {
	entity  string
	typ     string
	date    string
	clock   string
	phone   string
	contact string
	note    string
	status  string
}

func (tf *taskFlags) register(flags *pflag.FlagSet, defaultType string) {
	flags.StringVar(&tf.entity, "entity", "", "entity (company) name")
	flags.StringVar(&tf.typ, "type", defaultType, "task type, e.g. Call, Meeting, Email")
	flags.StringVar(&tf.date, "date", "", "task date, YYYY-MM-DD")
	flags.StringVar(&tf.clock, "time", "12:00 PM", `task time on a 12-hour clock, e.g. "1:30 PM"`)
	flags.StringVar(&tf.phone, "phone", "", "phone number, required for Call tasks")
	flags.StringVar(&tf.contact, "contact", "", "contact person")
	flags.StringVar(&tf.note, "note", "", "free-form note")
}

func (tf *taskFlags) registerStatus(flags *pflag.FlagSet) {
	flags.StringVar(&tf.status, "status", "", "status: open or closed")
}

// apply copies the flags that were set onto f. With onlyChanged false every flag
// is copied, defaults included.
func (tf *taskFlags) apply(f *form.Form, flags *pflag.FlagSet, onlyChanged bool) error {
	use := func(name string) bool {
		return !onlyChanged || flags.Changed(name)
	}

	if use("entity") {
		f.EntityName = tf.entity
	}
	if use("date") {
		f.Date = tf.date
	}
	if use("time") {
		hour, minute, meridiem, err := parseClock(tf.clock)
		if err != nil {
			return err
		}
		f.Hour, f.Minute, f.Meridiem = hour, minute, meridiem
	}
	if use("phone") {
		f.PhoneNumber = tf.phone
	}
	if use("contact") {
		f.ContactPerson = tf.contact
	}
	if use("note") {
		f.Note = tf.note
	}
	if use("type") {
		f.SetTaskType(tf.typ)
	}
	if flags.Lookup("status") != nil && flags.Changed("status") {
		if err := f.SetStatus(models.Status(tf.status)); err != nil {
			return err
		}
	}

	return nil
}

// parseClock reads "1:30 PM", "1:30pm" or a 24-hour "13:30".
func parseClock(value string) (int, int, form.Meridiem, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	for _, layout := range []string{"3:04 PM", "3:04PM", "15:04"} {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		hour, meridiem := form.From24Hour(parsed.Hour())
		return hour, parsed.Minute(), meridiem, nil
	}

	return 0, 0, "", fmt.Errorf("invalid time %q, expected e.g. \"1:30 PM\"", value)
}

func (a *app) newCreateCmd() *cobra.Command {
	var tf taskFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Long:  "Create a task. New tasks are always open.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.flushNotes()

			task, err := a.createTask(cmd.Context(), &tf, cmd.Flags(), nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, "Task created.")
			printTask(a.out, a.loc, task)
			return nil
		},
	}
	tf.register(cmd.Flags(), models.TaskTypeCall)

	return cmd
}

func (a *app) newEditCmd() *cobra.Command {
	var tf taskFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task",
		Long: `Edit a task. Only the flags given are changed.

Phone numbers are not stored, so editing a Call task needs --phone again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.flushNotes()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			task, err := a.gateway.Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load task %d: %w", id, err)
			}

			updated, err := a.editTask(cmd.Context(), task, &tf, cmd.Flags(), nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, "Task saved.")
			printTask(a.out, a.loc, updated)
			return nil
		},
	}
	tf.register(cmd.Flags(), "")
	tf.registerStatus(cmd.Flags())

	return cmd
}

// createTask fills a create form from flags and submits it. onClose runs once
// when the form closes, after a save or when a failed form is abandoned.
func (a *app) createTask(ctx context.Context, tf *taskFlags, flags *pflag.FlagSet, onClose func()) (models.Task, error) {
	f := form.NewCreate(a.formDeps())
	return a.submitForm(ctx, f, func() error { return tf.apply(f, flags, false) }, onClose)
}

// editTask fills an edit form for task from the changed flags and submits it.
func (a *app) editTask(
	ctx context.Context,
	task models.Task,
	tf *taskFlags,
	flags *pflag.FlagSet,
	onClose func(),
) (models.Task, error) {
	f, err := form.NewEdit(a.formDeps(), task)
	if err != nil {
		return models.Task{}, err
	}
	return a.submitForm(ctx, f, func() error { return tf.apply(f, flags, true) }, onClose)
}

func (a *app) submitForm(ctx context.Context, f *form.Form, fill func() error, onClose func()) (models.Task, error) {
	if onClose != nil {
		f.OnClose(onClose)
	}

	if err := fill(); err != nil {
		f.Cancel()
		return models.Task{}, err
	}

	task, err := f.Submit(ctx)
	if err != nil {
		f.Cancel()
		return models.Task{}, describeSubmitError(err)
	}

	return task, nil
}

func describeSubmitError(err error) error {
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("task not saved: %w", verr)
	}
	return err
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}
