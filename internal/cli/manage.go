package cli

import (
	"errors"
	"fmt"

	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/UnknownOlympus/iris/internal/tasklist"
	"github.com/spf13/cobra"
)

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "status <id> <open|closed>",
		Short:     "Open or close a task",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(models.StatusOpen), string(models.StatusClosed)},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.flushNotes()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return a.setStatus(cmd, id, models.Status(args[1]))
		},
	}
}

func (a *app) setStatus(cmd *cobra.Command, id int, status models.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if err := a.list.UpdateStatus(cmd.Context(), id, status); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Task %d is now %s.\n", id, status)
	return nil
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task after confirmation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.flushNotes()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return a.deleteTask(cmd, id)
		},
	}
}

func (a *app) deleteTask(cmd *cobra.Command, id int) error {
	err := a.list.RequestDelete(cmd.Context(), id)
	if errors.Is(err, tasklist.ErrDeleteDeclined) {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	return err
}
