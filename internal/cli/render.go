package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/UnknownOlympus/iris/internal/models"
)

const (
	displayLayout = "2006-01-02 03:04 PM"
	noteWidth     = 40
)

func printTasks(out io.Writer, loc *time.Location, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tENTITY\tTYPE\tTIME\tCONTACT\tSTATUS\tNOTE")
	for _, task := range tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			task.ID,
			formatTime(task.CreatedDate, loc),
			task.EntityName,
			task.TaskType,
			formatTime(task.TaskTime, loc),
			task.ContactPerson,
			task.Status,
			truncate(task.Note, noteWidth),
		)
	}
	_ = tw.Flush()
}

func printTask(out io.Writer, loc *time.Location, task models.Task) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", task.ID)
	fmt.Fprintf(tw, "Created:\t%s\n", formatTime(task.CreatedDate, loc))
	fmt.Fprintf(tw, "Entity:\t%s\n", task.EntityName)
	fmt.Fprintf(tw, "Type:\t%s\n", task.TaskType)
	fmt.Fprintf(tw, "Time:\t%s\n", formatTime(task.TaskTime, loc))
	fmt.Fprintf(tw, "Contact:\t%s\n", task.ContactPerson)
	fmt.Fprintf(tw, "Status:\t%s\n", task.Status)
	if task.Note != "" {
		fmt.Fprintf(tw, "Note:\t%s\n", task.Note)
	}
	_ = tw.Flush()
}

func formatTime(ts models.Timestamp, loc *time.Location) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.In(loc).Format(displayLayout)
}

func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}
