package cli

import (
	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/spf13/cobra"
)

// filterFlags maps list flags onto the query parameters of the task API.
var filterFlags = []struct{ flag, param, usage string }{
	{"entity", "entity_name", "entity name contains"},
	{"type", "task_type", "task type equals"},
	{"status", "status", "status equals: open or closed"},
	{"contact", "contact_person", "contact person contains"},
	{"from", "start_date", "task time on or after (YYYY-MM-DD or ISO-8601)"},
	{"to", "end_date", "task time on or before (YYYY-MM-DD or ISO-8601)"},
}

func (a *app) newListCmd() *cobra.Command {
	var (
		values    = make([]string, len(filterFlags))
		sortBy    string
		sortOrder string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.flushNotes()

			filters := map[string]string{}
			for i, f := range filterFlags {
				if values[i] != "" {
					filters[f.param] = values[i]
				}
			}

			a.list.UseSort(models.Sort{Field: sortBy, Order: models.SortOrder(sortOrder)})
			if err := a.list.ApplyFilters(cmd.Context(), filters); err != nil {
				return err
			}

			printTasks(a.out, a.loc, a.list.Tasks())
			return nil
		},
	}

	for i, f := range filterFlags {
		cmd.Flags().StringVar(&values[i], f.flag, "", f.usage)
	}
	cmd.Flags().StringVar(&sortBy, "sort-by", models.DefaultSortField, "field to sort by")
	cmd.Flags().StringVar(&sortOrder, "order", string(models.SortDesc), "sort order: asc or desc")

	return cmd
}
