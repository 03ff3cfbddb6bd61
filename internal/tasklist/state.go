package tasklist

import (
	"maps"
	"slices"

	"github.com/UnknownOlympus/iris/internal/models"
)

// State is everything the list view shows: the held tasks in the order of the last
// successful load (plus optimistic edits), the active filters and the sort.
type State struct {
	Tasks   []models.Task
	Filters map[string]string
	Sort    models.Sort
}

// NewState returns the initial state: no tasks, no filters, newest first.
func NewState() State {
	return State{
		Tasks:   []models.Task{},
		Filters: map[string]string{},
		Sort:    models.DefaultSort(),
	}
}

func (s State) clone() State {
	filters := maps.Clone(s.Filters)
	if filters == nil {
		filters = map[string]string{}
	}

	return State{
		Tasks:   slices.Clone(s.Tasks),
		Filters: filters,
		Sort:    s.Sort,
	}
}

// toggleSort applies the column-click rule: the same field flips the direction,
// a new field starts ascending.
func (s *State) toggleSort(field string) {
	if s.Sort.Field == field {
		s.Sort.Order = s.Sort.Order.Flip()
		return
	}

	s.Sort = models.Sort{Field: field, Order: models.SortAsc}
}

func (s *State) indexOf(id int) int {
	return slices.IndexFunc(s.Tasks, func(task models.Task) bool {
		return task.ID == id
	})
}
