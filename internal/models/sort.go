package models

// SortOrder is the direction of a list sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DefaultSortField is the field the list is ordered by before the user picks one.
const DefaultSortField = "created_date"

// Flip returns the opposite direction. Anything that is not desc flips to desc.
func (o SortOrder) Flip() SortOrder {
	if o == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// Sort pairs a field with a direction.
type Sort struct {
	Field string
	Order SortOrder
}

// DefaultSort orders by creation date, newest first.
func DefaultSort() Sort {
	return Sort{Field: DefaultSortField, Order: SortDesc}
}
