package domain

// SortField names a sortable bucket item attribute.
type SortField string

const (
	SortByTitle     SortField = "title"
	SortByPriority  SortField = "priority"
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
	SortByDueDate   SortField = "due_date"
)

// Valid reports whether f is a supported sort field.
func (f SortField) Valid() bool {
	switch f {
	case SortByTitle, SortByPriority, SortByCreatedAt, SortByUpdatedAt, SortByDueDate:
		return true
	}
	return false
}

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec orders a list of items.
type SortSpec struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// DefaultSort lists the newest items first.
var DefaultSort = SortSpec{Field: SortByCreatedAt, Direction: SortDesc}
