package types

// PaginatedResult wraps a page of items with the usual pagination metadata.
type PaginatedResult[T any] struct {
	Items           []T   `json:"items"`
	Total           int64 `json:"total"`
	Page            int   `json:"page"`
	PageSize        int   `json:"page_size"`
	TotalPages      int   `json:"total_pages"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

// NewPaginatedResult computes the derived pagination fields for a page.
func NewPaginatedResult[T any](items []T, total int64, page, pageSize int) PaginatedResult[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if items == nil {
		items = []T{}
	}
	return PaginatedResult[T]{
		Items:           items,
		Total:           total,
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}
