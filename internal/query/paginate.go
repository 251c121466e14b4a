package query

// Meta describes the page returned alongside the items.
type Meta struct {
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Page is one slice of a sorted result set.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// Paginate cuts the requested page out of items. Pages past the end are empty,
// and an empty input reports zero total pages.
func Paginate[T any](items []T, page, limit int) Page[T] {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimits.DefaultLimit
	}

	total := len(items)
	meta := Meta{
		TotalItems:   total,
		TotalPages:   (total + limit - 1) / limit,
		CurrentPage:  page,
		ItemsPerPage: limit,
	}

	start := (page - 1) * limit
	if start >= total {
		return Page[T]{Items: []T{}, Meta: meta}
	}
	end := start + limit
	if end > total {
		end = total
	}
	return Page[T]{Items: append([]T(nil), items[start:end]...), Meta: meta}
}
