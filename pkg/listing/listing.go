// Package listing filters and paginates backoffice lists in memory, the way
// the list screens work over a full collection fetched once.
package listing

import "strings"

const (
	// DefaultPageSize is used when Paginate gets a non-positive size.
	DefaultPageSize = 30
	// MaxPageButtons bounds the page window.
	MaxPageButtons = 15
	// AllStatuses disables the status filter.
	AllStatuses = "Todos"
)

// Criteria narrows a list. Zero values disable the matching filter.
type Criteria struct {
	// Search is matched case-insensitively as a substring of the row haystack.
	Search string
	// Status must equal the row status unless empty or AllStatuses.
	Status string
	// From alone selects a single day; From and To select an inclusive range.
	// Both are YYYY-MM-DD.
	From string
	To   string
}

// Fields tells Filter how to read a row.
type Fields[T any] struct {
	Haystack func(T) string
	Status   func(T) string
	Date     func(T) string
}

// Filter returns the rows of items matching c, preserving order.
func Filter[T any](items []T, c Criteria, f Fields[T]) []T {
	term := strings.ToUpper(strings.TrimSpace(c.Search))
	status := strings.TrimSpace(c.Status)
	from, to := strings.TrimSpace(c.From), strings.TrimSpace(c.To)

	out := make([]T, 0, len(items))
	for _, it := range items {
		if term != "" && f.Haystack != nil && !strings.Contains(strings.ToUpper(f.Haystack(it)), term) {
			continue
		}
		if status != "" && status != AllStatuses && f.Status != nil && f.Status(it) != status {
			continue
		}
		if f.Date != nil && !matchDate(dayOf(f.Date(it)), from, to) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matchDate(day, from, to string) bool {
	switch {
	case from != "" && to == "":
		return day == from
	case from != "" && to != "":
		return day != "" && day >= from && day <= to
	default:
		return true
	}
}

// dayOf keeps the YYYY-MM-DD prefix of an ISO date or timestamp.
func dayOf(v string) string {
	if len(v) > 10 {
		return v[:10]
	}
	return v
}

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items      []T
	Number     int
	TotalPages int
	Total      int
}

// Paginate returns page number of items, size rows per page. Out-of-range
// pages are clamped and an empty list still has one page.
func Paginate[T any](items []T, number, size int) Page[T] {
	if size < 1 {
		size = DefaultPageSize
	}
	total := len(items)
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	start := (number - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return Page[T]{
		Items:      items[start:end],
		Number:     number,
		TotalPages: pages,
		Total:      total,
	}
}

// PageWindow returns the page numbers to offer around current.
func PageWindow(current, totalPages int) []int {
	start := current - MaxPageButtons/2
	if start < 1 {
		start = 1
	}
	end := start + MaxPageButtons - 1
	if end > totalPages {
		end = totalPages
	}

	out := make([]int, 0, MaxPageButtons)
	for p := start; p <= end; p++ {
		out = append(out, p)
	}
	return out
}
