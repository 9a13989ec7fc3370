package usecase

import (
	"sort"
	"strings"

	"github.com/naka-gawa/stale-radar/internal/domain"
)

// Sortable item fields. UpdatedAt compares as an instant, Number as an
// integer; every other field compares case-insensitively as a string.
const (
	SortByUpdatedAt = "updatedAt"
	SortByNumber    = "number"
	SortByTitle     = "title"
	SortByRepo      = "repo"
	SortByAuthor    = "author"
	SortByKind      = "kind"
	SortByState     = "state"
)

// Predicate is a conjunctive filter over the aggregation. A zero-value field
// imposes no constraint on that field; all present fields must match.
type Predicate struct {
	RepoKey       string
	Kind          domain.Kind
	TitleContains string
}

// Match reports whether the item satisfies every present predicate field.
// The title constraint is a case-insensitive substring match.
func (p Predicate) Match(item domain.StaleItem) bool {
	if p.RepoKey != "" && item.RepoKey != p.RepoKey {
		return false
	}
	if p.Kind != "" && item.Kind != p.Kind {
		return false
	}
	if p.TitleContains != "" &&
		!strings.Contains(strings.ToLower(item.Title), strings.ToLower(p.TitleContains)) {
		return false
	}
	return true
}

// ApplyFilter returns the items matching the predicate, preserving input
// order. An empty predicate returns the full input unchanged.
func ApplyFilter(items []domain.StaleItem, p Predicate) []domain.StaleItem {
	filtered := make([]domain.StaleItem, 0, len(items))
	for _, item := range items {
		if p.Match(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// SortBy returns a new ordering of items by the given field. The sort is
// stable: items with equal keys retain their relative input order, in both
// directions.
func SortBy(items []domain.StaleItem, field string, ascending bool) []domain.StaleItem {
	sorted := make([]domain.StaleItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return itemLess(sorted[i], sorted[j], field)
		}
		return itemLess(sorted[j], sorted[i], field)
	})
	return sorted
}

func itemLess(a, b domain.StaleItem, field string) bool {
	switch field {
	case SortByUpdatedAt:
		return a.UpdatedAt.Before(b.UpdatedAt)
	case SortByNumber:
		return a.Number < b.Number
	default:
		return strings.ToLower(stringField(a, field)) < strings.ToLower(stringField(b, field))
	}
}

func stringField(item domain.StaleItem, field string) string {
	switch field {
	case SortByRepo:
		return item.RepoKey
	case SortByAuthor:
		return item.Author
	case SortByKind:
		return string(item.Kind)
	case SortByState:
		return item.State
	default:
		return item.Title
	}
}

// SortState tracks the active sort column the way a click-to-sort table
// header behaves: selecting the current field flips the direction, selecting
// a new field sorts descending (newest/largest first) as the new default.
type SortState struct {
	Field     string
	Ascending bool
}

// Toggle applies a column selection to the state.
func (s *SortState) Toggle(field string) {
	if s.Field == field {
		s.Ascending = !s.Ascending
		return
	}
	s.Field = field
	s.Ascending = false
}

// Apply sorts items by the current state. An unset state leaves the input
// order untouched.
func (s *SortState) Apply(items []domain.StaleItem) []domain.StaleItem {
	if s.Field == "" {
		return items
	}
	return SortBy(items, s.Field, s.Ascending)
}
