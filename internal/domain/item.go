// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"sort"
	"time"
)

// Kind discriminates the two record shapes arriving from the shared listing
// endpoint: plain issues and pull requests.
type Kind string

const (
	KindIssue       Kind = "issue"
	KindPullRequest Kind = "pull_request"
)

// ParseKind converts a user-supplied kind string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindIssue, KindPullRequest:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown kind %q: want %q or %q", s, KindIssue, KindPullRequest)
	}
}

// Repo identifies a single repository to aggregate.
type Repo struct {
	Org  string
	Name string
}

// Key returns the "{org}/{repo}" join key used across the pipeline.
func (r Repo) Key() string {
	return r.Org + "/" + r.Name
}

// StaleItem is the canonical record produced by the source adapter.
// (RepoKey, Number, Kind) is unique within a single load cycle.
type StaleItem struct {
	Kind      Kind      `json:"kind"`
	Org       string    `json:"org"`
	RepoName  string    `json:"repoName"`
	RepoKey   string    `json:"repoKey"`
	Title     string    `json:"title"`
	Number    int       `json:"number"`
	Author    string    `json:"author"`
	UpdatedAt time.Time `json:"updatedAt"`
	Labels    []string  `json:"labels"`
	URL       string    `json:"url"`
	State     string    `json:"state"`
}

// Summary holds the headline counts handed to the rendering layer.
type Summary struct {
	TotalStale        int `json:"totalStale"`
	TotalIssues       int `json:"totalIssues"`
	TotalPRs          int `json:"totalPRs"`
	DistinctRepoCount int `json:"distinctRepoCount"`
}

// Aggregation is the complete stale-item collection produced by one load
// cycle. A cycle builds a fresh Aggregation that replaces the previous one
// wholesale; the value is never mutated after construction, which keeps
// partial-failure semantics easy to reason about. All counts are derived
// from the item slice on demand, never cached.
type Aggregation struct {
	items []StaleItem
}

// NewAggregation builds an Aggregation from one load cycle's items.
func NewAggregation(items []StaleItem) *Aggregation {
	return &Aggregation{items: items}
}

// Items returns the collection in load order. The returned slice is a copy;
// callers may reorder it freely without affecting the aggregation.
func (a *Aggregation) Items() []StaleItem {
	items := make([]StaleItem, len(a.items))
	copy(items, a.items)
	return items
}

// TotalCount returns the number of stale items across all repositories.
func (a *Aggregation) TotalCount() int {
	return len(a.items)
}

// CountByKind returns the number of stale items of the given kind.
func (a *Aggregation) CountByKind(kind Kind) int {
	count := 0
	for _, item := range a.items {
		if item.Kind == kind {
			count++
		}
	}
	return count
}

// DistinctRepoKeys returns the deduplicated repository keys that contributed
// at least one item, sorted lexicographically.
func (a *Aggregation) DistinctRepoKeys() []string {
	seen := make(map[string]bool)
	keys := make([]string, 0, len(a.items))
	for _, item := range a.items {
		if !seen[item.RepoKey] {
			seen[item.RepoKey] = true
			keys = append(keys, item.RepoKey)
		}
	}
	sort.Strings(keys)
	return keys
}

// CountByRepo returns the stale-item count per repository key.
func (a *Aggregation) CountByRepo() map[string]int {
	counts := make(map[string]int)
	for _, item := range a.items {
		counts[item.RepoKey]++
	}
	return counts
}

// Summary derives the headline counts for the current collection.
func (a *Aggregation) Summary() Summary {
	return Summary{
		TotalStale:        a.TotalCount(),
		TotalIssues:       a.CountByKind(KindIssue),
		TotalPRs:          a.CountByKind(KindPullRequest),
		DistinctRepoCount: len(a.DistinctRepoKeys()),
	}
}
