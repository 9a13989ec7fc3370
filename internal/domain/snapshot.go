package domain

import (
	"sort"
	"time"
)

// DateLayout is the calendar-date format snapshots are addressed by.
const DateLayout = "2006-01-02"

// SnapshotTotals holds the aggregate counts recorded for one day. A snapshot
// file may omit the totals object entirely; the zero value is the documented
// default (all counts 0), so decoding an absent object needs no special case.
type SnapshotTotals struct {
	TotalStale  int `json:"totalStale"`
	StaleIssues int `json:"staleIssues"`
	StalePRs    int `json:"stalePRs"`
}

// RepoStaleCount is one repository's contribution to a snapshot or breakdown.
type RepoStaleCount struct {
	Repo       string `json:"repo"`
	TotalStale int    `json:"totalStale"`
}

// DailySnapshot is one recorded day of stale-item counts. At most one
// snapshot exists per date, and a loaded snapshot is never mutated, only read.
type DailySnapshot struct {
	Date         string           `json:"date"`
	Totals       SnapshotTotals   `json:"totals"`
	Repositories []RepoStaleCount `json:"repositories,omitempty"`
}

// Normalize pins the snapshot to the date it was addressed by, which keeps
// the at-most-one-per-date invariant independent of what the file body
// claims. It is applied once at the ingestion boundary.
func (s *DailySnapshot) Normalize(date time.Time) {
	s.Date = date.Format(DateLayout)
}

// NewDailySnapshot derives the snapshot record for a date from a completed
// load cycle. Repository entries are ordered lexicographically by key.
func NewDailySnapshot(agg *Aggregation, date time.Time) *DailySnapshot {
	counts := agg.CountByRepo()
	repos := make([]RepoStaleCount, 0, len(counts))
	for key, n := range counts {
		repos = append(repos, RepoStaleCount{Repo: key, TotalStale: n})
	}
	sort.Slice(repos, func(i, j int) bool {
		return repos[i].Repo < repos[j].Repo
	})
	return &DailySnapshot{
		Date: date.Format(DateLayout),
		Totals: SnapshotTotals{
			TotalStale:  agg.TotalCount(),
			StaleIssues: agg.CountByKind(KindIssue),
			StalePRs:    agg.CountByKind(KindPullRequest),
		},
		Repositories: repos,
	}
}
