package usecase

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/stale-radar/internal/domain"
)

// breakdownLimit caps how many repositories the breakdown reports.
const breakdownLimit = 10

// Window bounds which snapshots contribute to a reduction: the whole series,
// or only snapshots dated within the trailing N days.
type Window struct {
	All  bool
	Days int
}

// ParseWindow parses a window selector: "all", or a positive number of days.
func ParseWindow(s string) (Window, error) {
	if s == "all" {
		return Window{All: true}, nil
	}
	days, err := strconv.Atoi(s)
	if err != nil || days <= 0 {
		return Window{}, fmt.Errorf("invalid window %q: want \"all\" or a positive number of days", s)
	}
	return Window{Days: days}, nil
}

// TrendSeries carries three sequences aligned by date, ready for a
// line-chart renderer.
type TrendSeries struct {
	Dates  []string `json:"dates"`
	Total  []int    `json:"total"`
	Issues []int    `json:"issues"`
	PRs    []int    `json:"prs"`
}

// TrendStats summarizes the windowed total-stale sequence.
type TrendStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// TrendReducer turns the loaded snapshot series into chart-ready series.
type TrendReducer struct {
	logger *log.Logger
	now    func() time.Time
}

// NewTrendReducer creates a new TrendReducer instance.
func NewTrendReducer(logger *log.Logger) *TrendReducer {
	return &TrendReducer{logger: logger, now: time.Now}
}

// Reduce produces the trend and breakdown series for the window. The two
// reductions are deliberately different: the trend series tracks how the
// backlog moves across the whole window, while the breakdown reports where
// the backlog is concentrated right now, so it reads only the most recent
// snapshot in the window.
//
// The input series must already be sorted ascending by date, which is the
// HistoryLoader's output contract.
func (r *TrendReducer) Reduce(series []domain.DailySnapshot, w Window) (TrendSeries, []domain.RepoStaleCount) {
	filtered := series
	if !w.All {
		cutoff := r.now().AddDate(0, 0, -w.Days).Format(domain.DateLayout)
		filtered = make([]domain.DailySnapshot, 0, len(series))
		for _, s := range series {
			if s.Date >= cutoff {
				filtered = append(filtered, s)
			}
		}
	}

	trend := TrendSeries{
		Dates:  make([]string, 0, len(filtered)),
		Total:  make([]int, 0, len(filtered)),
		Issues: make([]int, 0, len(filtered)),
		PRs:    make([]int, 0, len(filtered)),
	}
	for _, s := range filtered {
		trend.Dates = append(trend.Dates, s.Date)
		trend.Total = append(trend.Total, s.Totals.TotalStale)
		trend.Issues = append(trend.Issues, s.Totals.StaleIssues)
		trend.PRs = append(trend.PRs, s.Totals.StalePRs)
	}

	r.logger.Printf("Reduced %d snapshots to a %d-point trend series.", len(series), len(trend.Dates))
	return trend, breakdown(filtered)
}

// breakdown derives the point-in-time repository distribution from the
// latest snapshot of the filtered series: zero-count entries are dropped,
// the rest sorted descending by count, capped at the top 10. An empty series
// or a snapshot without repository entries yields an empty breakdown.
func breakdown(filtered []domain.DailySnapshot) []domain.RepoStaleCount {
	if len(filtered) == 0 {
		return []domain.RepoStaleCount{}
	}
	latest := filtered[len(filtered)-1]
	counts := make([]domain.RepoStaleCount, 0, len(latest.Repositories))
	for _, rc := range latest.Repositories {
		if rc.TotalStale > 0 {
			counts = append(counts, rc)
		}
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].TotalStale > counts[j].TotalStale
	})
	if len(counts) > breakdownLimit {
		counts = counts[:breakdownLimit]
	}
	return counts
}

// SummarizeTrend computes summary statistics over the total-stale sequence
// of an already-reduced trend series. An empty series yields zeroes.
func SummarizeTrend(trend TrendSeries) (TrendStats, error) {
	if len(trend.Total) == 0 {
		return TrendStats{}, nil
	}
	data := stats.LoadRawData(trend.Total)
	mean, err := stats.Mean(data)
	if err != nil {
		return TrendStats{}, fmt.Errorf("failed to compute mean: %w", err)
	}
	median, err := stats.Median(data)
	if err != nil {
		return TrendStats{}, fmt.Errorf("failed to compute median: %w", err)
	}
	max, err := stats.Max(data)
	if err != nil {
		return TrendStats{}, fmt.Errorf("failed to compute max: %w", err)
	}
	return TrendStats{Mean: mean, Median: median, Max: max}, nil
}
