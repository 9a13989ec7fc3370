package usecase

import (
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/stale-radar/internal/domain"
)

func newTestTrendReducer(today time.Time) *TrendReducer {
	reducer := NewTrendReducer(log.New(io.Discard, "", 0))
	reducer.now = func() time.Time { return today }
	return reducer
}

func TestParseWindow(t *testing.T) {
	testCases := []struct {
		input       string
		expected    Window
		expectError bool
	}{
		{input: "all", expected: Window{All: true}},
		{input: "7", expected: Window{Days: 7}},
		{input: "365", expected: Window{Days: 365}},
		{input: "0", expectError: true},
		{input: "-3", expectError: true},
		{input: "weekly", expectError: true},
		{input: "", expectError: true},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("input %q", tc.input), func(t *testing.T) {
			window, err := ParseWindow(tc.input)
			if tc.expectError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, window)
			}
		})
	}
}

func TestTrendReducer_WindowFilter(t *testing.T) {
	today := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	day := func(offset int) string {
		return today.AddDate(0, 0, -offset).Format(domain.DateLayout)
	}
	series := []domain.DailySnapshot{
		{Date: day(40), Totals: domain.SnapshotTotals{TotalStale: 40, StaleIssues: 30, StalePRs: 10}},
		{Date: day(10), Totals: domain.SnapshotTotals{TotalStale: 10, StaleIssues: 6, StalePRs: 4}},
		{Date: day(1), Totals: domain.SnapshotTotals{TotalStale: 5, StaleIssues: 3, StalePRs: 2}},
	}
	reducer := newTestTrendReducer(today)

	t.Run("window 7 keeps only snapshots within the trailing week", func(t *testing.T) {
		trend, _ := reducer.Reduce(series, Window{Days: 7})
		assert.Equal(t, []string{day(1)}, trend.Dates)
		assert.Equal(t, []int{5}, trend.Total)
		assert.Equal(t, []int{3}, trend.Issues)
		assert.Equal(t, []int{2}, trend.PRs)
	})

	t.Run("window all keeps every snapshot in ascending order", func(t *testing.T) {
		trend, _ := reducer.Reduce(series, Window{All: true})
		assert.Equal(t, []string{day(40), day(10), day(1)}, trend.Dates)
		assert.Equal(t, []int{40, 10, 5}, trend.Total)
	})

	t.Run("boundary date is included", func(t *testing.T) {
		trend, _ := reducer.Reduce(series, Window{Days: 10})
		assert.Equal(t, []string{day(10), day(1)}, trend.Dates)
	})
}

func TestTrendReducer_Breakdown(t *testing.T) {
	today := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	reducer := newTestTrendReducer(today)

	t.Run("top 10 by count descending, zero counts excluded", func(t *testing.T) {
		// 15 repositories with distinct positive counts plus two zeroes.
		repos := make([]domain.RepoStaleCount, 0, 17)
		for i := 1; i <= 15; i++ {
			repos = append(repos, domain.RepoStaleCount{Repo: fmt.Sprintf("org/repo-%02d", i), TotalStale: i})
		}
		repos = append(repos,
			domain.RepoStaleCount{Repo: "org/clean-1", TotalStale: 0},
			domain.RepoStaleCount{Repo: "org/clean-2", TotalStale: 0},
		)
		series := []domain.DailySnapshot{
			{Date: "2026-08-20", Repositories: []domain.RepoStaleCount{{Repo: "org/old", TotalStale: 99}}},
			{Date: "2026-08-25", Repositories: repos},
		}

		_, breakdown := reducer.Reduce(series, Window{All: true})
		require.Len(t, breakdown, 10)
		// Derived only from the latest snapshot, never from earlier ones.
		assert.Equal(t, domain.RepoStaleCount{Repo: "org/repo-15", TotalStale: 15}, breakdown[0])
		assert.Equal(t, domain.RepoStaleCount{Repo: "org/repo-06", TotalStale: 6}, breakdown[9])
		for _, rc := range breakdown {
			assert.Positive(t, rc.TotalStale)
			assert.NotEqual(t, "org/old", rc.Repo)
		}
	})

	t.Run("empty series yields an empty breakdown", func(t *testing.T) {
		_, breakdown := reducer.Reduce(nil, Window{All: true})
		assert.Empty(t, breakdown)
	})

	t.Run("latest snapshot without repositories yields an empty breakdown", func(t *testing.T) {
		series := []domain.DailySnapshot{
			{Date: "2026-08-25", Totals: domain.SnapshotTotals{TotalStale: 3}},
		}
		_, breakdown := reducer.Reduce(series, Window{All: true})
		assert.Empty(t, breakdown)
	})

	t.Run("window filtering moves which snapshot is latest", func(t *testing.T) {
		series := []domain.DailySnapshot{
			{Date: today.AddDate(0, 0, -20).Format(domain.DateLayout),
				Repositories: []domain.RepoStaleCount{{Repo: "org/a", TotalStale: 4}}},
			{Date: today.AddDate(0, 0, -1).Format(domain.DateLayout),
				Repositories: []domain.RepoStaleCount{{Repo: "org/b", TotalStale: 2}}},
		}
		_, breakdown := reducer.Reduce(series, Window{Days: 7})
		assert.Equal(t, []domain.RepoStaleCount{{Repo: "org/b", TotalStale: 2}}, breakdown)
	})
}

func TestSummarizeTrend(t *testing.T) {
	t.Run("computes mean, median and max of the total sequence", func(t *testing.T) {
		trend := TrendSeries{Total: []int{2, 4, 9}}
		stats, err := SummarizeTrend(trend)
		require.NoError(t, err)
		assert.InDelta(t, 5.0, stats.Mean, 1e-9)
		assert.InDelta(t, 4.0, stats.Median, 1e-9)
		assert.InDelta(t, 9.0, stats.Max, 1e-9)
	})

	t.Run("empty series yields zeroes", func(t *testing.T) {
		stats, err := SummarizeTrend(TrendSeries{})
		require.NoError(t, err)
		assert.Equal(t, TrendStats{}, stats)
	})
}
