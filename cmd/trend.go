package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/stale-radar/internal/domain"
	"github.com/naka-gawa/stale-radar/internal/gateway"
	"github.com/naka-gawa/stale-radar/internal/usecase"
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Reconstructs the stale-item trend from daily snapshots and outputs as JSON",
	Long: `Loads the trailing window of daily snapshot files, reduces them to the trend
series (total, issues, PRs over time) and the current repository breakdown,
and prints both as JSON together with summary statistics.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		windowStr, _ := cmd.Flags().GetString("window")
		window, err := usecase.ParseWindow(windowStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		store := gateway.NewFileSnapshotStore(cfg.HistoryDir, logger)
		loader := usecase.NewHistoryLoader(store, logger)
		reducer := usecase.NewTrendReducer(logger)

		series := loader.LoadWindow(ctx, cfg.HistoryDays)
		trend, breakdown := reducer.Reduce(series, window)
		stats, err := usecase.SummarizeTrend(trend)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		out := struct {
			Trend     usecase.TrendSeries     `json:"trend"`
			Breakdown []domain.RepoStaleCount `json:"breakdown"`
			Stats     usecase.TrendStats      `json:"stats"`
		}{Trend: trend, Breakdown: breakdown, Stats: stats}

		jsonData, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	},
}

func init() {
	rootCmd.AddCommand(trendCmd)
	trendCmd.Flags().String("window", "all", `Trailing window: "all" or a number of days`)
}
