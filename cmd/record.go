package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/stale-radar/internal/domain"
	"github.com/naka-gawa/stale-radar/internal/gateway"
	"github.com/naka-gawa/stale-radar/internal/usecase"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Runs a load cycle and writes today's snapshot to the history store",
	Long: `Runs one load cycle over the configured repositories and records the result
as today's daily snapshot file. Running it again the same day overwrites that
day's file, so at most one snapshot exists per date. Intended to run on a
daily schedule; the trend command reads the files this produces.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		githubGateway, err := gateway.NewGitHubGateway(cfg.Token, cfg.StaleLabel, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		aggregator := usecase.NewAggregator(githubGateway, logger)

		repos, err := aggregator.ResolveRepos(ctx, cfg.RepoList(), cfg.Orgs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		agg, err := aggregator.LoadAll(ctx, repos)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		snapshot := domain.NewDailySnapshot(agg, time.Now())
		store := gateway.NewFileSnapshotStore(cfg.HistoryDir, logger)
		if err := store.Save(ctx, snapshot); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Recorded snapshot for %s: %d stale items (%d issues, %d PRs)\n",
			snapshot.Date, snapshot.Totals.TotalStale, snapshot.Totals.StaleIssues, snapshot.Totals.StalePRs)
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
}
