package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/stale-radar/internal/gateway"
	"github.com/naka-gawa/stale-radar/internal/server"
	"github.com/naka-gawa/stale-radar/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the aggregated view and trend series as a JSON API",
	Long: `Runs an initial load cycle, then serves the filtered/sorted item view,
summary counts, and trend series over HTTP for an external rendering layer.
POST /api/refresh triggers a new load cycle; concurrent refreshes are
serialized, and readers always see a complete cycle's output.`,
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

		store := gateway.NewFileSnapshotStore(cfg.HistoryDir, logger)
		loader := usecase.NewHistoryLoader(store, logger)
		reducer := usecase.NewTrendReducer(logger)

		srv := server.New(aggregator, loader, reducer, repos, cfg.HistoryDays, logger)

		// The server stays up even when the initial cycle fails entirely;
		// /api/refresh can retry once upstream recovers.
		if err := srv.Refresh(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Initial load failed: %v\n", err)
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}
		if err := srv.Start(addr); err != nil {
			fmt.Fprintf(os.Stderr, "Server stopped: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
}
