// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/stale-radar/internal/domain"
	"github.com/naka-gawa/stale-radar/internal/gateway"
	"github.com/naka-gawa/stale-radar/internal/usecase"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Loads stale items from all configured repositories and prints the current view",
	Long: `Runs one load cycle over the configured repositories, applies the requested
filter and sort, and prints the resulting view as a table or JSON along with
summary counts.`,
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
			// Total failure: one message, no partial view.
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		pred := usecase.Predicate{}
		pred.RepoKey, _ = cmd.Flags().GetString("repo")
		pred.TitleContains, _ = cmd.Flags().GetString("title")
		if kindStr, _ := cmd.Flags().GetString("kind"); kindStr != "" {
			kind, err := domain.ParseKind(kindStr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			pred.Kind = kind
		}
		sortField, _ := cmd.Flags().GetString("sort")
		ascending, _ := cmd.Flags().GetBool("asc")

		items := usecase.ApplyFilter(agg.Items(), pred)
		items = usecase.SortBy(items, sortField, ascending)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			out := struct {
				Items   []domain.StaleItem `json:"items"`
				Summary domain.Summary     `json:"summary"`
			}{Items: items, Summary: agg.Summary()}
			jsonData, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(jsonData))
			return
		}

		renderItemTable(items)
		printSummary(agg.Summary())
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().String("repo", "", "Filter by repository key (org/repo)")
	snapshotCmd.Flags().String("kind", "", "Filter by kind (issue or pull_request)")
	snapshotCmd.Flags().String("title", "", "Filter by case-insensitive title substring")
	snapshotCmd.Flags().String("sort", usecase.SortByUpdatedAt, "Sort field (updatedAt, number, title, repo, author, kind, state)")
	snapshotCmd.Flags().Bool("asc", false, "Sort ascending instead of descending")
	snapshotCmd.Flags().Bool("json", false, "Output JSON instead of a table")
}

func renderItemTable(items []domain.StaleItem) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
		}),
	)
	table.Header([]string{"Kind", "Repository", "#", "Title", "Author", "Updated", "Labels"})
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			string(item.Kind),
			item.RepoKey,
			fmt.Sprintf("%d", item.Number),
			item.Title,
			item.Author,
			item.UpdatedAt.Format("2006-01-02 15:04"),
			strings.Join(item.Labels, ","),
		})
	}
	table.Bulk(rows)
	table.Render()
}

func printSummary(s domain.Summary) {
	bold := color.New(color.Bold)
	fmt.Println()
	bold.Printf("%d stale items", s.TotalStale)
	fmt.Printf(" (%s issues, %s PRs) across %d repositories\n",
		color.CyanString("%d", s.TotalIssues),
		color.MagentaString("%d", s.TotalPRs),
		s.DistinctRepoCount)
}
