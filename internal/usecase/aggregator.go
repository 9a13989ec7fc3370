// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/stale-radar/internal/domain"
	"github.com/naka-gawa/stale-radar/internal/gateway"
)

// fetchConcurrency bounds the number of in-flight repository fetches per
// load cycle. Results are placed in per-repository slots and concatenated
// in configured order, so the output never depends on completion order.
const fetchConcurrency = 4

// Aggregator is the use case for running a load cycle: fetching stale items
// from every configured repository and combining them into one collection.
type Aggregator struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger *log.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// ResolveRepos expands the configured repository list with org-wide
// discovery and deduplicates by repository key, preserving first-seen order.
func (a *Aggregator) ResolveRepos(ctx context.Context, repos []domain.Repo, orgs []string) ([]domain.Repo, error) {
	seen := make(map[string]bool)
	resolved := make([]domain.Repo, 0, len(repos))
	add := func(r domain.Repo) {
		if !seen[r.Key()] {
			seen[r.Key()] = true
			resolved = append(resolved, r)
		}
	}
	for _, r := range repos {
		add(r)
	}
	for _, org := range orgs {
		discovered, err := a.fetcher.ListOrgRepos(ctx, org)
		if err != nil {
			return nil, fmt.Errorf("failed to discover repositories for org %s: %w", org, err)
		}
		for _, r := range discovered {
			add(r)
		}
	}
	return resolved, nil
}

// LoadAll runs one load cycle. Each repository is fetched as its own task
// with its failure isolated: a repository whose fetch fails is logged and
// contributes no items while the rest of the cycle proceeds. The cycle as a
// whole fails only when every configured repository failed, in which case no
// partial collection is returned.
//
// The returned Aggregation is a fresh value replacing any previous cycle's
// collection; nothing is merged or diffed across cycles.
func (a *Aggregator) LoadAll(ctx context.Context, repos []domain.Repo) (*domain.Aggregation, error) {
	a.logger.Printf("Usecase: Loading stale items from %d repositories...", len(repos))

	results := make([][]domain.StaleItem, len(repos))
	failures := make([]error, len(repos))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(fetchConcurrency)
	for i, repo := range repos {
		eg.Go(func() error {
			items, err := a.fetcher.FetchStaleItems(egCtx, repo)
			if err != nil {
				a.logger.Printf("  %s failed, contributing no items: %v", repo.Key(), err)
				failures[i] = err
				return nil
			}
			results[i] = items
			return nil
		})
	}
	// Tasks isolate their own failures, so Wait never reports one.
	_ = eg.Wait()

	failed := 0
	var firstErr error
	for _, err := range failures {
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if len(repos) > 0 && failed == len(repos) {
		return nil, fmt.Errorf("all %d repositories failed to load: %w", failed, firstErr)
	}

	var items []domain.StaleItem
	for _, r := range results {
		items = append(items, r...)
	}
	agg := domain.NewAggregation(items)
	a.logger.Printf("Usecase: Load cycle complete: %d stale items across %d repositories.",
		agg.TotalCount(), len(agg.DistinctRepoKeys()))
	return agg, nil
}
