// Package gateway provides access to the external collaborators of the
// pipeline: the GitHub items API and the snapshot file store.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/stale-radar/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching stale items and
// repository listings from GitHub.
type Fetcher interface {
	FetchStaleItems(ctx context.Context, repo domain.Repo) ([]domain.StaleItem, error)
	ListOrgRepos(ctx context.Context, org string) ([]domain.Repo, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	staleLabel    string
	logger        *log.Logger
}

// orgReposQuery lists an organization's repositories for org-wide discovery.
type orgReposQuery struct {
	Organization struct {
		Repositories struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Name       string
				IsArchived bool
			}
		} `graphql:"repositories(first: 100, after: $cursor)"`
	} `graphql:"organization(login: $org)"`
}

// NewGitHubGateway creates a new GitHubGateway. An empty token yields an
// unauthenticated client; the Authorization header is only set when a token
// is configured.
func NewGitHubGateway(token, staleLabel string, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	httpClient := &http.Client{Transport: rateLimitWaiter}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient.Transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		}
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		staleLabel:    staleLabel,
		logger:        logger,
	}, nil
}

// FetchStaleItems fetches the open items carrying the stale label for one
// repository and normalizes them into the canonical StaleItem shape.
//
// Only the first page (100 items) is fetched. A repository with more than
// 100 stale items contributes its first page only; this is a known
// limitation, not silently worked around.
func (g *GitHubGateway) FetchStaleItems(ctx context.Context, repo domain.Repo) ([]domain.StaleItem, error) {
	g.logger.Printf("Fetching stale items for %s...", repo.Key())
	opts := &github.IssueListByRepoOptions{
		Labels:      []string{g.staleLabel},
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	issues, _, err := g.restClient.Issues.ListByRepo(ctx, repo.Org, repo.Name, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale items for %s: %w", repo.Key(), err)
	}
	items := make([]domain.StaleItem, 0, len(issues))
	for _, issue := range issues {
		items = append(items, normalizeIssue(repo, issue))
	}
	g.logger.Printf("  %s: %d stale items", repo.Key(), len(items))
	return items, nil
}

// normalizeIssue maps one raw listing record to the canonical shape. The
// listing endpoint returns issues and pull requests intermixed; a record is
// a pull request iff it carries the pull_request marker.
func normalizeIssue(repo domain.Repo, issue *github.Issue) domain.StaleItem {
	kind := domain.KindIssue
	if issue.PullRequestLinks != nil {
		kind = domain.KindPullRequest
	}
	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}
	return domain.StaleItem{
		Kind:      kind,
		Org:       repo.Org,
		RepoName:  repo.Name,
		RepoKey:   repo.Key(),
		Title:     issue.GetTitle(),
		Number:    issue.GetNumber(),
		Author:    issue.GetUser().GetLogin(),
		UpdatedAt: issue.GetUpdatedAt().Time,
		Labels:    labels,
		URL:       issue.GetHTMLURL(),
		State:     issue.GetState(),
	}
}

// ListOrgRepos enumerates an organization's non-archived repositories via
// the GraphQL API, following pagination cursors.
func (g *GitHubGateway) ListOrgRepos(ctx context.Context, org string) ([]domain.Repo, error) {
	g.logger.Printf("Discovering repositories for org %s...", org)
	variables := map[string]interface{}{
		"org":    githubv4.String(org),
		"cursor": (*githubv4.String)(nil),
	}
	var repos []domain.Repo
	for {
		var q orgReposQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to list repositories for org %s: %w", org, err)
		}
		for _, node := range q.Organization.Repositories.Nodes {
			if node.IsArchived {
				continue
			}
			repos = append(repos, domain.Repo{Org: org, Name: node.Name})
		}
		if !q.Organization.Repositories.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Organization.Repositories.PageInfo.EndCursor)
		g.logger.Println("  Fetching next page of repositories...")
	}
	g.logger.Printf("Discovered %d repositories in org %s.", len(repos), org)
	return repos, nil
}
