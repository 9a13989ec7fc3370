package usecase

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/stale-radar/internal/domain"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the GitHub gateway without making real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchStaleItems(ctx context.Context, repo domain.Repo) ([]domain.StaleItem, error) {
	args := m.Called(ctx, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StaleItem), args.Error(1)
}

func (m *mockFetcher) ListOrgRepos(ctx context.Context, org string) ([]domain.Repo, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Repo), args.Error(1)
}

func items(repo domain.Repo, kind domain.Kind, numbers ...int) []domain.StaleItem {
	result := make([]domain.StaleItem, 0, len(numbers))
	for _, n := range numbers {
		result = append(result, domain.StaleItem{
			Kind:     kind,
			Org:      repo.Org,
			RepoName: repo.Name,
			RepoKey:  repo.Key(),
			Number:   n,
			State:    "open",
		})
	}
	return result
}

func TestAggregator_LoadAll(t *testing.T) {
	repoA := domain.Repo{Org: "org", Name: "repo-a"}
	repoB := domain.Repo{Org: "org", Name: "repo-b"}
	repoC := domain.Repo{Org: "org", Name: "repo-c"}

	testCases := []struct {
		name          string
		repos         []domain.Repo
		fetchResults  map[string][]domain.StaleItem
		fetchErrors   map[string]error
		expectedKeys  []string
		expectedTotal int
		expectError   bool
	}{
		{
			name:  "happy path - concatenates results in configured repo order",
			repos: []domain.Repo{repoA, repoB},
			fetchResults: map[string][]domain.StaleItem{
				repoA.Key(): items(repoA, domain.KindIssue, 1, 2),
				repoB.Key(): items(repoB, domain.KindPullRequest, 3),
			},
			expectedKeys:  []string{"org/repo-a", "org/repo-b"},
			expectedTotal: 3,
		},
		{
			name:  "partial failure - one failing repository does not blank the others",
			repos: []domain.Repo{repoA, repoB, repoC},
			fetchResults: map[string][]domain.StaleItem{
				repoA.Key(): items(repoA, domain.KindIssue, 1),
				repoC.Key(): items(repoC, domain.KindIssue, 9),
			},
			fetchErrors: map[string]error{
				repoB.Key(): errors.New("503 service unavailable"),
			},
			expectedKeys:  []string{"org/repo-a", "org/repo-c"},
			expectedTotal: 2,
		},
		{
			name:  "total failure - every repository failing fails the cycle",
			repos: []domain.Repo{repoA, repoB},
			fetchErrors: map[string]error{
				repoA.Key(): errors.New("network down"),
				repoB.Key(): errors.New("network down"),
			},
			expectError: true,
		},
		{
			name:          "empty case - no repositories yields an empty aggregation",
			repos:         []domain.Repo{},
			expectedKeys:  []string{},
			expectedTotal: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			logger := log.New(io.Discard, "", 0)
			fetcher := new(mockFetcher)
			for _, repo := range tc.repos {
				if err, ok := tc.fetchErrors[repo.Key()]; ok {
					fetcher.On("FetchStaleItems", mock.Anything, repo).Return(nil, err)
				} else {
					fetcher.On("FetchStaleItems", mock.Anything, repo).Return(tc.fetchResults[repo.Key()], nil)
				}
			}

			aggregator := NewAggregator(fetcher, logger)
			agg, err := aggregator.LoadAll(ctx, tc.repos)

			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, agg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedTotal, agg.TotalCount())
				assert.Equal(t, tc.expectedKeys, agg.DistinctRepoKeys())
			}
			fetcher.AssertExpectations(t)
		})
	}
}

// A load cycle replaces the previous collection; nothing is merged.
func TestAggregator_LoadAll_ReplacesPreviousCycle(t *testing.T) {
	ctx := context.Background()
	logger := log.New(io.Discard, "", 0)
	repo := domain.Repo{Org: "org", Name: "repo-a"}

	fetcher := new(mockFetcher)
	fetcher.On("FetchStaleItems", mock.Anything, repo).Return(items(repo, domain.KindIssue, 1, 2), nil).Once()
	fetcher.On("FetchStaleItems", mock.Anything, repo).Return(items(repo, domain.KindIssue, 2), nil).Once()

	aggregator := NewAggregator(fetcher, logger)

	first, err := aggregator.LoadAll(ctx, []domain.Repo{repo})
	require.NoError(t, err)
	assert.Equal(t, 2, first.TotalCount())

	second, err := aggregator.LoadAll(ctx, []domain.Repo{repo})
	require.NoError(t, err)
	assert.Equal(t, 1, second.TotalCount())
	// The first cycle's value is untouched by the second.
	assert.Equal(t, 2, first.TotalCount())
}

func TestAggregator_ResolveRepos(t *testing.T) {
	ctx := context.Background()
	logger := log.New(io.Discard, "", 0)
	explicit := []domain.Repo{
		{Org: "org", Name: "repo-a"},
		{Org: "other", Name: "tool"},
	}

	t.Run("discovery appends and dedups by repo key", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListOrgRepos", mock.Anything, "org").Return([]domain.Repo{
			{Org: "org", Name: "repo-a"}, // duplicate of an explicit entry
			{Org: "org", Name: "repo-b"},
		}, nil)

		aggregator := NewAggregator(fetcher, logger)
		resolved, err := aggregator.ResolveRepos(ctx, explicit, []string{"org"})
		require.NoError(t, err)
		assert.Equal(t, []domain.Repo{
			{Org: "org", Name: "repo-a"},
			{Org: "other", Name: "tool"},
			{Org: "org", Name: "repo-b"},
		}, resolved)
		fetcher.AssertExpectations(t)
	})

	t.Run("discovery failure fails resolution", func(t *testing.T) {
		fetcher := new(mockFetcher)
		fetcher.On("ListOrgRepos", mock.Anything, "org").Return(nil, errors.New("boom"))

		aggregator := NewAggregator(fetcher, logger)
		_, err := aggregator.ResolveRepos(ctx, explicit, []string{"org"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to discover repositories for org org")
	})

	t.Run("no orgs configured performs no discovery", func(t *testing.T) {
		fetcher := new(mockFetcher)
		aggregator := NewAggregator(fetcher, logger)
		resolved, err := aggregator.ResolveRepos(ctx, explicit, nil)
		require.NoError(t, err)
		assert.Equal(t, explicit, resolved)
		fetcher.AssertExpectations(t)
	})
}
