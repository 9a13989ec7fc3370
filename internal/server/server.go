// Package server exposes the prepared pipeline outputs as a JSON API for an
// external rendering layer.
package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/naka-gawa/stale-radar/internal/domain"
	"github.com/naka-gawa/stale-radar/internal/usecase"
)

// Server serves the current aggregation view, summary counts, and trend
// series over HTTP.
type Server struct {
	echo        *echo.Echo
	aggregator  *usecase.Aggregator
	history     *usecase.HistoryLoader
	reducer     *usecase.TrendReducer
	repos       []domain.Repo
	historyDays int
	logger      *log.Logger

	// loadMu serializes load cycles: a refresh arriving while one is in
	// flight waits for it, then runs its own cycle. Readers keep seeing the
	// previous aggregation until a new one is swapped in whole under mu.
	loadMu  sync.Mutex
	mu      sync.RWMutex
	current *domain.Aggregation
}

// New wires the pipeline components into a Server.
func New(aggregator *usecase.Aggregator, history *usecase.HistoryLoader, reducer *usecase.TrendReducer,
	repos []domain.Repo, historyDays int, logger *log.Logger) *Server {
	s := &Server{
		aggregator:  aggregator,
		history:     history,
		reducer:     reducer,
		repos:       repos,
		historyDays: historyDays,
		logger:      logger,
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.GET("/health", s.handleHealth)
	e.GET("/api/items", s.handleItems)
	e.GET("/api/summary", s.handleSummary)
	e.GET("/api/trend", s.handleTrend)
	e.POST("/api/refresh", s.handleRefresh)
	s.echo = e
	return s
}

// Start begins serving on addr and blocks.
func (s *Server) Start(addr string) error {
	s.logger.Printf("Serving on %s", addr)
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Refresh runs one load cycle and swaps the served aggregation.
func (s *Server) Refresh(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	agg, err := s.aggregator.LoadAll(ctx, s.repos)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = agg
	s.mu.Unlock()
	return nil
}

func (s *Server) aggregation() *domain.Aggregation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// itemsResponse is the current filtered/sorted view plus its summary.
type itemsResponse struct {
	Items   []domain.StaleItem `json:"items"`
	Summary domain.Summary     `json:"summary"`
}

func (s *Server) handleItems(c echo.Context) error {
	agg := s.aggregation()
	if agg == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no load cycle has completed yet")
	}

	pred := usecase.Predicate{
		RepoKey:       c.QueryParam("repo"),
		TitleContains: c.QueryParam("title"),
	}
	if k := c.QueryParam("kind"); k != "" {
		kind, err := domain.ParseKind(k)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		pred.Kind = kind
	}

	field := c.QueryParam("sort")
	if field == "" {
		field = usecase.SortByUpdatedAt
	}
	ascending := false
	if a := c.QueryParam("asc"); a != "" {
		v, err := strconv.ParseBool(a)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid asc parameter: "+a)
		}
		ascending = v
	}

	items := usecase.ApplyFilter(agg.Items(), pred)
	items = usecase.SortBy(items, field, ascending)
	return c.JSON(http.StatusOK, itemsResponse{Items: items, Summary: agg.Summary()})
}

func (s *Server) handleSummary(c echo.Context) error {
	agg := s.aggregation()
	if agg == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no load cycle has completed yet")
	}
	return c.JSON(http.StatusOK, agg.Summary())
}

// trendResponse carries both reducer outputs plus summary statistics.
type trendResponse struct {
	Trend     usecase.TrendSeries     `json:"trend"`
	Breakdown []domain.RepoStaleCount `json:"breakdown"`
	Stats     usecase.TrendStats      `json:"stats"`
}

func (s *Server) handleTrend(c echo.Context) error {
	windowParam := c.QueryParam("window")
	if windowParam == "" {
		windowParam = "all"
	}
	window, err := usecase.ParseWindow(windowParam)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	series := s.history.LoadWindow(c.Request().Context(), s.historyDays)
	trend, bd := s.reducer.Reduce(series, window)
	st, err := usecase.SummarizeTrend(trend)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, trendResponse{Trend: trend, Breakdown: bd, Stats: st})
}

func (s *Server) handleRefresh(c echo.Context) error {
	if err := s.Refresh(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, s.aggregation().Summary())
}
