// Package service implements the series, episode and story operations served by the GraphQL API.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/raphaelgruber/showrunner/internal/llm"
	"github.com/raphaelgruber/showrunner/internal/metrics"
	"github.com/raphaelgruber/showrunner/internal/models"
)

// Store is the persistence the services need. *db.Client implements it.
// Get methods return nil, nil for missing records.
type Store interface {
	ListSeries(ctx context.Context) ([]models.Series, error)
	GetSeries(ctx context.Context, id string) (*models.Series, error)
	CreateSeries(ctx context.Context, s models.Series) (*models.Series, error)
	UpdateSeriesStatus(ctx context.Context, id string, status models.SeriesStatus) error
	DeleteSeries(ctx context.Context, id string) (bool, error)

	ListEpisodes(ctx context.Context, seriesID string) ([]models.Episode, error)
	GetEpisode(ctx context.Context, id string) (*models.Episode, error)
	UpsertEpisode(ctx context.Context, ep models.Episode) (*models.Episode, error)

	ListStories(ctx context.Context) ([]models.Story, error)
	CreateStory(ctx context.Context, id string, input models.CreateStoryInput) (*models.Story, error)
	DeleteStory(ctx context.Context, id string) (bool, error)
}

// Writer writes a single episode. *llm.Model implements it.
type Writer interface {
	WriteEpisode(ctx context.Context, req llm.EpisodeRequest) (models.EpisodeDraft, error)
}

// SeriesService handles series lifecycle and season generation.
type SeriesService struct {
	store   Store
	writer  Writer
	events  *Broadcaster
	metrics *metrics.Collector
	logger  *slog.Logger

	mu       sync.Mutex
	runs     map[string]*run // series id -> active generation run
	deleting map[string]int  // series ids with a delete in progress
}

// run is an active generation run. done is closed once it has stopped writing.
type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSeriesService creates a series service. events and mc may be nil.
func NewSeriesService(store Store, writer Writer, events *Broadcaster, mc *metrics.Collector, logger *slog.Logger) *SeriesService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SeriesService{
		store:   store,
		writer:  writer,
		events:  events,
		metrics: mc,
		logger:  logger,
		runs:     make(map[string]*run),
		deleting: make(map[string]int),
	}
}

// ListSeries returns every series.
func (s *SeriesService) ListSeries(ctx context.Context) ([]models.Series, error) {
	return s.store.ListSeries(ctx)
}

// GetSeries returns a series with its episodes.
func (s *SeriesService) GetSeries(ctx context.Context, id string) (*models.SeriesDetail, error) {
	series, err := s.store.GetSeries(ctx, id)
	if err != nil {
		return nil, err
	}
	if series == nil {
		return nil, fmt.Errorf("series %q: %w", id, models.ErrNotFound)
	}
	episodes, err := s.store.ListEpisodes(ctx, id)
	if err != nil {
		return nil, err
	}
	sortEpisodes(episodes)
	return &models.SeriesDetail{Series: *series, Episodes: episodes}, nil
}

// GetEpisode returns an episode by id.
func (s *SeriesService) GetEpisode(ctx context.Context, id string) (*models.Episode, error) {
	ep, err := s.store.GetEpisode(ctx, id)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, fmt.Errorf("episode %q: %w", id, models.ErrNotFound)
	}
	return ep, nil
}

// CreateSeries validates the input and stores a new series in planning state.
func (s *SeriesService) CreateSeries(ctx context.Context, input models.CreateSeriesInput) (*models.Series, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	created, err := s.store.CreateSeries(ctx, models.Series{
		ID:                uuid.New().String(),
		Title:             input.Title,
		Tagline:           input.Tagline,
		Genre:             input.Genre,
		Status:            models.SeriesPlanning,
		PlannedSeasons:    input.PlannedSeasons,
		EpisodesPerSeason: input.EpisodesPerSeason,
		FullLore:          input.FullLore,
		VisualStyle:       input.VisualStyle,
		ScriptStyle:       input.ScriptStyle,
		MainCharacters:    input.MainCharacters,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("series created", "series_id", created.ID, "title", created.Title,
		"seasons", created.PlannedSeasons, "episodes_per_season", created.EpisodesPerSeason)
	return created, nil
}

// DeleteSeries deletes a series and its episodes. A generation run for the series is stopped and
// waited for, and no new run can start until the delete returns.
func (s *SeriesService) DeleteSeries(ctx context.Context, id string) error {
	s.mu.Lock()
	s.deleting[id]++
	active := s.runs[id]
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.deleting[id]--; s.deleting[id] <= 0 {
			delete(s.deleting, id)
		}
		s.mu.Unlock()
	}()

	if active != nil {
		active.cancel()
		select {
		case <-active.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	deleted, err := s.store.DeleteSeries(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("series %q: %w", id, models.ErrNotFound)
	}

	s.logger.Info("series deleted", "series_id", id)
	return nil
}

// Generating reports whether a generation run is active for the series.
func (s *SeriesService) Generating(seriesID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.runs[seriesID]
	return ok
}

func sortEpisodes(episodes []models.Episode) {
	slices.SortFunc(episodes, func(a, b models.Episode) int {
		if a.Season != b.Season {
			return a.Season - b.Season
		}
		return a.Number - b.Number
	})
}
