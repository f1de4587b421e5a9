package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// MemoryStore is a Store kept in process memory. It backs the server when no database is
// configured and is used in tests.
type MemoryStore struct {
	mu       sync.Mutex
	series   map[string]models.Series
	episodes map[string]models.Episode
	stories  map[string]models.Story
	seq      map[string]int // insertion order, for stable newest-first listing
	next     int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		series:   make(map[string]models.Series),
		episodes: make(map[string]models.Episode),
		stories:  make(map[string]models.Story),
		seq:      make(map[string]int),
	}
}

func (m *MemoryStore) stamp(id string) {
	m.next++
	m.seq[id] = m.next
}

func (m *MemoryStore) newestFirst(a, b string) int {
	return cmp.Compare(m.seq[b], m.seq[a])
}

// ListSeries returns every series, newest first.
func (m *MemoryStore) ListSeries(ctx context.Context) ([]models.Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Series, 0, len(m.series))
	for _, s := range m.series {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b models.Series) int { return m.newestFirst(a.ID, b.ID) })
	return out, nil
}

// GetSeries returns nil if the series does not exist.
func (m *MemoryStore) GetSeries(ctx context.Context, id string) (*models.Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.series[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) CreateSeries(ctx context.Context, s models.Series) (*models.Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.series[s.ID]; exists {
		return nil, fmt.Errorf("create series: %s already exists", s.ID)
	}
	s.CreatedAt = time.Now()
	if s.Genre == nil {
		s.Genre = []string{}
	}
	if s.MainCharacters == nil {
		s.MainCharacters = []models.Character{}
	}
	m.series[s.ID] = s
	m.stamp(s.ID)
	return &s, nil
}

func (m *MemoryStore) UpdateSeriesStatus(ctx context.Context, id string, status models.SeriesStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.series[id]; ok {
		s.Status = status
		m.series[id] = s
	}
	return nil
}

// DeleteSeries deletes a series and its episodes. Returns false if the series did not exist.
func (m *MemoryStore) DeleteSeries(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.series[id]; !ok {
		return false, nil
	}
	delete(m.series, id)
	delete(m.seq, id)
	for epID, ep := range m.episodes {
		if ep.SeriesID == id {
			delete(m.episodes, epID)
		}
	}
	return true, nil
}

// ListEpisodes returns the episodes of a series ordered by season and number.
func (m *MemoryStore) ListEpisodes(ctx context.Context, seriesID string) ([]models.Episode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Episode
	for _, ep := range m.episodes {
		if ep.SeriesID == seriesID {
			out = append(out, ep)
		}
	}
	sortEpisodes(out)
	return out, nil
}

func (m *MemoryStore) GetEpisode(ctx context.Context, id string) (*models.Episode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ep, ok := m.episodes[id]
	if !ok {
		return nil, nil
	}
	return &ep, nil
}

// UpsertEpisode creates or replaces an episode. An episode of a missing series, or a second
// episode in an occupied slot, is rejected.
func (m *MemoryStore) UpsertEpisode(ctx context.Context, ep models.Episode) (*models.Episode, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("upsert episode: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.series[ep.SeriesID]; !ok {
		return nil, fmt.Errorf("upsert episode: series %q: %w", ep.SeriesID, models.ErrNotFound)
	}
	for id, other := range m.episodes {
		if id != ep.ID && other.SeriesID == ep.SeriesID && other.Season == ep.Season && other.Number == ep.Number {
			return nil, fmt.Errorf("upsert episode: slot %s already exists", ep.Code())
		}
	}

	now := time.Now()
	if prev, ok := m.episodes[ep.ID]; ok {
		ep.CreatedAt = prev.CreatedAt
	} else {
		ep.CreatedAt = now
	}
	ep.UpdatedAt = now
	m.episodes[ep.ID] = ep
	return &ep, nil
}

// ListStories returns every story, newest first.
func (m *MemoryStore) ListStories(ctx context.Context) ([]models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Story, 0, len(m.stories))
	for _, s := range m.stories {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b models.Story) int { return m.newestFirst(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryStore) CreateStory(ctx context.Context, id string, input models.CreateStoryInput) (*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	genre := input.Genre
	if genre == nil {
		genre = []string{}
	}
	s := models.Story{
		ID:        id,
		Title:     input.Title,
		Premise:   input.Premise,
		Genre:     genre,
		Status:    "draft",
		CreatedAt: time.Now(),
	}
	m.stories[id] = s
	m.stamp(id)
	return &s, nil
}

// DeleteStory returns false if the story did not exist.
func (m *MemoryStore) DeleteStory(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stories[id]; !ok {
		return false, nil
	}
	delete(m.stories, id)
	delete(m.seq, id)
	return true, nil
}
