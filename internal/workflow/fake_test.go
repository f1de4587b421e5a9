package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/raphaelgruber/showrunner/internal/models"
)

var errUnavailable = errors.New("service unavailable")

// fakeRepo is an in-memory Repository. Calls to GenerateSeasonEpisodes block on genGate and calls
// to FetchSeriesDetail and FetchEpisode block on fetchGate when those are set. Calls are counted
// per method.
type fakeRepo struct {
	mu       sync.Mutex
	series   map[string]models.Series
	episodes map[string]models.Episode
	order    []string
	calls    map[string]int
	nextID   int

	failCreate   error
	failDelete   error
	failDetail   error
	failGenerate error
	failList     error

	genStarted chan struct{}
	genGate    chan struct{}

	fetchStarted chan struct{}
	fetchGate    chan struct{}
}

func (f *fakeRepo) waitFetch() {
	if f.fetchStarted != nil {
		f.fetchStarted <- struct{}{}
	}
	if f.fetchGate != nil {
		<-f.fetchGate
	}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		series:   make(map[string]models.Series),
		episodes: make(map[string]models.Episode),
		calls:    make(map[string]int),
	}
}

func (f *fakeRepo) addSeries(s models.Series, episodes ...models.Episode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.series[s.ID] = s
	f.order = append(f.order, s.ID)
	for _, ep := range episodes {
		ep.SeriesID = s.ID
		f.episodes[ep.ID] = ep
	}
}

func (f *fakeRepo) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeRepo) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *fakeRepo) ListSeries(ctx context.Context) ([]models.Series, error) {
	f.record("ListSeries")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	list := make([]models.Series, 0, len(f.series))
	for _, id := range f.order {
		if s, ok := f.series[id]; ok {
			list = append(list, s)
		}
	}
	return list, nil
}

func (f *fakeRepo) CreateSeries(ctx context.Context, input models.CreateSeriesInput) (*models.Series, error) {
	f.record("CreateSeries")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	f.nextID++
	s := models.Series{
		ID:                fmt.Sprintf("new%d", f.nextID),
		Title:             input.Title,
		Status:            models.SeriesPlanning,
		PlannedSeasons:    input.PlannedSeasons,
		EpisodesPerSeason: input.EpisodesPerSeason,
	}
	f.series[s.ID] = s
	f.order = append(f.order, s.ID)
	return &s, nil
}

func (f *fakeRepo) DeleteSeries(ctx context.Context, id string) error {
	f.record("DeleteSeries")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	if _, ok := f.series[id]; !ok {
		return fmt.Errorf("series %s: %w", id, models.ErrNotFound)
	}
	delete(f.series, id)
	return nil
}

func (f *fakeRepo) FetchSeriesDetail(ctx context.Context, id string) (*models.SeriesDetail, error) {
	f.record("FetchSeriesDetail")
	f.waitFetch()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDetail != nil {
		return nil, f.failDetail
	}
	s, ok := f.series[id]
	if !ok {
		return nil, fmt.Errorf("series %s: %w", id, models.ErrNotFound)
	}
	detail := &models.SeriesDetail{Series: s}
	for _, ep := range f.episodes {
		if ep.SeriesID == id {
			detail.Episodes = append(detail.Episodes, ep)
		}
	}
	return detail, nil
}

func (f *fakeRepo) GenerateSeasonEpisodes(ctx context.Context, seriesID string, season int) ([]models.Episode, error) {
	f.record("GenerateSeasonEpisodes")
	f.mu.Lock()
	s := f.series[seriesID]
	f.mu.Unlock()

	if f.genStarted != nil {
		f.genStarted <- struct{}{}
	}
	if f.genGate != nil {
		<-f.genGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGenerate != nil {
		return nil, f.failGenerate
	}
	out := make([]models.Episode, 0, s.EpisodesPerSeason)
	for n := 1; n <= s.EpisodesPerSeason; n++ {
		ep := models.Episode{
			ID:       fmt.Sprintf("%s-s%de%d", seriesID, season, n),
			SeriesID: seriesID,
			Season:   season,
			Number:   n,
			Status:   models.EpisodeReady,
		}
		f.episodes[ep.ID] = ep
		out = append(out, ep)
	}
	return out, nil
}

func (f *fakeRepo) FetchEpisode(ctx context.Context, id string) (*models.Episode, error) {
	f.record("FetchEpisode")
	f.waitFetch()
	f.mu.Lock()
	defer f.mu.Unlock()
	ep, ok := f.episodes[id]
	if !ok {
		return nil, fmt.Errorf("episode %s: %w", id, models.ErrNotFound)
	}
	return &ep, nil
}

// fakeStories is an in-memory StoryRepository.
type fakeStories struct {
	mu      sync.Mutex
	stories []models.Story
	fail    error
}

func (f *fakeStories) ListStories(ctx context.Context) ([]models.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return append([]models.Story(nil), f.stories...), nil
}

func (f *fakeStories) DeleteStory(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	for i, s := range f.stories {
		if s.ID == id {
			f.stories = append(f.stories[:i], f.stories[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("story %s: %w", id, models.ErrNotFound)
}
