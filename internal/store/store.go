// Package store provides the in-memory cache of Series and Episode records fetched from the
// remote service. It is only ever written with repository responses.
package store

import (
	"slices"
	"sync"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// slot identifies an episode position within a series.
type slot struct {
	seriesID string
	season   int
	number   int
}

// Store is an id-indexed cache of series and episodes.
// Series keep insertion order for list rendering. All methods are thread-safe.
type Store struct {
	mu sync.RWMutex

	series      []models.Series
	seriesIndex map[string]int

	episodes map[string]models.Episode
	bySeries map[string][]string // series id -> episode ids
	slots    map[slot]string
	loaded   map[string]bool // series whose full episode set has been fetched
}

// New creates an empty store.
func New() *Store {
	return &Store{
		seriesIndex: make(map[string]int),
		episodes:    make(map[string]models.Episode),
		bySeries:    make(map[string][]string),
		slots:       make(map[slot]string),
		loaded:      make(map[string]bool),
	}
}

// UpsertSeries replaces series with matching ids in place and appends new ones.
func (s *Store) UpsertSeries(list ...models.Series) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, series := range list {
		if series.ID == "" {
			continue
		}
		if i, ok := s.seriesIndex[series.ID]; ok {
			s.series[i] = series
			continue
		}
		s.seriesIndex[series.ID] = len(s.series)
		s.series = append(s.series, series)
	}
}

// SyncSeries makes list the authoritative series collection.
// Series missing from list are dropped with their episodes; survivors keep their episode cache.
func (s *Store) SyncSeries(list []models.Series) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keep := make(map[string]bool, len(list))
	for _, series := range list {
		keep[series.ID] = true
	}
	for _, series := range s.series {
		if !keep[series.ID] {
			s.dropEpisodesLocked(series.ID)
		}
	}

	s.series = s.series[:0]
	s.seriesIndex = make(map[string]int, len(list))
	for _, series := range list {
		if series.ID == "" {
			continue
		}
		if i, ok := s.seriesIndex[series.ID]; ok {
			s.series[i] = series
			continue
		}
		s.seriesIndex[series.ID] = len(s.series)
		s.series = append(s.series, series)
	}
}

// UpsertEpisodes inserts or replaces episodes of seriesID.
// It is inert when the series is not cached, so a result arriving after the series was removed
// leaves no orphan records. Episodes naming a different series are skipped. An episode taking an
// occupied (season, number) slot evicts the previous occupant. Returns the number applied.
func (s *Store) UpsertEpisodes(seriesID string, list []models.Episode) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seriesIndex[seriesID]; !ok {
		return 0
	}
	return s.upsertEpisodesLocked(seriesID, list)
}

// LoadDetail caches a series together with its complete episode set.
func (s *Store) LoadDetail(detail models.SeriesDetail) {
	if detail.ID == "" {
		return
	}
	s.UpsertSeries(detail.Series)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropEpisodesLocked(detail.ID)
	s.upsertEpisodesLocked(detail.ID, detail.Episodes)
	s.loaded[detail.ID] = true
}

func (s *Store) upsertEpisodesLocked(seriesID string, list []models.Episode) int {
	applied := 0
	for _, ep := range list {
		if ep.ID == "" {
			continue
		}
		if ep.SeriesID == "" {
			ep.SeriesID = seriesID
		}
		if ep.SeriesID != seriesID {
			continue
		}

		key := slot{seriesID: seriesID, season: ep.Season, number: ep.Number}
		if occupant, ok := s.slots[key]; ok && occupant != ep.ID {
			s.removeEpisodeLocked(occupant)
		}
		if prev, ok := s.episodes[ep.ID]; ok && prev.SeriesID != seriesID {
			s.removeEpisodeLocked(ep.ID)
		}
		if prev, ok := s.episodes[ep.ID]; ok {
			prevKey := slot{seriesID: prev.SeriesID, season: prev.Season, number: prev.Number}
			if prevKey != key {
				delete(s.slots, prevKey)
			}
		} else {
			s.bySeries[seriesID] = append(s.bySeries[seriesID], ep.ID)
		}

		s.episodes[ep.ID] = ep
		s.slots[key] = ep.ID
		applied++
	}
	return applied
}

// RemoveSeries drops a series and its episodes. Removing an unknown id is a no-op.
// Returns true if the series was cached.
func (s *Store) RemoveSeries(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropEpisodesLocked(id)
	delete(s.loaded, id)

	i, ok := s.seriesIndex[id]
	if !ok {
		return false
	}
	s.series = slices.Delete(s.series, i, i+1)
	delete(s.seriesIndex, id)
	for j := i; j < len(s.series); j++ {
		s.seriesIndex[s.series[j].ID] = j
	}
	return true
}

func (s *Store) dropEpisodesLocked(seriesID string) {
	for _, id := range s.bySeries[seriesID] {
		if ep, ok := s.episodes[id]; ok {
			delete(s.slots, slot{seriesID: ep.SeriesID, season: ep.Season, number: ep.Number})
			delete(s.episodes, id)
		}
	}
	delete(s.bySeries, seriesID)
	delete(s.loaded, seriesID)
}

func (s *Store) removeEpisodeLocked(id string) {
	ep, ok := s.episodes[id]
	if !ok {
		return
	}
	delete(s.episodes, id)
	delete(s.slots, slot{seriesID: ep.SeriesID, season: ep.Season, number: ep.Number})
	s.bySeries[ep.SeriesID] = slices.DeleteFunc(s.bySeries[ep.SeriesID], func(other string) bool {
		return other == id
	})
}

// GetSeries looks up a series by id.
func (s *Store) GetSeries(id string) (models.Series, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.seriesIndex[id]
	if !ok {
		return models.Series{}, false
	}
	return s.series[i], true
}

// GetEpisode looks up an episode by id.
func (s *Store) GetEpisode(id string) (models.Episode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ep, ok := s.episodes[id]
	return ep, ok
}

// Series returns a copy of all cached series in insertion order.
func (s *Store) Series() []models.Series {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.series)
}

// Episodes returns the cached episodes of a series ordered by season and number.
func (s *Store) Episodes(seriesID string) []models.Episode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.bySeries[seriesID]
	episodes := make([]models.Episode, 0, len(ids))
	for _, id := range ids {
		episodes = append(episodes, s.episodes[id])
	}
	slices.SortFunc(episodes, func(a, b models.Episode) int {
		if a.Season != b.Season {
			return a.Season - b.Season
		}
		return a.Number - b.Number
	})
	return episodes
}

// EpisodesLoaded reports whether the full episode set of a series has been fetched.
func (s *Store) EpisodesLoaded(seriesID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loaded[seriesID]
}
