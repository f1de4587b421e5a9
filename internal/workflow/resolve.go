package workflow

import (
	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/raphaelgruber/showrunner/internal/store"
	"github.com/raphaelgruber/showrunner/internal/view"
)

// active holds the entities a view refers to, resolved against the store.
type active struct {
	series   *models.Series
	episode  *models.Episode
	episodes []models.Episode
}

// resolveActive is the single derivation of active entities from the held view ids.
// It returns an error wrapping models.ErrNotFound when the view holds a dangling id.
func resolveActive(v view.View, s *store.Store) (active, error) {
	switch v.Kind() {
	case view.KindDetail:
		id, _ := v.SeriesID()
		series, ok := s.GetSeries(id)
		if !ok {
			return active{}, notFound("series", id)
		}
		return active{series: &series, episodes: s.Episodes(id)}, nil

	case view.KindProduction:
		id, _ := v.EpisodeID()
		ep, ok := s.GetEpisode(id)
		if !ok {
			return active{}, notFound("episode", id)
		}
		series, ok := s.GetSeries(ep.SeriesID)
		if !ok {
			return active{}, notFound("series", ep.SeriesID)
		}
		return active{series: &series, episode: &ep, episodes: s.Episodes(series.ID)}, nil
	}
	return active{}, nil
}
