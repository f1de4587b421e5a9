package store

import (
	"testing"

	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(id, title string) models.Series {
	return models.Series{ID: id, Title: title, PlannedSeasons: 1, EpisodesPerSeason: 3}
}

func episode(id, seriesID string, season, number int) models.Episode {
	return models.Episode{ID: id, SeriesID: seriesID, Season: season, Number: number, Status: models.EpisodePending}
}

func TestUpsertSeriesPreservesOrder(t *testing.T) {
	s := New()
	s.UpsertSeries(series("a", "Alpha"), series("b", "Beta"))
	s.UpsertSeries(series("c", "Gamma"), series("a", "Alpha v2"))

	list := s.Series()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "Alpha v2", list[0].Title, "upsert should replace in place")

	got, ok := s.GetSeries("b")
	require.True(t, ok)
	assert.Equal(t, "Beta", got.Title)

	_, ok = s.GetSeries("missing")
	assert.False(t, ok)
}

func TestUpsertEpisodesRequiresCachedSeries(t *testing.T) {
	s := New()

	applied := s.UpsertEpisodes("ghost", []models.Episode{episode("e1", "ghost", 1, 1)})
	assert.Zero(t, applied)
	_, ok := s.GetEpisode("e1")
	assert.False(t, ok, "episodes of an uncached series must not leak into the store")

	s.UpsertSeries(series("s1", "One"))
	applied = s.UpsertEpisodes("s1", []models.Episode{
		episode("e2", "s1", 1, 2),
		episode("e1", "", 1, 1),
		episode("x", "other", 1, 3),
	})
	assert.Equal(t, 2, applied)

	eps := s.Episodes("s1")
	require.Len(t, eps, 2)
	assert.Equal(t, "e1", eps[0].ID)
	assert.Equal(t, "s1", eps[0].SeriesID, "missing back-reference is filled in")
	assert.Equal(t, "e2", eps[1].ID)
}

func TestUpsertEpisodesSlotUniqueness(t *testing.T) {
	s := New()
	s.UpsertSeries(series("s1", "One"))
	s.UpsertEpisodes("s1", []models.Episode{episode("old", "s1", 1, 1)})
	s.UpsertEpisodes("s1", []models.Episode{episode("new", "s1", 1, 1)})

	_, ok := s.GetEpisode("old")
	assert.False(t, ok, "slot occupant should be evicted")
	eps := s.Episodes("s1")
	require.Len(t, eps, 1)
	assert.Equal(t, "new", eps[0].ID)

	// Moving an episode frees its previous slot.
	moved := episode("new", "s1", 1, 2)
	s.UpsertEpisodes("s1", []models.Episode{moved, episode("third", "s1", 1, 1)})
	eps = s.Episodes("s1")
	require.Len(t, eps, 2)
	assert.Equal(t, "third", eps[0].ID)
	assert.Equal(t, "new", eps[1].ID)
}

func TestUpsertEpisodesMovesAcrossSeries(t *testing.T) {
	s := New()
	s.UpsertSeries(series("s1", "One"), series("s2", "Two"))
	s.UpsertEpisodes("s1", []models.Episode{episode("e1", "s1", 1, 1)})

	applied := s.UpsertEpisodes("s2", []models.Episode{episode("e1", "s2", 1, 2)})
	assert.Equal(t, 1, applied)

	assert.Empty(t, s.Episodes("s1"), "the episode no longer belongs to its old series")
	eps := s.Episodes("s2")
	require.Len(t, eps, 1)
	assert.Equal(t, "e1", eps[0].ID)
	assert.Equal(t, "s2", eps[0].SeriesID)

	// Dropping the old series must leave the moved episode alone.
	s.RemoveSeries("s1")
	got, ok := s.GetEpisode("e1")
	require.True(t, ok)
	assert.Equal(t, 2, got.Number)
}

func TestRemoveSeriesIsIdempotent(t *testing.T) {
	s := New()
	s.UpsertSeries(series("a", "Alpha"), series("b", "Beta"), series("c", "Gamma"))
	s.UpsertEpisodes("b", []models.Episode{episode("e1", "b", 1, 1)})

	assert.True(t, s.RemoveSeries("b"))
	assert.False(t, s.RemoveSeries("b"))
	assert.False(t, s.RemoveSeries("never-there"))

	_, ok := s.GetSeries("b")
	assert.False(t, ok)
	_, ok = s.GetEpisode("e1")
	assert.False(t, ok, "episodes go with their series")

	got, ok := s.GetSeries("c")
	require.True(t, ok, "index must be rebuilt after removal")
	assert.Equal(t, "Gamma", got.Title)
	assert.Len(t, s.Series(), 2)
}

func TestLoadDetailReplacesEpisodes(t *testing.T) {
	s := New()
	s.UpsertSeries(series("s1", "One"))
	s.UpsertEpisodes("s1", []models.Episode{episode("stale", "s1", 1, 3)})
	assert.False(t, s.EpisodesLoaded("s1"))

	s.LoadDetail(models.SeriesDetail{
		Series:   series("s1", "One (fresh)"),
		Episodes: []models.Episode{episode("e1", "s1", 1, 1), episode("e2", "s1", 1, 2)},
	})

	assert.True(t, s.EpisodesLoaded("s1"))
	_, ok := s.GetEpisode("stale")
	assert.False(t, ok)
	assert.Len(t, s.Episodes("s1"), 2)
	got, _ := s.GetSeries("s1")
	assert.Equal(t, "One (fresh)", got.Title)
}

func TestSyncSeries(t *testing.T) {
	s := New()
	s.UpsertSeries(series("a", "Alpha"), series("b", "Beta"))
	s.UpsertEpisodes("a", []models.Episode{episode("ea", "a", 1, 1)})
	s.UpsertEpisodes("b", []models.Episode{episode("eb", "b", 1, 1)})

	s.SyncSeries([]models.Series{series("c", "Gamma"), series("a", "Alpha")})

	list := s.Series()
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "a", list[1].ID)

	_, ok := s.GetEpisode("ea")
	assert.True(t, ok, "surviving series keep their episodes")
	_, ok = s.GetEpisode("eb")
	assert.False(t, ok, "dropped series lose their episodes")
}
