package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/showrunner/internal/models"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	for _, id := range []string{"a", "b", "c"} {
		_, err := m.CreateSeries(ctx, models.Series{ID: id, Title: id, PlannedSeasons: 1, EpisodesPerSeason: 2})
		require.NoError(t, err)
	}
	_, err := m.CreateSeries(ctx, models.Series{ID: "a"})
	assert.Error(t, err)

	list, err := m.ListSeries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID, "newest first")
	assert.NotNil(t, list[0].Genre)

	_, err = m.UpsertEpisode(ctx, models.Episode{ID: "e2", SeriesID: "a", Season: 1, Number: 2})
	require.NoError(t, err)
	_, err = m.UpsertEpisode(ctx, models.Episode{ID: "e1", SeriesID: "a", Season: 1, Number: 1})
	require.NoError(t, err)

	_, err = m.UpsertEpisode(ctx, models.Episode{ID: "dup", SeriesID: "a", Season: 1, Number: 1})
	assert.Error(t, err, "slot is taken")

	_, err = m.UpsertEpisode(ctx, models.Episode{ID: "orphan", SeriesID: "missing", Season: 1, Number: 1})
	assert.ErrorIs(t, err, models.ErrNotFound)

	episodes, err := m.ListEpisodes(ctx, "a")
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	assert.Equal(t, "e1", episodes[0].ID)

	deleted, err := m.DeleteSeries(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)

	ep, err := m.GetEpisode(ctx, "e1")
	require.NoError(t, err)
	assert.Nil(t, ep, "episodes go with their series")

	deleted, err = m.DeleteSeries(ctx, "a")
	require.NoError(t, err)
	assert.False(t, deleted)
}
