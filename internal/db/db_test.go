//go:build integration

package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/raphaelgruber/showrunner/internal/metrics"
	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *Client
var testMetrics = metrics.NewCollector()

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := container.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil, testMetrics)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = container.Terminate(ctx)

	os.Exit(code)
}

func createTestSeries(t *testing.T, id string) *models.Series {
	t.Helper()
	s, err := testDB.CreateSeries(context.Background(), models.Series{
		ID:                id,
		Title:             "Series " + id,
		Genre:             []string{"noir"},
		Status:            models.SeriesPlanning,
		PlannedSeasons:    2,
		EpisodesPerSeason: 3,
		MainCharacters:    []models.Character{{Name: "Vera", Role: "detective"}},
	})
	require.NoError(t, err)
	return s
}

func TestSeriesLifecycle(t *testing.T) {
	ctx := context.Background()
	created := createTestSeries(t, "life")
	assert.Equal(t, "life", created.ID)
	assert.Equal(t, 6, created.TotalEpisodes())
	assert.False(t, created.CreatedAt.IsZero())
	require.Len(t, created.MainCharacters, 1)
	assert.Equal(t, "Vera", created.MainCharacters[0].Name)

	got, err := testDB.GetSeries(ctx, "life")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Series life", got.Title)

	require.NoError(t, testDB.UpdateSeriesStatus(ctx, "life", models.SeriesInProduction))
	got, err = testDB.GetSeries(ctx, "life")
	require.NoError(t, err)
	assert.Equal(t, models.SeriesInProduction, got.Status)

	list, err := testDB.ListSeries(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	deleted, err := testDB.DeleteSeries(ctx, "life")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = testDB.DeleteSeries(ctx, "life")
	require.NoError(t, err)
	assert.False(t, deleted, "second delete finds nothing")

	got, err = testDB.GetSeries(ctx, "life")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateSeriesDuplicateID(t *testing.T) {
	createTestSeries(t, "dup")
	_, err := testDB.CreateSeries(context.Background(), models.Series{
		ID: "dup", Title: "again", Status: models.SeriesPlanning, PlannedSeasons: 1, EpisodesPerSeason: 1,
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestEpisodes(t *testing.T) {
	ctx := context.Background()
	createTestSeries(t, "eps")

	for _, n := range []int{2, 1} {
		_, err := testDB.UpsertEpisode(ctx, models.Episode{
			ID: fmt.Sprintf("eps-1-%d", n), SeriesID: "eps", Season: 1, Number: n, Status: models.EpisodePending,
		})
		require.NoError(t, err)
	}

	ready, err := testDB.UpsertEpisode(ctx, models.Episode{
		ID: "eps-1-1", SeriesID: "eps", Season: 1, Number: 1, Status: models.EpisodeReady,
		Title: "Pilot", Script: "FADE IN.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EpisodeReady, ready.Status)
	assert.Equal(t, "eps", ready.SeriesID)

	_, err = testDB.UpsertEpisode(ctx, models.Episode{
		ID: "intruder", SeriesID: "eps", Season: 1, Number: 1, Status: models.EpisodePending,
	})
	assert.ErrorIs(t, err, ErrAlreadyExists, "slot is unique")

	list, err := testDB.ListEpisodes(ctx, "eps")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Number)
	assert.Equal(t, "Pilot", list[0].Title)

	got, err := testDB.GetEpisode(ctx, "eps-1-2")
	require.NoError(t, err)
	require.NotNil(t, got)

	_, err = testDB.DeleteSeries(ctx, "eps")
	require.NoError(t, err)
	got, err = testDB.GetEpisode(ctx, "eps-1-2")
	require.NoError(t, err)
	assert.Nil(t, got, "episodes go with their series")
}

func TestStories(t *testing.T) {
	ctx := context.Background()
	story, err := testDB.CreateStory(ctx, "st1", models.CreateStoryInput{Title: "Lighthouse", Premise: "A keeper"})
	require.NoError(t, err)
	assert.Equal(t, "draft", story.Status)

	stories, err := testDB.ListStories(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, stories)

	deleted, err := testDB.DeleteStory(ctx, "st1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestQueriesAreTimed(t *testing.T) {
	_, err := testDB.ListSeries(context.Background())
	require.NoError(t, err)
	snap := testMetrics.Snapshot()
	require.NotNil(t, snap.DBQuery)
	assert.Positive(t, snap.DBQuery.Count)
}
