package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/raphaelgruber/showrunner/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedRequest is what the fake server saw.
type recordedRequest struct {
	Auth      string
	Query     string
	Variables map[string]any
}

// newGraphQLServer answers every request with the given response body and records requests.
func newGraphQLServer(t *testing.T, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, recordedRequest{
			Auth:      r.Header.Get("Authorization"),
			Query:     req.Query,
			Variables: req.Variables,
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestExecuteSendsBearerToken(t *testing.T) {
	srv, seen := newGraphQLServer(t, `{"data":{"seriesList":[]}}`)
	c := New(srv.URL, time.Second, &session.Session{Token: "secret"})

	_, err := c.ListSeries(context.Background())
	require.NoError(t, err)
	require.Len(t, *seen, 1)
	assert.Equal(t, "Bearer secret", (*seen)[0].Auth)
}

func TestExecuteWithoutSession(t *testing.T) {
	srv, seen := newGraphQLServer(t, `{"data":{"seriesList":[]}}`)
	c := New(srv.URL, time.Second, nil)

	_, err := c.ListSeries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, (*seen)[0].Auth)
}

func TestExecuteMapsErrorCodes(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{CodeNotFound, models.ErrNotFound},
		{CodeValidation, models.ErrValidation},
		{CodeConflict, models.ErrGenerationInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			body := `{"data":null,"errors":[{"message":"nope","extensions":{"code":"` + tt.code + `"}}]}`
			srv, _ := newGraphQLServer(t, body)
			c := New(srv.URL, time.Second, nil)

			_, err := c.FetchEpisode(context.Background(), "e1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestExecuteUnclassifiedError(t *testing.T) {
	srv, _ := newGraphQLServer(t, `{"errors":[{"message":"boom"}]}`)
	c := New(srv.URL, time.Second, nil)

	_, err := c.ListSeries(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, err.Error(), "graphql error: boom")
}

func TestExecuteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := New(srv.URL, time.Second, nil)

	_, err := c.ListSeries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestFetchSeriesDetail(t *testing.T) {
	srv, seen := newGraphQLServer(t, `{"data":{"series":{
		"id":"s1","title":"Night Shift","genre":["noir"],"status":"planning",
		"plannedSeasons":2,"episodesPerSeason":3,"createdAt":"2026-01-02T03:04:05Z",
		"mainCharacters":[{"name":"Vera","role":"detective","description":""}],
		"episodes":[{"id":"e1","seriesId":"s1","season":1,"number":1,"status":"ready","title":"Pilot"}]
	}}}`)
	c := New(srv.URL, time.Second, nil)

	detail, err := c.FetchSeriesDetail(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", detail.ID)
	assert.Equal(t, 6, detail.TotalEpisodes())
	require.Len(t, detail.Episodes, 1)
	assert.Equal(t, models.EpisodeReady, detail.Episodes[0].Status)
	assert.Equal(t, "Vera", detail.MainCharacters[0].Name)
	assert.Equal(t, "s1", (*seen)[0].Variables["id"])
	assert.Contains(t, (*seen)[0].Query, "episodes {")
}

func TestNullEntityIsNotFound(t *testing.T) {
	srv, _ := newGraphQLServer(t, `{"data":{"series":null,"episode":null}}`)
	c := New(srv.URL, time.Second, nil)

	_, err := c.FetchSeriesDetail(context.Background(), "gone")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = c.FetchEpisode(context.Background(), "gone")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateSeriesSendsInput(t *testing.T) {
	srv, seen := newGraphQLServer(t, `{"data":{"createSeries":{"id":"new","title":"Glass Harbor","plannedSeasons":1,"episodesPerSeason":2}}}`)
	c := New(srv.URL, time.Second, nil)

	created, err := c.CreateSeries(context.Background(), models.CreateSeriesInput{
		Title:             "Glass Harbor",
		PlannedSeasons:    1,
		EpisodesPerSeason: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)

	input, ok := (*seen)[0].Variables["input"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Glass Harbor", input["title"])
	assert.EqualValues(t, 2, input["episodesPerSeason"])
}

func TestDeleteSeriesIgnoresFalse(t *testing.T) {
	srv, _ := newGraphQLServer(t, `{"data":{"deleteSeries":false}}`)
	c := New(srv.URL, time.Second, nil)

	assert.NoError(t, c.DeleteSeries(context.Background(), "already-gone"))
}

func TestGenerateSeasonEpisodes(t *testing.T) {
	srv, seen := newGraphQLServer(t, `{"data":{"generateSeasonEpisodes":[
		{"id":"e1","seriesId":"s1","season":2,"number":1,"status":"ready"},
		{"id":"e2","seriesId":"s1","season":2,"number":2,"status":"failed","error":"quota"}
	]}}`)
	c := New(srv.URL, time.Second, nil)

	eps, err := c.GenerateSeasonEpisodes(context.Background(), "s1", 2)
	require.NoError(t, err)
	require.Len(t, eps, 2)
	require.NotNil(t, eps[1].Error)
	assert.Equal(t, "quota", *eps[1].Error)
	assert.EqualValues(t, 2, (*seen)[0].Variables["season"])
}

func TestStories(t *testing.T) {
	srv, seen := newGraphQLServer(t, `{"data":{"stories":[{"id":"st1","title":"Lighthouse"}],"deleteStory":true}}`)
	c := New(srv.URL, time.Second, nil)

	stories, err := c.ListStories(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "Lighthouse", stories[0].Title)

	require.NoError(t, c.DeleteStory(context.Background(), "st1"))
	assert.True(t, strings.Contains((*seen)[1].Query, "deleteStory"))
}

func TestGetServerStats(t *testing.T) {
	srv, _ := newGraphQLServer(t, `{"data":{"serverStats":{
		"uptimeSeconds":12.5,"episodesReady":4,"episodesFailed":1,"activeGenerations":0,
		"llmGenerate":{"count":5,"totalTimeMs":500,"avgTimeMs":100,"minTimeMs":50,"maxTimeMs":150,"totalInputTokens":1000},
		"dbQuery":null,"seasonGenerate":null
	}}}`)
	c := New(srv.URL, time.Second, nil)

	stats, err := c.GetServerStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, stats.UptimeSeconds)
	assert.Equal(t, int64(4), stats.EpisodesReady)
	require.NotNil(t, stats.LLMGenerate)
	assert.Equal(t, int64(5), stats.LLMGenerate.Count)
	assert.Nil(t, stats.DBQuery)
}

func TestNewDefaults(t *testing.T) {
	c := New("", 0, nil)
	assert.Equal(t, DefaultEndpoint, c.endpoint)
	assert.Equal(t, 10*time.Minute, c.httpClient.Timeout)
}
