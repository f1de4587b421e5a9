package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/raphaelgruber/showrunner/internal/client"
	"github.com/raphaelgruber/showrunner/internal/graph"
	"github.com/raphaelgruber/showrunner/internal/llm"
	"github.com/raphaelgruber/showrunner/internal/metrics"
	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/raphaelgruber/showrunner/internal/service"
)

type draftWriter struct{}

func (draftWriter) WriteEpisode(ctx context.Context, req llm.EpisodeRequest) (models.EpisodeDraft, error) {
	return models.EpisodeDraft{
		Title:    fmt.Sprintf("Part %d", req.Number),
		Synopsis: "The keeper finds a letter.",
		Script:   "EXT. CLIFF - DAWN",
	}, nil
}

// testEnv points the CLI at an in-memory server and returns a client for assertions.
func testEnv(t *testing.T) *client.Client {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := graph.NewResolverWith(service.NewMemoryStore(), draftWriter{}, nil, quiet)
	h := graph.NewHandler(r, "", 0)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("SHOWRUNNER_SERVER_URL", srv.URL)
	t.Setenv("SHOWRUNNER_SESSION_FILE", filepath.Join(dir, "session.yaml"))
	t.Setenv("SHOWRUNNER_LOG_FILE", filepath.Join(dir, "showrunner.log"))
	t.Setenv("SHOWRUNNER_API_TOKEN", "")

	return client.New(srv.URL, 5*time.Second, nil)
}

// runCLI executes the root command with args and returns its output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Flag variables outlive a single execution.
	deleteForce, generateWatch, verbose = false, false, false
	generateSeason, createSeasons, createEpisodes = 1, 1, 6
	createTitle, createTagline, createGenre, createCharacters = "", "", "", ""
	createLore, createLoreFile, createVisualStyle, createScriptStyle, createFrom = "", "", "", "", ""
	loginToken, loginName, loginEmail = "", "", ""
	storyPremise, storyGenre, serverURL = "", "", ""
	for _, name := range []string{"title", "tagline", "genre", "seasons", "episodes", "lore",
		"visual-style", "script-style", "characters"} {
		seriesCreateCmd.Flags().Lookup(name).Changed = false
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeriesWorkflow(t *testing.T) {
	c := testEnv(t)
	ctx := context.Background()

	out, err := runCLI(t, "series", "create", "--title", "The Lighthouse", "--genre", "mystery, drama",
		"--seasons", "2", "--episodes", "2", "--characters", "Mara:keeper:last of her line")
	require.NoError(t, err)
	assert.Contains(t, out, "Created: The Lighthouse")
	assert.Contains(t, out, "Genre:   mystery, drama")
	assert.Contains(t, out, "• Mara (keeper)")

	list, err := c.ListSeries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	out, err = runCLI(t, "series")
	require.NoError(t, err)
	assert.Contains(t, out, "Series (1):")
	assert.Contains(t, out, "The Lighthouse [planning] 2×2")

	out, err = runCLI(t, "series", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Season 1:\n  not generated")

	out, err = runCLI(t, "series", "generate", id, "--season", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Generating season 2...")
	assert.Contains(t, out, "✓ S02E01  Part 1")
	assert.Contains(t, out, "2/2 episodes ready")

	detail, err := c.FetchSeriesDetail(ctx, id)
	require.NoError(t, err)
	require.Len(t, detail.Episodes, 2)

	out, err = runCLI(t, "episode", "show", detail.Episodes[1].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "The Lighthouse · S02E02: Part 2 [ready]")
	assert.Contains(t, out, "EXT. CLIFF - DAWN")

	out, err = runCLI(t, "series", "delete", id, "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted: The Lighthouse")

	list, err = c.ListSeries(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSeriesCreateFromBible(t *testing.T) {
	c := testEnv(t)

	path := filepath.Join(t.TempDir(), "bible.md")
	bible := "---\ntitle: Glass Harbor\ngenre: [fantasy]\nseasons: 2\n---\n" +
		"## Characters\n\n- Mara (keeper): last of her line\n\n## World\n\nThree families run the harbor.\n"
	require.NoError(t, os.WriteFile(path, []byte(bible), 0o600))

	out, err := runCLI(t, "series", "create", "--from", path, "--episodes", "3", "--genre", "fantasy, noir")
	require.NoError(t, err)
	assert.Contains(t, out, "Created: Glass Harbor")

	list, err := c.ListSeries(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	s := list[0]
	assert.Equal(t, 2, s.PlannedSeasons)
	assert.Equal(t, 3, s.EpisodesPerSeason)
	assert.Equal(t, []string{"fantasy", "noir"}, s.Genre)
	require.Len(t, s.MainCharacters, 1)
	assert.Equal(t, "keeper", s.MainCharacters[0].Role)
	assert.Contains(t, s.FullLore, "Three families run the harbor.")
}

func TestSeriesErrors(t *testing.T) {
	c := testEnv(t)

	_, err := runCLI(t, "series", "create", "--seasons", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")

	_, err = runCLI(t, "series", "show", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not open series")

	_, err = runCLI(t, "episode", "show", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not open episode")

	created, err := c.CreateSeries(context.Background(), models.CreateSeriesInput{
		Title: "Short", PlannedSeasons: 1, EpisodesPerSeason: 1,
	})
	require.NoError(t, err)

	_, err = runCLI(t, "series", "generate", created.ID, "--season", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "season 3 is outside the 1 planned seasons")

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		_, err = runCLI(t, "series", "delete", created.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--force")
	}
}

func TestStoriesCommands(t *testing.T) {
	c := testEnv(t)

	out, err := runCLI(t, "stories")
	require.NoError(t, err)
	assert.Contains(t, out, "No stories found.")

	out, err = runCLI(t, "stories", "create", "Night Ferry", "--premise", "A crossing that never ends.")
	require.NoError(t, err)
	assert.Contains(t, out, "Created: Night Ferry")

	stories, err := c.ListStories(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 1)

	out, err = runCLI(t, "stories", "list", "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Stories (1):")
	assert.Contains(t, out, "A crossing that never ends.")

	out, err = runCLI(t, "stories", "delete", stories[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted: "+stories[0].ID)

	// Deleting again still succeeds.
	_, err = runCLI(t, "stories", "delete", stories[0].ID)
	require.NoError(t, err)
}

func TestAuthCommands(t *testing.T) {
	testEnv(t)

	_, err := runCLI(t, "whoami")
	require.Error(t, err)

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		_, err = runCLI(t, "login")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--token is required")
	}

	out, err := runCLI(t, "login", "--token", "secret", "--name", "Ada", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in to")

	out, err = runCLI(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "Email:   ada@example.com")
	require.NotNil(t, sess)
	assert.Equal(t, "secret", sess.Token)

	out, err = runCLI(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")

	_, err = runCLI(t, "whoami")
	require.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	testEnv(t)

	out, err := runCLI(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Server Statistics")
	assert.Contains(t, out, "Episodes: 0 ready, 0 failed")
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	ok, err := confirm(strings.NewReader("y\n"), &out, "About to delete: x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Continue? [y/N]: ")

	ok, err = confirm(strings.NewReader("YES"), io.Discard, "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = confirm(strings.NewReader("\n"), io.Discard, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPrintServerStats(t *testing.T) {
	var in, outTokens int64 = 1200, 800
	avgIn, avgOut := 600.0, 400.0
	stats := &metrics.Snapshot{
		UptimeSeconds:  12.5,
		EpisodesReady:  2,
		EpisodesFailed: 1,
		LLMGenerate: &metrics.OperationSnapshot{
			Count: 2, TotalTimeMs: 300, AvgTimeMs: 150, MinTimeMs: 100, MaxTimeMs: 200,
			TotalInputTokens: &in, TotalOutputTokens: &outTokens,
			AvgInputTokens: &avgIn, AvgOutputTokens: &avgOut,
		},
	}

	var out bytes.Buffer
	printServerStats(&out, stats)
	s := out.String()
	assert.Contains(t, s, "Uptime: 12.5 seconds")
	assert.Contains(t, s, "Episodes: 2 ready, 1 failed")
	assert.Contains(t, s, "LLM Generate:\n  Calls: 2, Total: 300ms")
	assert.Contains(t, s, "Tokens In:  1200 total, avg 600")
	assert.NotContains(t, s, "DB Query")
}

func TestProgressModel(t *testing.T) {
	m := newProgressModel("s1", 1, 3)
	assert.Contains(t, m.renderContent(), "0/3 episodes")

	ep := models.Episode{Season: 1, Number: 1, Status: models.EpisodeGenerating}
	next, _ := m.Update(episodeEventMsg{SeriesID: "s1", Season: 1, Episode: &ep})
	m = next.(progressModel)
	assert.Contains(t, m.renderContent(), "[writing S01E01]")

	ep.Status = models.EpisodeReady
	next, _ = m.Update(episodeEventMsg{SeriesID: "s1", Season: 1, Episode: &ep})
	m = next.(progressModel)
	assert.Contains(t, m.renderContent(), "1/3 episodes")

	// Events of other seasons are ignored.
	other := models.Episode{Season: 2, Number: 2, Status: models.EpisodeReady}
	next, _ = m.Update(episodeEventMsg{SeriesID: "s1", Season: 2, Episode: &other})
	m = next.(progressModel)
	assert.Contains(t, m.renderContent(), "1/3 episodes")

	next, cmd := m.Update(generationDoneMsg{episodes: []models.Episode{
		{Season: 1, Number: 1, Status: models.EpisodeReady, Title: "One"},
		{Season: 1, Number: 2, Status: models.EpisodeReady, Title: "Two"},
		{Season: 1, Number: 3, Status: models.EpisodeFailed},
	}})
	m = next.(progressModel)
	require.NotNil(t, cmd)
	assert.True(t, m.done)
	final := m.renderContent()
	assert.Contains(t, final, "Season 1: 2 ready, 1 failed")
	assert.Contains(t, final, "S01E02  Two")
}

func TestProgressModelQuit(t *testing.T) {
	m := newProgressModel("s1", 2, 3)
	next, cmd := m.Update(generationDoneMsg{err: fmt.Errorf("boom")})
	m = next.(progressModel)
	require.NotNil(t, cmd)
	assert.Contains(t, m.renderContent(), "Generation failed: boom")

	m = newProgressModel("s1", 2, 3)
	m.quitting = true
	assert.Contains(t, m.renderContent(), "showrunner series show s1")
}
