package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/raphaelgruber/showrunner/internal/metrics"
	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestIsFatalAPIError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("connection reset"), false},
		{"credit balance", errors.New("insufficient credit balance"), true},
		{"rate limit", errors.New("rate limit exceeded"), true},
		{"quota exceeded", errors.New("quota exceeded for model"), true},
		{"billing issue", errors.New("billing account inactive"), true},
		{"invalid api key", errors.New("invalid api key"), true},
		{"authentication failed", errors.New("authentication failed"), true},
		{"unauthorized", errors.New("unauthorized request"), true},
		{"401 status", errors.New("HTTP 401: not allowed"), true},
		{"403 status", errors.New("HTTP 403: forbidden"), true},
		{"wrapped error", fmt.Errorf("generate: %w", errors.New("credit balance too low")), true},
		{"404 not fatal", errors.New("HTTP 404: not found"), false},
		{"timeout not fatal", errors.New("context deadline exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isFatalAPIError(tt.err)
			if got != tt.fatal {
				t.Errorf("isFatalAPIError(%v) = %v, want %v", tt.err, got, tt.fatal)
			}
		})
	}
}

func TestWrapFatalError(t *testing.T) {
	t.Run("wraps fatal error", func(t *testing.T) {
		err := errors.New("invalid api key provided")
		wrapped := wrapFatalError(err)
		if !errors.Is(wrapped, ErrFatalAPI) {
			t.Errorf("expected wrapped error to match ErrFatalAPI")
		}
		if !errors.Is(wrapped, err) {
			t.Errorf("expected wrapped error to keep the cause")
		}
	})

	t.Run("passes through non-fatal error", func(t *testing.T) {
		err := errors.New("network timeout")
		result := wrapFatalError(err)
		if errors.Is(result, ErrFatalAPI) {
			t.Errorf("non-fatal error should not be wrapped with ErrFatalAPI")
		}
		if result != err {
			t.Errorf("expected original error returned, got %v", result)
		}
	})

	t.Run("nil error", func(t *testing.T) {
		result := wrapFatalError(nil)
		if result != nil {
			t.Errorf("expected nil, got %v", result)
		}
	})
}

// stubLLM is a langchaingo model returning a canned answer.
type stubLLM struct {
	answer   string
	err      error
	info     map[string]any
	messages []llms.MessageContent
}

func (s *stubLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.messages = messages
	if s.err != nil {
		return nil, s.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: s.answer, GenerationInfo: s.info}},
	}, nil
}

func (s *stubLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

func testSeries() models.Series {
	return models.Series{
		ID:                "s1",
		Title:             "Night Shift",
		Tagline:           "The city never sleeps",
		Genre:             []string{"noir", "thriller"},
		PlannedSeasons:    1,
		EpisodesPerSeason: 3,
		FullLore:          "A harbor city run by three families.",
		MainCharacters:    []models.Character{{Name: "Vera", Role: "detective", Description: "tired"}},
	}
}

func TestWriteEpisode(t *testing.T) {
	stub := &stubLLM{
		answer: "TITLE: \"Low Tide\"\nSYNOPSIS: Vera finds a body.\nSCRIPT:\nINT. DOCKS - NIGHT\nRain.",
		info:   map[string]any{"PromptTokens": 120, "CompletionTokens": 480},
	}
	mc := metrics.NewCollector()
	m := New(stub, "stub", mc)

	draft, err := m.WriteEpisode(context.Background(), EpisodeRequest{
		Series: testSeries(),
		Season: 1,
		Number: 3,
		Previous: []models.Episode{
			{Season: 1, Number: 1, Title: "Pilot", Synopsis: "Vera arrives."},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Low Tide", draft.Title)
	assert.Equal(t, "Vera finds a body.", draft.Synopsis)
	assert.Equal(t, "INT. DOCKS - NIGHT\nRain.", draft.Script)

	require.Len(t, stub.messages, 2)
	prompt := stub.messages[1].Parts[0].(llms.TextContent).Text
	assert.Contains(t, prompt, "Night Shift")
	assert.Contains(t, prompt, "Vera (detective): tired")
	assert.Contains(t, prompt, "S01E01 Pilot: Vera arrives.")
	assert.Contains(t, prompt, "season finale")

	snap := mc.Snapshot().LLMGenerate
	require.NotNil(t, snap)
	assert.Equal(t, int64(1), snap.Count)
	require.NotNil(t, snap.TotalInputTokens)
	assert.Equal(t, int64(120), *snap.TotalInputTokens)
	assert.Equal(t, int64(480), *snap.TotalOutputTokens)
}

func TestWriteEpisodeFatalProviderError(t *testing.T) {
	m := New(&stubLLM{err: errors.New("HTTP 401: invalid api key")}, "stub", nil)

	_, err := m.WriteEpisode(context.Background(), EpisodeRequest{Series: testSeries(), Season: 1, Number: 1})
	assert.ErrorIs(t, err, ErrFatalAPI)
}

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    models.EpisodeDraft
		wantErr bool
	}{
		{
			name:   "canonical",
			answer: "TITLE: One\nSYNOPSIS: Short.\nSCRIPT:\nLine 1\nLine 2\n",
			want:   models.EpisodeDraft{Title: "One", Synopsis: "Short.", Script: "Line 1\nLine 2"},
		},
		{
			name:   "lowercase labels and inline script",
			answer: "title: **Two**\r\nsynopsis: s\r\nscript: FADE IN.",
			want:   models.EpisodeDraft{Title: "Two", Synopsis: "s", Script: "FADE IN."},
		},
		{
			name:   "script keeps label-like lines",
			answer: "TITLE: Three\nSCRIPT:\nTITLE: card on screen\nEND",
			want:   models.EpisodeDraft{Title: "Three", Script: "TITLE: card on screen\nEND"},
		},
		{name: "missing script", answer: "TITLE: Four\nSYNOPSIS: x", wantErr: true},
		{name: "free text", answer: "Sure! Here is an episode.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDraft(tt.answer)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedDraft)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildEpisodePromptLimitsHistory(t *testing.T) {
	var previous []models.Episode
	for i := 1; i <= 10; i++ {
		previous = append(previous, models.Episode{Season: 1, Number: i, Title: fmt.Sprintf("Ep%d", i)})
	}
	prompt := buildEpisodePrompt(EpisodeRequest{Series: testSeries(), Season: 2, Number: 1, Previous: previous})

	assert.NotContains(t, prompt, "Ep4:")
	assert.Contains(t, prompt, "Ep5:")
	assert.Contains(t, prompt, "Ep10:")
	assert.Equal(t, 6, strings.Count(prompt, "S01E"))
}

func TestBuildEpisodePromptBoundsLore(t *testing.T) {
	s := testSeries()
	s.FullLore = "## Harbor\n\n" + strings.Repeat("The harbor never sleeps. ", 400) + "\n\n## Sea\n\nThe sea takes one ship a year."
	prompt := buildEpisodePrompt(EpisodeRequest{Series: s, Season: 1, Number: 1})

	assert.Less(t, len(prompt), maxLoreBytes+1000)
	assert.Contains(t, prompt, "## Sea\nThe sea takes one ship a year.")
}
