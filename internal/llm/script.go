package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/showrunner/internal/lore"
	"github.com/raphaelgruber/showrunner/internal/models"
)

// ErrMalformedDraft indicates the model answer could not be parsed into an episode.
var ErrMalformedDraft = errors.New("malformed episode draft")

const (
	// maxPreviousEpisodes bounds how many earlier synopses go into a prompt.
	maxPreviousEpisodes = 6
	// maxLoreBytes bounds the series bible excerpt in a prompt.
	maxLoreBytes = 6000
)

// EpisodeRequest describes one episode to write.
type EpisodeRequest struct {
	Series   models.Series
	Season   int
	Number   int
	Previous []models.Episode // earlier episodes, oldest first, for continuity
}

const episodeSystemPrompt = `You are the head writer of a serialized fiction series. Write the requested episode so it
fits the series bible and continues from the previous episodes.

Answer in exactly this format:
TITLE: <episode title>
SYNOPSIS: <two or three sentences>
SCRIPT:
<the full script>`

// WriteEpisode asks the model for one episode and parses the answer.
func (m *Model) WriteEpisode(ctx context.Context, req EpisodeRequest) (models.EpisodeDraft, error) {
	answer, err := m.GenerateWithSystem(ctx, episodeSystemPrompt, buildEpisodePrompt(req))
	if err != nil {
		return models.EpisodeDraft{}, err
	}
	draft, err := parseDraft(answer)
	if err != nil {
		return models.EpisodeDraft{}, fmt.Errorf("episode S%02dE%02d: %w", req.Season, req.Number, err)
	}
	return draft, nil
}

func buildEpisodePrompt(req EpisodeRequest) string {
	s := req.Series
	var b strings.Builder

	fmt.Fprintf(&b, "Series: %s\n", s.Title)
	if s.Tagline != "" {
		fmt.Fprintf(&b, "Tagline: %s\n", s.Tagline)
	}
	if len(s.Genre) > 0 {
		fmt.Fprintf(&b, "Genre: %s\n", strings.Join(s.Genre, ", "))
	}
	if s.FullLore != "" {
		fmt.Fprintf(&b, "\nLore:\n%s\n", lore.Excerpt(s.FullLore, maxLoreBytes))
	}
	if s.VisualStyle != "" {
		fmt.Fprintf(&b, "\nVisual style: %s\n", s.VisualStyle)
	}
	if s.ScriptStyle != "" {
		fmt.Fprintf(&b, "Script style: %s\n", s.ScriptStyle)
	}
	if len(s.MainCharacters) > 0 {
		b.WriteString("\nMain characters:\n")
		for _, c := range s.MainCharacters {
			line := "- " + c.Name
			if c.Role != "" {
				line += " (" + c.Role + ")"
			}
			if c.Description != "" {
				line += ": " + c.Description
			}
			b.WriteString(line + "\n")
		}
	}

	previous := req.Previous
	if len(previous) > maxPreviousEpisodes {
		previous = previous[len(previous)-maxPreviousEpisodes:]
	}
	if len(previous) > 0 {
		b.WriteString("\nPreviously:\n")
		for _, ep := range previous {
			fmt.Fprintf(&b, "%s %s: %s\n", ep.Code(), ep.DisplayTitle(), ep.Synopsis)
		}
	}

	fmt.Fprintf(&b, "\nWrite season %d, episode %d of %d.\n", req.Season, req.Number, s.EpisodesPerSeason)
	if req.Number == s.EpisodesPerSeason {
		b.WriteString("This is the season finale.\n")
	}
	return b.String()
}

// parseDraft splits a model answer into title, synopsis and script.
func parseDraft(answer string) (models.EpisodeDraft, error) {
	var draft models.EpisodeDraft
	var script []string
	inScript := false

	for _, line := range strings.Split(strings.ReplaceAll(answer, "\r\n", "\n"), "\n") {
		if inScript {
			script = append(script, line)
			continue
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case hasLabel(trimmed, "TITLE:"):
			draft.Title = strings.Trim(strings.TrimSpace(trimmed[len("TITLE:"):]), `"*`)
		case hasLabel(trimmed, "SYNOPSIS:"):
			draft.Synopsis = strings.TrimSpace(trimmed[len("SYNOPSIS:"):])
		case hasLabel(trimmed, "SCRIPT:"):
			inScript = true
			if rest := strings.TrimSpace(trimmed[len("SCRIPT:"):]); rest != "" {
				script = append(script, rest)
			}
		}
	}

	draft.Script = strings.TrimSpace(strings.Join(script, "\n"))
	if draft.Title == "" || draft.Script == "" {
		return models.EpisodeDraft{}, ErrMalformedDraft
	}
	return draft, nil
}

func hasLabel(line, label string) bool {
	return len(line) >= len(label) && strings.EqualFold(line[:len(label)], label)
}
