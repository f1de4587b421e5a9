package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/raphaelgruber/showrunner/internal/metrics"
	"github.com/raphaelgruber/showrunner/internal/models"
)

func printSeriesList(w io.Writer, list []models.Series) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No series yet. Create one with 'showrunner series create'.")
		return
	}

	fmt.Fprintf(w, "Series (%d):\n\n", len(list))
	for _, s := range list {
		fmt.Fprintf(w, "- %s [%s] %d×%d  %s\n", s.Title, s.Status, s.PlannedSeasons, s.EpisodesPerSeason, s.ID)
		if verbose && s.Tagline != "" {
			fmt.Fprintf(w, "  %s\n", s.Tagline)
		}
	}
}

func printSeriesDetail(w io.Writer, s models.Series, episodes []models.Episode) {
	fmt.Fprintf(w, "%s\n", s.Title)
	fmt.Fprintf(w, "%s\n", strings.Repeat("═", max(len([]rune(s.Title)), 10)))
	if s.Tagline != "" {
		fmt.Fprintf(w, "%s\n", s.Tagline)
	}
	fmt.Fprintf(w, "\nID:      %s\n", s.ID)
	fmt.Fprintf(w, "Status:  %s\n", s.Status)
	if len(s.Genre) > 0 {
		fmt.Fprintf(w, "Genre:   %s\n", strings.Join(s.Genre, ", "))
	}
	fmt.Fprintf(w, "Plan:    %d seasons × %d episodes\n", s.PlannedSeasons, s.EpisodesPerSeason)

	if len(s.MainCharacters) > 0 {
		fmt.Fprintf(w, "\nCharacters:\n")
		for _, c := range s.MainCharacters {
			line := "  • " + c.Name
			if c.Role != "" {
				line += " (" + c.Role + ")"
			}
			fmt.Fprintln(w, line)
		}
	}

	for season := 1; season <= s.PlannedSeasons; season++ {
		fmt.Fprintf(w, "\nSeason %d:\n", season)
		found := false
		for _, ep := range episodes {
			if ep.Season != season {
				continue
			}
			found = true
			fmt.Fprintf(w, "  %s  %-10s %s  %s\n", ep.Code(), ep.Status, ep.DisplayTitle(), ep.ID)
		}
		if !found {
			fmt.Fprintf(w, "  not generated\n")
		}
	}
}

func printEpisode(w io.Writer, series *models.Series, ep models.Episode) {
	if series != nil {
		fmt.Fprintf(w, "%s · ", series.Title)
	}
	fmt.Fprintf(w, "%s: %s [%s]\n", ep.Code(), ep.DisplayTitle(), ep.Status)
	if ep.Error != nil {
		fmt.Fprintf(w, "\nError: %s\n", *ep.Error)
	}
	if ep.Synopsis != "" {
		fmt.Fprintf(w, "\n%s\n", ep.Synopsis)
	}
	if ep.Script != "" {
		fmt.Fprintf(w, "\n%s\n", ep.Script)
	}
}

func printEpisodes(w io.Writer, episodes []models.Episode) {
	ready := 0
	for _, ep := range episodes {
		mark := "✓"
		if ep.Status != models.EpisodeReady {
			mark = "✗"
		} else {
			ready++
		}
		fmt.Fprintf(w, "  %s %s  %s\n", mark, ep.Code(), ep.DisplayTitle())
		if ep.Error != nil {
			fmt.Fprintf(w, "      %s\n", *ep.Error)
		}
	}
	fmt.Fprintf(w, "\n%d/%d episodes ready\n", ready, len(episodes))
}

func printStories(w io.Writer, stories []models.Story) {
	if len(stories) == 0 {
		fmt.Fprintln(w, "No stories found.")
		return
	}
	fmt.Fprintf(w, "Stories (%d):\n\n", len(stories))
	for _, s := range stories {
		fmt.Fprintf(w, "- %s [%s]  %s\n", s.Title, s.Status, s.ID)
		if verbose && s.Premise != "" {
			fmt.Fprintf(w, "  %s\n", s.Premise)
		}
	}
}

func printServerStats(w io.Writer, stats *metrics.Snapshot) {
	fmt.Fprintf(w, "Server Statistics (in-memory, since restart)\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", stats.UptimeSeconds)
	fmt.Fprintf(w, "Episodes: %d ready, %d failed\n", stats.EpisodesReady, stats.EpisodesFailed)
	fmt.Fprintf(w, "Active generations: %d\n", stats.ActiveGenerations)

	if stats.SeasonGenerate != nil {
		fmt.Fprintf(w, "\nSeason Generate:\n")
		printOpStats(w, stats.SeasonGenerate)
	}

	if stats.LLMGenerate != nil {
		fmt.Fprintf(w, "\nLLM Generate:\n")
		printOpStats(w, stats.LLMGenerate)
		printTokenStats(w, stats.LLMGenerate)
	}

	if stats.DBQuery != nil {
		fmt.Fprintf(w, "\nDB Query:\n")
		printOpStats(w, stats.DBQuery)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op *metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Total: %dms\n", op.Count, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

// printTokenStats displays token statistics if available.
func printTokenStats(w io.Writer, op *metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Fprintf(w, "  Tokens In:  %d total", *op.TotalInputTokens)
	if op.AvgInputTokens != nil {
		fmt.Fprintf(w, ", avg %.0f", *op.AvgInputTokens)
	}
	if op.MinInputTokens != nil && op.MaxInputTokens != nil {
		fmt.Fprintf(w, ", min %d, max %d", *op.MinInputTokens, *op.MaxInputTokens)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Tokens Out: %d total", *op.TotalOutputTokens)
	if op.AvgOutputTokens != nil {
		fmt.Fprintf(w, ", avg %.0f", *op.AvgOutputTokens)
	}
	if op.MinOutputTokens != nil && op.MaxOutputTokens != nil {
		fmt.Fprintf(w, ", min %d, max %d", *op.MinOutputTokens, *op.MaxOutputTokens)
	}
	fmt.Fprintln(w)
}
