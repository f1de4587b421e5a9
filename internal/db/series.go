package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// ListSeries returns every series, newest first.
func (c *Client) ListSeries(ctx context.Context) ([]models.Series, error) {
	results, err := query[[]seriesRecord](ctx, c, `SELECT * FROM series ORDER BY created DESC`, nil)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return convertAll(rows(results), seriesRecord.toModel)
}

// GetSeries retrieves a series by ID.
// Returns nil if not found.
func (c *Client) GetSeries(ctx context.Context, id string) (*models.Series, error) {
	results, err := query[[]seriesRecord](ctx, c, `
		SELECT * FROM type::record("series", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}

	rec := first(results)
	if rec == nil {
		return nil, nil
	}
	s, err := rec.toModel()
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return &s, nil
}

// CreateSeries inserts a series under the id it carries.
func (c *Client) CreateSeries(ctx context.Context, s models.Series) (*models.Series, error) {
	genre := s.Genre
	if genre == nil {
		genre = []string{}
	}
	characters := s.MainCharacters
	if characters == nil {
		characters = []models.Character{}
	}

	results, err := query[[]seriesRecord](ctx, c, `
		CREATE type::record("series", $id) CONTENT {
			title: $title,
			tagline: $tagline,
			genre: $genre,
			status: $status,
			planned_seasons: $planned_seasons,
			episodes_per_season: $episodes_per_season,
			full_lore: $full_lore,
			visual_style: $visual_style,
			script_style: $script_style,
			main_characters: $main_characters
		} RETURN AFTER
	`, map[string]any{
		"id":                  s.ID,
		"title":               s.Title,
		"tagline":             s.Tagline,
		"genre":               genre,
		"status":              string(s.Status),
		"planned_seasons":     s.PlannedSeasons,
		"episodes_per_season": s.EpisodesPerSeason,
		"full_lore":           s.FullLore,
		"visual_style":        s.VisualStyle,
		"script_style":        s.ScriptStyle,
		"main_characters":     characters,
	})
	if err != nil {
		return nil, fmt.Errorf("create series: %w", err)
	}

	rec := first(results)
	if rec == nil {
		return nil, fmt.Errorf("create series: no result returned")
	}
	created, err := rec.toModel()
	if err != nil {
		return nil, fmt.Errorf("create series: %w", err)
	}
	return &created, nil
}

// UpdateSeriesStatus sets the production status of a series.
func (c *Client) UpdateSeriesStatus(ctx context.Context, id string, status models.SeriesStatus) error {
	_, err := query[any](ctx, c, `
		UPDATE type::record("series", $id) SET status = $status
	`, map[string]any{"id": id, "status": string(status)})
	if err != nil {
		return fmt.Errorf("update series status: %w", err)
	}
	return nil
}

// DeleteSeries deletes a series and its episodes.
// Returns false if the series did not exist.
func (c *Client) DeleteSeries(ctx context.Context, id string) (bool, error) {
	vars := map[string]any{"id": id}

	if _, err := query[any](ctx, c, `
		DELETE episode WHERE series = type::record("series", $id)
	`, vars); err != nil {
		return false, fmt.Errorf("delete series episodes: %w", err)
	}

	// RETURN BEFORE yields the deleted record, if any.
	results, err := query[[]seriesRecord](ctx, c, `
		DELETE type::record("series", $id) RETURN BEFORE
	`, vars)
	if err != nil {
		return false, fmt.Errorf("delete series: %w", err)
	}
	return first(results) != nil, nil
}
