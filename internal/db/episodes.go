package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// ListEpisodes returns the episodes of a series ordered by season and number.
func (c *Client) ListEpisodes(ctx context.Context, seriesID string) ([]models.Episode, error) {
	results, err := query[[]episodeRecord](ctx, c, `
		SELECT * FROM episode
		WHERE series = type::record("series", $series_id)
		ORDER BY season, number
	`, map[string]any{"series_id": seriesID})
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	return convertAll(rows(results), episodeRecord.toModel)
}

// GetEpisode retrieves an episode by ID.
// Returns nil if not found.
func (c *Client) GetEpisode(ctx context.Context, id string) (*models.Episode, error) {
	results, err := query[[]episodeRecord](ctx, c, `
		SELECT * FROM type::record("episode", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}

	rec := first(results)
	if rec == nil {
		return nil, nil
	}
	ep, err := rec.toModel()
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return &ep, nil
}

// UpsertEpisode creates or replaces an episode by ID.
// The created timestamp is only set on insert. A different episode already occupying the
// (series, season, number) slot yields ErrAlreadyExists.
func (c *Client) UpsertEpisode(ctx context.Context, ep models.Episode) (*models.Episode, error) {
	results, err := query[[]episodeRecord](ctx, c, `
		UPSERT type::record("episode", $id) SET
			series = type::record("series", $series_id),
			season = $season,
			number = $number,
			status = $status,
			title = $title,
			synopsis = $synopsis,
			script = $script,
			error = $error,
			updated = time::now(),
			created = IF created THEN created ELSE time::now() END
		RETURN AFTER
	`, map[string]any{
		"id":        ep.ID,
		"series_id": ep.SeriesID,
		"season":    ep.Season,
		"number":    ep.Number,
		"status":    string(ep.Status),
		"title":     ep.Title,
		"synopsis":  ep.Synopsis,
		"script":    ep.Script,
		"error":     ep.Error,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert episode: %w", err)
	}

	rec := first(results)
	if rec == nil {
		return nil, fmt.Errorf("upsert episode: no result returned")
	}
	saved, err := rec.toModel()
	if err != nil {
		return nil, fmt.Errorf("upsert episode: %w", err)
	}
	return &saved, nil
}
