package client

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/showrunner/internal/models"
)

const seriesFields = `
	id title tagline genre status plannedSeasons episodesPerSeason
	fullLore visualStyle scriptStyle
	mainCharacters { name role description }
	createdAt
`

const episodeFields = `
	id seriesId season number status title synopsis script error createdAt updatedAt
`

// ListSeries returns every series, newest first.
func (c *Client) ListSeries(ctx context.Context) ([]models.Series, error) {
	query := `query ListSeries { seriesList {` + seriesFields + `} }`

	var result struct {
		SeriesList []models.Series `json:"seriesList"`
	}
	if err := c.Execute(ctx, query, nil, &result); err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return result.SeriesList, nil
}

// CreateSeries creates a series from the given creative parameters.
func (c *Client) CreateSeries(ctx context.Context, input models.CreateSeriesInput) (*models.Series, error) {
	query := `mutation CreateSeries($input: CreateSeriesInput!) {
		createSeries(input: $input) {` + seriesFields + `}
	}`

	var result struct {
		CreateSeries *models.Series `json:"createSeries"`
	}
	if err := c.Execute(ctx, query, map[string]any{"input": input}, &result); err != nil {
		return nil, fmt.Errorf("create series: %w", err)
	}
	if result.CreateSeries == nil {
		return nil, fmt.Errorf("create series: empty response")
	}
	return result.CreateSeries, nil
}

// DeleteSeries deletes a series and its episodes. Deleting a series that no longer exists succeeds.
func (c *Client) DeleteSeries(ctx context.Context, id string) error {
	const query = `
		mutation DeleteSeries($id: ID!) {
			deleteSeries(id: $id)
		}
	`

	var result struct {
		DeleteSeries bool `json:"deleteSeries"`
	}
	if err := c.Execute(ctx, query, map[string]any{"id": id}, &result); err != nil {
		return fmt.Errorf("delete series %s: %w", id, err)
	}
	return nil
}

// FetchSeriesDetail returns a series with all of its episodes.
func (c *Client) FetchSeriesDetail(ctx context.Context, id string) (*models.SeriesDetail, error) {
	query := `query SeriesDetail($id: ID!) {
		series(id: $id) {` + seriesFields + ` episodes {` + episodeFields + `} }
	}`

	var result struct {
		Series *models.SeriesDetail `json:"series"`
	}
	if err := c.Execute(ctx, query, map[string]any{"id": id}, &result); err != nil {
		return nil, fmt.Errorf("fetch series %s: %w", id, err)
	}
	if result.Series == nil {
		return nil, fmt.Errorf("fetch series %s: %w", id, models.ErrNotFound)
	}
	return result.Series, nil
}

// GenerateSeasonEpisodes generates every episode of a season and returns them once the run ends.
func (c *Client) GenerateSeasonEpisodes(ctx context.Context, seriesID string, season int) ([]models.Episode, error) {
	query := `mutation GenerateSeason($seriesId: ID!, $season: Int!) {
		generateSeasonEpisodes(seriesId: $seriesId, season: $season) {` + episodeFields + `}
	}`

	var result struct {
		GenerateSeasonEpisodes []models.Episode `json:"generateSeasonEpisodes"`
	}
	vars := map[string]any{"seriesId": seriesID, "season": season}
	if err := c.Execute(ctx, query, vars, &result); err != nil {
		return nil, fmt.Errorf("generate season %d of %s: %w", season, seriesID, err)
	}
	return result.GenerateSeasonEpisodes, nil
}

// FetchEpisode returns a single episode.
func (c *Client) FetchEpisode(ctx context.Context, id string) (*models.Episode, error) {
	query := `query Episode($id: ID!) { episode(id: $id) {` + episodeFields + `} }`

	var result struct {
		Episode *models.Episode `json:"episode"`
	}
	if err := c.Execute(ctx, query, map[string]any{"id": id}, &result); err != nil {
		return nil, fmt.Errorf("fetch episode %s: %w", id, err)
	}
	if result.Episode == nil {
		return nil, fmt.Errorf("fetch episode %s: %w", id, models.ErrNotFound)
	}
	return result.Episode, nil
}
