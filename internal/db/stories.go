package db

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// ListStories returns every story, newest first.
func (c *Client) ListStories(ctx context.Context) ([]models.Story, error) {
	results, err := query[[]storyRecord](ctx, c, `SELECT * FROM story ORDER BY created DESC`, nil)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return convertAll(rows(results), storyRecord.toModel)
}

// CreateStory inserts a story under the given id.
func (c *Client) CreateStory(ctx context.Context, id string, input models.CreateStoryInput) (*models.Story, error) {
	genre := input.Genre
	if genre == nil {
		genre = []string{}
	}

	results, err := query[[]storyRecord](ctx, c, `
		CREATE type::record("story", $id) CONTENT {
			title: $title,
			premise: $premise,
			genre: $genre
		} RETURN AFTER
	`, map[string]any{
		"id":      id,
		"title":   input.Title,
		"premise": input.Premise,
		"genre":   genre,
	})
	if err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}

	rec := first(results)
	if rec == nil {
		return nil, fmt.Errorf("create story: no result returned")
	}
	story, err := rec.toModel()
	if err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}
	return &story, nil
}

// DeleteStory deletes a story. Returns false if it did not exist.
func (c *Client) DeleteStory(ctx context.Context, id string) (bool, error) {
	results, err := query[[]storyRecord](ctx, c, `
		DELETE type::record("story", $id) RETURN BEFORE
	`, map[string]any{"id": id})
	if err != nil {
		return false, fmt.Errorf("delete story: %w", err)
	}
	return first(results) != nil, nil
}
