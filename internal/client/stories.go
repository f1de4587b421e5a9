package client

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/showrunner/internal/models"
)

const storyFields = `id title premise genre status createdAt`

// ListStories returns every stored story.
func (c *Client) ListStories(ctx context.Context) ([]models.Story, error) {
	query := `query ListStories { stories { ` + storyFields + ` } }`

	var result struct {
		Stories []models.Story `json:"stories"`
	}
	if err := c.Execute(ctx, query, nil, &result); err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return result.Stories, nil
}

// CreateStory stores a new story.
func (c *Client) CreateStory(ctx context.Context, input models.CreateStoryInput) (*models.Story, error) {
	query := `mutation CreateStory($input: CreateStoryInput!) {
		createStory(input: $input) { ` + storyFields + ` }
	}`

	var result struct {
		CreateStory *models.Story `json:"createStory"`
	}
	if err := c.Execute(ctx, query, map[string]any{"input": input}, &result); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}
	if result.CreateStory == nil {
		return nil, fmt.Errorf("create story: empty response")
	}
	return result.CreateStory, nil
}

// DeleteStory deletes a story. Deleting a missing story succeeds.
func (c *Client) DeleteStory(ctx context.Context, id string) error {
	const query = `
		mutation DeleteStory($id: ID!) {
			deleteStory(id: $id)
		}
	`
	if err := c.Execute(ctx, query, map[string]any{"id": id}, nil); err != nil {
		return fmt.Errorf("delete story %s: %w", id, err)
	}
	return nil
}
