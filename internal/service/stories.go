package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// StoryService handles standalone stories.
type StoryService struct {
	store  Store
	logger *slog.Logger
}

// NewStoryService creates a story service.
func NewStoryService(store Store, logger *slog.Logger) *StoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoryService{store: store, logger: logger}
}

// ListStories returns every story.
func (s *StoryService) ListStories(ctx context.Context) ([]models.Story, error) {
	return s.store.ListStories(ctx)
}

// CreateStory stores a new draft story.
func (s *StoryService) CreateStory(ctx context.Context, input models.CreateStoryInput) (*models.Story, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Premise = strings.TrimSpace(input.Premise)
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	input.Genre = models.SplitGenre(strings.Join(input.Genre, ","))

	story, err := s.store.CreateStory(ctx, uuid.New().String(), input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("story created", "story_id", story.ID, "title", story.Title)
	return story, nil
}

// DeleteStory deletes a story.
func (s *StoryService) DeleteStory(ctx context.Context, id string) error {
	deleted, err := s.store.DeleteStory(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("story %q: %w", id, models.ErrNotFound)
	}
	s.logger.Info("story deleted", "story_id", id)
	return nil
}
