package workflow

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// StoryRepository is the remote surface of the story dashboard.
type StoryRepository interface {
	ListStories(ctx context.Context) ([]models.Story, error)
	DeleteStory(ctx context.Context, id string) error
}

// StorySnapshot is the read-only state of the story dashboard.
type StorySnapshot struct {
	Stories   []models.Story
	IsLoading bool
	Error     string
}

// StoryBoard backs the story dashboard. It shares no state with the series Controller.
type StoryBoard struct {
	repo   StoryRepository
	logger *slog.Logger

	mu      sync.Mutex
	stories []models.Story
	loading int
	err     string

	subs hub[StorySnapshot]
}

// NewStoryBoard creates an empty dashboard.
func NewStoryBoard(repo StoryRepository, logger *slog.Logger) *StoryBoard {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoryBoard{repo: repo, logger: logger}
}

// Snapshot returns the current dashboard state.
func (b *StoryBoard) Snapshot() StorySnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return StorySnapshot{
		Stories:   slices.Clone(b.stories),
		IsLoading: b.loading > 0,
		Error:     b.err,
	}
}

// Subscribe registers fn to receive every new dashboard snapshot.
func (b *StoryBoard) Subscribe(fn func(StorySnapshot)) (cancel func()) {
	return b.subs.subscribe(fn)
}

func (b *StoryBoard) update(fn func()) {
	b.mu.Lock()
	fn()
	b.mu.Unlock()
	b.subs.publish(b.Snapshot)
}

// Load replaces the dashboard with the remote story list.
func (b *StoryBoard) Load(ctx context.Context) {
	b.update(func() {
		b.loading++
		b.err = ""
	})

	stories, err := b.repo.ListStories(ctx)

	b.update(func() {
		b.loading--
		if err != nil {
			b.logger.Error("list stories failed", "error", err)
			b.err = describe("load stories", err)
			return
		}
		b.stories = stories
	})
}

// DeleteStory deletes a story. A story that is already gone counts as deleted.
func (b *StoryBoard) DeleteStory(ctx context.Context, id string) {
	b.update(func() { b.loading++ })

	err := b.repo.DeleteStory(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		err = nil
	}

	b.update(func() {
		b.loading--
		if err != nil {
			b.logger.Error("delete story failed", "story_id", id, "error", err)
			b.err = describe("delete story", err)
			return
		}
		b.stories = slices.DeleteFunc(b.stories, func(s models.Story) bool { return s.ID == id })
	})
}
