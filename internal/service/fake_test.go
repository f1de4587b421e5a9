package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/showrunner/internal/llm"
	"github.com/raphaelgruber/showrunner/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubWriter writes "Title N" episodes. fail maps episode numbers to errors. When gate is set every
// call first signals started and then waits on gate or ctx.
type stubWriter struct {
	mu       sync.Mutex
	requests []llm.EpisodeRequest
	fail     map[int]error

	started chan struct{}
	gate    chan struct{}
}

func (w *stubWriter) WriteEpisode(ctx context.Context, req llm.EpisodeRequest) (models.EpisodeDraft, error) {
	w.mu.Lock()
	w.requests = append(w.requests, req)
	err := w.fail[req.Number]
	w.mu.Unlock()

	if w.started != nil {
		w.started <- struct{}{}
	}
	if w.gate != nil {
		select {
		case <-w.gate:
		case <-ctx.Done():
		}
	}
	if err != nil {
		return models.EpisodeDraft{}, err
	}
	return models.EpisodeDraft{
		Title:    fmt.Sprintf("Title %d", req.Number),
		Synopsis: fmt.Sprintf("Synopsis S%dE%d", req.Season, req.Number),
		Script:   "INT. STUDIO - NIGHT",
	}, nil
}

func (w *stubWriter) calls() []llm.EpisodeRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]llm.EpisodeRequest(nil), w.requests...)
}

// hookStore wraps a MemoryStore, runs onGetSeries before the first series read and counts
// episode writes. When deleteGate is set, DeleteSeries signals deleteStarted and waits on it.
type hookStore struct {
	*MemoryStore

	once        sync.Once
	onGetSeries func(ctx context.Context)

	deleteStarted chan struct{}
	deleteGate    chan struct{}

	mu     sync.Mutex
	writes int
}

func (h *hookStore) GetSeries(ctx context.Context, id string) (*models.Series, error) {
	if h.onGetSeries != nil {
		h.once.Do(func() { h.onGetSeries(ctx) })
	}
	return h.MemoryStore.GetSeries(ctx, id)
}

func (h *hookStore) UpsertEpisode(ctx context.Context, ep models.Episode) (*models.Episode, error) {
	h.mu.Lock()
	h.writes++
	h.mu.Unlock()
	return h.MemoryStore.UpsertEpisode(ctx, ep)
}

func (h *hookStore) DeleteSeries(ctx context.Context, id string) (bool, error) {
	if h.deleteGate != nil {
		h.deleteStarted <- struct{}{}
		<-h.deleteGate
	}
	return h.MemoryStore.DeleteSeries(ctx, id)
}

func (h *hookStore) episodeWrites() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.writes
}
