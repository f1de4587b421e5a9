package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/showrunner/internal/llm"
	"github.com/raphaelgruber/showrunner/internal/metrics"
	"github.com/raphaelgruber/showrunner/internal/models"
)

// errSeriesDeleted is returned by a generation run whose series was deleted mid-run.
var errSeriesDeleted = fmt.Errorf("series deleted during generation: %w", models.ErrNotFound)

// GenerateSeason generates every missing or failed episode of a season, in order, and returns the
// season's episodes. Ready episodes are kept. Only one run per series may be active.
//
// The run is detached from ctx cancellation: a client that stops waiting does not abort it.
// Deleting the series does. The run is registered before the series is read, so a delete either
// refuses it or cancels it before anything is written.
func (s *SeriesService) GenerateSeason(ctx context.Context, seriesID string, season int) ([]models.Episode, error) {
	runCtx, release, err := s.beginRun(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	defer release()

	series, err := s.store.GetSeries(runCtx, seriesID)
	if err != nil {
		return nil, err
	}
	if series == nil || runCtx.Err() != nil {
		return nil, fmt.Errorf("series %q: %w", seriesID, models.ErrNotFound)
	}
	if !series.HasSeason(season) {
		return nil, fmt.Errorf("%w: season %d is outside the %d planned seasons",
			models.ErrValidation, season, series.PlannedSeasons)
	}

	start := time.Now()
	s.logger.Info("season generation started", "series_id", seriesID, "season", season,
		"episodes", series.EpisodesPerSeason)

	episodes, err := s.runSeason(runCtx, *series, season)
	if runCtx.Err() != nil {
		err = errSeriesDeleted
	}

	if s.metrics != nil {
		s.metrics.RecordTiming(metrics.OpSeasonGenerate, time.Since(start))
	}

	done := models.GenerationEvent{SeriesID: seriesID, Season: season, Done: true}
	if err != nil {
		msg := err.Error()
		done.Error = &msg
		s.logger.Error("season generation failed", "series_id", seriesID, "season", season, "error", err)
	} else {
		s.logger.Info("season generation finished", "series_id", seriesID, "season", season,
			"duration", time.Since(start))
	}
	s.publish(done)

	if err != nil {
		return nil, err
	}
	return episodes, nil
}

// beginRun registers a run for the series, refusing a second concurrent one and any run for a
// series that is being deleted.
func (s *SeriesService) beginRun(ctx context.Context, seriesID string) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleting[seriesID] > 0 {
		return nil, nil, fmt.Errorf("series %q: %w", seriesID, models.ErrNotFound)
	}
	if _, running := s.runs[seriesID]; running {
		return nil, nil, fmt.Errorf("series %q: %w", seriesID, models.ErrGenerationInProgress)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &run{cancel: cancel, done: make(chan struct{})}
	s.runs[seriesID] = r

	finished := func() {}
	if s.metrics != nil {
		finished = s.metrics.GenerationStarted()
	}

	release := func() {
		s.mu.Lock()
		delete(s.runs, seriesID)
		s.mu.Unlock()
		cancel()
		finished()
		close(r.done)
	}
	return runCtx, release, nil
}

func (s *SeriesService) runSeason(ctx context.Context, series models.Series, season int) ([]models.Episode, error) {
	if ctx.Err() != nil {
		return nil, errSeriesDeleted
	}
	existing, err := s.store.ListEpisodes(ctx, series.ID)
	if err != nil {
		return nil, err
	}
	sortEpisodes(existing)

	slots, err := s.prepareSlots(ctx, series, season, existing)
	if err != nil {
		return nil, err
	}

	if series.Status == models.SeriesPlanning {
		if err := s.store.UpdateSeriesStatus(ctx, series.ID, models.SeriesInProduction); err != nil {
			return nil, err
		}
		series.Status = models.SeriesInProduction
	}

	previous := readyBefore(existing, season)
	var fatal error

	for i, ep := range slots {
		if ctx.Err() != nil {
			return nil, errSeriesDeleted
		}
		if ep.Status == models.EpisodeReady {
			previous = append(previous, ep)
			continue
		}

		if fatal != nil {
			ep, err = s.finishEpisode(ctx, ep, models.EpisodeDraft{}, fatal)
			if err != nil {
				return nil, err
			}
			slots[i] = ep
			continue
		}

		ep.Status = models.EpisodeGenerating
		ep.Error = nil
		saved, err := s.store.UpsertEpisode(ctx, ep)
		if err != nil {
			return nil, err
		}
		s.publish(models.GenerationEvent{SeriesID: series.ID, Season: season, Episode: saved})

		draft, genErr := s.writer.WriteEpisode(ctx, llm.EpisodeRequest{
			Series:   series,
			Season:   season,
			Number:   ep.Number,
			Previous: previous,
		})
		if ctx.Err() != nil {
			return nil, errSeriesDeleted
		}
		if errors.Is(genErr, llm.ErrFatalAPI) {
			fatal = genErr
		}

		ep, err = s.finishEpisode(ctx, *saved, draft, genErr)
		if err != nil {
			return nil, err
		}
		slots[i] = ep
		if ep.Status == models.EpisodeReady {
			previous = append(previous, ep)
		}
	}

	if err := s.completeIfDone(ctx, series); err != nil {
		return nil, err
	}
	return slots, nil
}

// prepareSlots returns one episode per slot of the season, creating pending ones for gaps.
func (s *SeriesService) prepareSlots(ctx context.Context, series models.Series, season int, existing []models.Episode) ([]models.Episode, error) {
	bySlot := make(map[int]models.Episode)
	for _, ep := range existing {
		if ep.Season == season {
			bySlot[ep.Number] = ep
		}
	}

	slots := make([]models.Episode, 0, series.EpisodesPerSeason)
	for n := 1; n <= series.EpisodesPerSeason; n++ {
		ep, ok := bySlot[n]
		if !ok {
			if ctx.Err() != nil {
				return nil, errSeriesDeleted
			}
			pending := models.Episode{
				ID:       uuid.New().String(),
				SeriesID: series.ID,
				Season:   season,
				Number:   n,
				Status:   models.EpisodePending,
			}
			saved, err := s.store.UpsertEpisode(ctx, pending)
			if err != nil {
				return nil, err
			}
			ep = *saved
		}
		slots = append(slots, ep)
	}
	return slots, nil
}

// finishEpisode stores the outcome of one generation attempt and publishes it.
func (s *SeriesService) finishEpisode(ctx context.Context, ep models.Episode, draft models.EpisodeDraft, genErr error) (models.Episode, error) {
	if genErr != nil {
		msg := genErr.Error()
		ep.Status = models.EpisodeFailed
		ep.Error = &msg
		s.logger.Warn("episode generation failed", "series_id", ep.SeriesID, "episode", ep.Code(), "error", genErr)
	} else {
		ep.Status = models.EpisodeReady
		ep.Error = nil
		ep.Title = draft.Title
		ep.Synopsis = draft.Synopsis
		ep.Script = draft.Script
		s.logger.Info("episode ready", "series_id", ep.SeriesID, "episode", ep.Code(), "title", ep.Title)
	}
	if s.metrics != nil {
		s.metrics.RecordEpisode(genErr == nil)
	}

	saved, err := s.store.UpsertEpisode(ctx, ep)
	if err != nil {
		return models.Episode{}, err
	}
	s.publish(models.GenerationEvent{SeriesID: ep.SeriesID, Season: ep.Season, Episode: saved})
	return *saved, nil
}

// completeIfDone marks the series completed once every planned episode is ready.
func (s *SeriesService) completeIfDone(ctx context.Context, series models.Series) error {
	episodes, err := s.store.ListEpisodes(ctx, series.ID)
	if err != nil {
		return err
	}
	ready := 0
	for _, ep := range episodes {
		if ep.Status == models.EpisodeReady {
			ready++
		}
	}
	if ready < series.TotalEpisodes() || series.Status == models.SeriesCompleted {
		return nil
	}
	if err := s.store.UpdateSeriesStatus(ctx, series.ID, models.SeriesCompleted); err != nil {
		return err
	}
	s.logger.Info("series completed", "series_id", series.ID)
	return nil
}

func (s *SeriesService) publish(ev models.GenerationEvent) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}

// readyBefore returns the ready episodes of earlier seasons, oldest first.
func readyBefore(episodes []models.Episode, season int) []models.Episode {
	var out []models.Episode
	for _, ep := range episodes {
		if ep.Season < season && ep.Status == models.EpisodeReady {
			out = append(out, ep)
		}
	}
	return out
}
