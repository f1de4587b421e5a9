// Package workflow is the composition root of the series production workflow. The Controller owns
// navigation, coordinates generation requests against a Repository and keeps the entity store
// consistent with the remote service. The view layer observes it only through Snapshots.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/raphaelgruber/showrunner/internal/store"
	"github.com/raphaelgruber/showrunner/internal/view"
)

// Repository is the remote service the controller works against.
// Not-found conditions are reported as errors wrapping models.ErrNotFound.
type Repository interface {
	ListSeries(ctx context.Context) ([]models.Series, error)
	CreateSeries(ctx context.Context, input models.CreateSeriesInput) (*models.Series, error)
	DeleteSeries(ctx context.Context, id string) error
	FetchSeriesDetail(ctx context.Context, id string) (*models.SeriesDetail, error)
	GenerateSeasonEpisodes(ctx context.Context, seriesID string, season int) ([]models.Episode, error)
	FetchEpisode(ctx context.Context, id string) (*models.Episode, error)
}

// Snapshot is the read-only state exposed to the view layer.
type Snapshot struct {
	View          view.View
	Series        []models.Series
	ActiveSeries  *models.Series
	ActiveEpisode *models.Episode
	Episodes      []models.Episode // episodes of ActiveSeries, ordered by season and number
	IsLoading     bool
	IsGenerating  bool // a season generation or a series creation is in flight
	Error         string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithStore makes the controller use an existing store instead of an empty one.
func WithStore(s *store.Store) Option {
	return func(c *Controller) {
		c.store = s
	}
}

// Controller drives the list → create → detail → production workflow.
// Operations block for the duration of their remote call and never return errors;
// failures surface as Snapshot.Error.
type Controller struct {
	repo   Repository
	store  *store.Store
	logger *slog.Logger

	mu         sync.Mutex
	nav        *view.Machine
	loading    int
	generating bool
	creating   bool
	resolving  map[view.View]int // views whose missing entities are being fetched
	err        string

	subs hub[Snapshot]
}

// New creates a controller in the list view with an empty store.
func New(repo Repository, opts ...Option) *Controller {
	c := &Controller{
		repo:      repo,
		nav:       view.NewMachine(),
		resolving: make(map[view.View]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = store.New()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Snapshot returns the current state with active entities resolved from the held view ids.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	current := c.nav.Current()
	act, _ := resolveActive(current, c.store)
	return Snapshot{
		View:          current,
		Series:        c.store.Series(),
		ActiveSeries:  act.series,
		ActiveEpisode: act.episode,
		Episodes:      act.episodes,
		IsLoading:     c.loading > 0,
		IsGenerating:  c.generating || c.creating,
		Error:         c.err,
	}
}

// Subscribe registers fn to receive every new snapshot. fn runs on the goroutine that changed the
// state and must not call back into the controller synchronously.
func (c *Controller) Subscribe(fn func(Snapshot)) (cancel func()) {
	return c.subs.subscribe(fn)
}

// update applies fn under the state lock, falls back to the list view if the held id no longer
// resolves, and publishes the resulting snapshot.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	c.settleLocked()
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) publish() {
	c.subs.publish(c.Snapshot)
}

// settleLocked enforces view validity: a view whose entities are not cached and are not being
// fetched returns to the list with a non-fatal error.
func (c *Controller) settleLocked() {
	current := c.nav.Current()
	if c.resolving[current] > 0 {
		return
	}
	if _, err := resolveActive(current, c.store); err != nil {
		c.logger.Warn("view no longer resolves, returning to list", "view", current.String(), "error", err)
		c.nav.GoToList()
		c.err = describe(openAction(current), err)
	}
}

func openAction(v view.View) string {
	if v.Kind() == view.KindProduction {
		return "open episode"
	}
	return "open series"
}

func (c *Controller) beginResolve(v view.View) {
	c.resolving[v]++
	c.loading++
}

func (c *Controller) endResolve(v view.View) {
	c.loading--
	if c.resolving[v]--; c.resolving[v] <= 0 {
		delete(c.resolving, v)
	}
}

// Load refreshes the series list from the remote service.
func (c *Controller) Load(ctx context.Context) {
	c.update(func() { c.loading++ })

	list, err := c.repo.ListSeries(ctx)

	c.update(func() {
		c.loading--
		if err != nil {
			c.logger.Error("list series failed", "error", err)
			c.err = describe("load series", err)
			return
		}
		c.store.SyncSeries(list)
		c.logger.Debug("series list loaded", "count", len(list))
	})
}

// ClearError dismisses the current error.
func (c *Controller) ClearError() {
	c.update(func() { c.err = "" })
}

// GoToList navigates to the series list.
func (c *Controller) GoToList() {
	c.update(func() {
		c.nav.GoToList()
		c.err = ""
	})
}

// GoToCreate navigates to the series creation form.
func (c *Controller) GoToCreate() {
	c.update(func() {
		c.nav.GoToCreate()
		c.err = ""
	})
}

// GoToDetail navigates to a series. The series detail is fetched once when the series is not
// cached or its episodes were never loaded; a fetch already in flight for it is not repeated.
func (c *Controller) GoToDetail(ctx context.Context, seriesID string) {
	target := view.Detail(seriesID)
	var fetch bool
	c.update(func() {
		c.nav.GoToDetail(seriesID)
		c.err = ""
		if c.resolving[target] > 0 {
			return
		}
		_, cached := c.store.GetSeries(seriesID)
		fetch = !cached || !c.store.EpisodesLoaded(seriesID)
		if fetch {
			c.beginResolve(target)
		}
	})
	if !fetch {
		return
	}

	detail, err := c.repo.FetchSeriesDetail(ctx, seriesID)
	if err == nil && detail == nil {
		err = notFound("series", seriesID)
	}

	c.update(func() {
		c.endResolve(target)
		if err == nil {
			c.store.LoadDetail(*detail)
			return
		}

		c.logger.Warn("fetch series detail failed", "series_id", seriesID, "error", err)
		gone := errors.Is(err, models.ErrNotFound)
		if gone {
			c.store.RemoveSeries(seriesID)
		}
		if c.nav.Current() != target {
			return
		}
		if _, cached := c.store.GetSeries(seriesID); cached {
			c.err = describe("load episodes", err)
			return
		}
		c.nav.GoToList()
		c.err = describe("open series", err)
	})
}

// GoToProduction navigates to an episode, fetching it (and its series when missing) if it is not
// cached and no fetch for it is in flight.
func (c *Controller) GoToProduction(ctx context.Context, episodeID string) {
	target := view.Production(episodeID)
	var fetch bool
	c.update(func() {
		c.nav.GoToProduction(episodeID)
		c.err = ""
		if c.resolving[target] > 0 {
			return
		}
		_, err := resolveActive(target, c.store)
		fetch = err != nil
		if fetch {
			c.beginResolve(target)
		}
	})
	if !fetch {
		return
	}

	err := c.fetchProduction(ctx, episodeID)

	c.update(func() {
		c.endResolve(target)
		if err == nil {
			return
		}
		c.logger.Warn("resolve episode failed", "episode_id", episodeID, "error", err)
		if c.nav.Current() != target {
			return
		}
		c.nav.GoToList()
		c.err = describe("open episode", err)
	})
}

// fetchProduction loads a missing episode and, if needed, the series it belongs to.
func (c *Controller) fetchProduction(ctx context.Context, episodeID string) error {
	ep, err := c.repo.FetchEpisode(ctx, episodeID)
	if err != nil {
		return err
	}
	if ep == nil {
		return notFound("episode", episodeID)
	}

	if _, cached := c.store.GetSeries(ep.SeriesID); cached {
		c.update(func() { c.store.UpsertEpisodes(ep.SeriesID, []models.Episode{*ep}) })
		return nil
	}

	detail, err := c.repo.FetchSeriesDetail(ctx, ep.SeriesID)
	if err != nil {
		return fmt.Errorf("fetch series of episode: %w", err)
	}
	if detail == nil {
		return notFound("series", ep.SeriesID)
	}
	c.update(func() {
		c.store.LoadDetail(*detail)
		c.store.UpsertEpisodes(ep.SeriesID, []models.Episode{*ep})
	})
	return nil
}

// CreateSeries validates input and asks the remote service to create the series. On success the
// new series is cached and becomes the detail view. A submission while another creation is in
// flight is ignored; a running season generation does not block it.
func (c *Controller) CreateSeries(ctx context.Context, input models.CreateSeriesInput) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		c.update(func() { c.err = describe("", err) })
		return
	}

	c.mu.Lock()
	if c.creating {
		c.mu.Unlock()
		c.logger.Debug("create series ignored, another creation is in flight", "title", input.Title)
		return
	}
	c.creating = true
	c.err = ""
	c.mu.Unlock()
	c.publish()

	created, err := c.repo.CreateSeries(ctx, input)
	if err == nil && created == nil {
		err = errors.New("server returned no series")
	}

	c.update(func() {
		c.creating = false
		if err != nil {
			c.logger.Error("create series failed", "title", input.Title, "error", err)
			c.err = describe("create series", err)
			return
		}
		c.store.LoadDetail(models.SeriesDetail{Series: *created})
		c.nav.GoToDetail(created.ID)
		c.logger.Info("series created", "series_id", created.ID, "title", created.Title)
	})
}

// GenerateSeasonEpisodes requests generation of every episode of a season. At most one generation
// is outstanding per controller; further calls are no-ops until it settles. The view never changes.
func (c *Controller) GenerateSeasonEpisodes(ctx context.Context, seriesID string, season int) {
	c.mu.Lock()
	if c.generating {
		c.mu.Unlock()
		c.logger.Debug("generation ignored, another is in flight", "series_id", seriesID, "season", season)
		return
	}
	if err := c.validateSeasonLocked(seriesID, season); err != nil {
		c.err = describe("", err)
		c.mu.Unlock()
		c.publish()
		return
	}
	c.generating = true
	c.err = ""
	c.mu.Unlock()
	c.publish()

	episodes, err := c.repo.GenerateSeasonEpisodes(ctx, seriesID, season)

	c.update(func() {
		c.generating = false
		if err != nil {
			c.logger.Error("generate season failed", "series_id", seriesID, "season", season, "error", err)
			c.err = describe(fmt.Sprintf("generate season %d", season), err)
			return
		}
		applied := c.store.UpsertEpisodes(seriesID, episodes)
		if applied == 0 && len(episodes) > 0 {
			c.logger.Debug("generation result discarded, series no longer cached", "series_id", seriesID)
			return
		}
		c.logger.Info("season generated", "series_id", seriesID, "season", season, "episodes", applied)
	})
}

func (c *Controller) validateSeasonLocked(seriesID string, season int) error {
	if seriesID == "" {
		return fmt.Errorf("%w: series id is required", models.ErrValidation)
	}
	if season < 1 {
		return fmt.Errorf("%w: season must be at least 1", models.ErrValidation)
	}
	if series, ok := c.store.GetSeries(seriesID); ok && !series.HasSeason(season) {
		return fmt.Errorf("%w: season %d is outside the %d planned seasons",
			models.ErrValidation, season, series.PlannedSeasons)
	}
	return nil
}

// DeleteSeries deletes a series remotely and drops it from the store. A series that is already
// gone counts as deleted. The view returns to the list only if the deleted series was active.
func (c *Controller) DeleteSeries(ctx context.Context, id string) {
	c.update(func() { c.loading++ })

	err := c.repo.DeleteSeries(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		err = nil
	}

	c.update(func() {
		c.loading--
		if err != nil {
			c.logger.Error("delete series failed", "series_id", id, "error", err)
			c.err = describe("delete series", err)
			return
		}
		wasActive := c.heldSeriesIDLocked() == id
		c.store.RemoveSeries(id)
		if wasActive {
			c.nav.GoToList()
		}
		c.logger.Info("series deleted", "series_id", id)
	})
}

// heldSeriesIDLocked returns the id of the series the current view refers to, if any.
func (c *Controller) heldSeriesIDLocked() string {
	current := c.nav.Current()
	if id, ok := current.SeriesID(); ok {
		return id
	}
	if id, ok := current.EpisodeID(); ok {
		if ep, found := c.store.GetEpisode(id); found {
			return ep.SeriesID
		}
	}
	return ""
}
