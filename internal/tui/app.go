// Package tui is the interactive page layer of showrunner. It renders controller snapshots and
// turns key presses into controller operations; all state lives in the workflow controller.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"

	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/raphaelgruber/showrunner/internal/session"
	"github.com/raphaelgruber/showrunner/internal/view"
	"github.com/raphaelgruber/showrunner/internal/workflow"
)

// Options wires the App to its controllers.
type Options struct {
	Controller *workflow.Controller
	Stories    *workflow.StoryBoard
	Session    *session.Session
	Logger     *slog.Logger
}

// snapshotMsg delivers the latest controller and dashboard state.
type snapshotMsg struct {
	series  workflow.Snapshot
	stories workflow.StorySnapshot
}

// pendingDelete is a delete waiting for y/n.
type pendingDelete struct {
	kind  string // "series" or "story"
	id    string
	title string
}

// App is the bubbletea model. Controller operations block, so they run inside tea.Cmds; the App
// only re-renders when a snapshotMsg arrives.
type App struct {
	ctx     context.Context
	ctrl    *workflow.Controller
	board   *workflow.StoryBoard
	session *session.Session
	logger  *slog.Logger

	changed chan struct{}
	cancels []func()

	snap    workflow.Snapshot
	stories workflow.StorySnapshot

	showStories bool
	cursor      int // selected row of the list, detail or stories page
	season      int // season targeted by generation on the detail page
	scroll      int // first script line on the production page
	form        createForm
	confirm     *pendingDelete
	progress    progress.Model

	width  int
	height int
}

// New creates an App and subscribes it to the controller and the story board.
func New(ctx context.Context, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		ctx:      ctx,
		ctrl:     opts.Controller,
		board:    opts.Stories,
		session:  opts.Session,
		logger:   logger,
		changed:  make(chan struct{}, 1),
		season:   1,
		form:     newCreateForm(),
		progress: progress.New(progress.WithDefaultBlend(), progress.WithWidth(30)),
	}
	a.cancels = append(a.cancels, a.ctrl.Subscribe(func(workflow.Snapshot) { a.notify() }))
	if a.board != nil {
		a.cancels = append(a.cancels, a.board.Subscribe(func(workflow.StorySnapshot) { a.notify() }))
	}
	a.refresh()
	return a
}

// notify coalesces change notifications. It never blocks the notifying goroutine.
func (a *App) notify() {
	select {
	case a.changed <- struct{}{}:
	default:
	}
}

// Close unsubscribes the App.
func (a *App) Close() {
	for _, cancel := range a.cancels {
		cancel()
	}
	a.cancels = nil
}

func (a *App) refresh() {
	a.snap = a.ctrl.Snapshot()
	if a.board != nil {
		a.stories = a.board.Snapshot()
	}
}

// waitForChange blocks until the controller or board changed and reads their snapshots.
func (a *App) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.changed:
		case <-a.ctx.Done():
			return nil
		}
		msg := snapshotMsg{series: a.ctrl.Snapshot()}
		if a.board != nil {
			msg.stories = a.board.Snapshot()
		}
		return msg
	}
}

// run executes a blocking controller operation off the update loop.
func run(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

// Init starts listening for snapshots and loads the series list.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.waitForChange(),
		run(func() { a.ctrl.Load(a.ctx) }),
	)
}

// Update handles messages and returns the updated model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case snapshotMsg:
		a.apply(msg)
		return a, a.waitForChange()

	case tea.KeyPressMsg:
		return a, a.handleKey(msg.String(), msg)

	case progress.FrameMsg:
		var cmd tea.Cmd
		a.progress, cmd = a.progress.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) apply(msg snapshotMsg) {
	prev := a.snap.View
	a.snap = msg.series
	a.stories = msg.stories
	if a.snap.View != prev {
		a.cursor = 0
		a.scroll = 0
		// Returning from an episode keeps the selected season.
		if a.snap.View.Kind() == view.KindDetail && prev.Kind() != view.KindProduction {
			a.season = 1
		}
	}
	a.cursor = clamp(a.cursor, 0, a.rows()-1)
}

// rows is the number of selectable rows on the current page.
func (a *App) rows() int {
	if a.showStories {
		return len(a.stories.Stories)
	}
	switch a.snap.View.Kind() {
	case view.KindList:
		return len(a.snap.Series)
	case view.KindDetail:
		return len(a.snap.Episodes)
	}
	return 0
}

// handleKey maps a key press to controller operations. msg is forwarded to the create form and may
// be nil.
func (a *App) handleKey(key string, msg tea.Msg) tea.Cmd {
	if key == "ctrl+c" {
		return tea.Quit
	}
	if a.confirm != nil {
		return a.handleConfirm(key)
	}
	if a.showStories {
		return a.handleStoriesKey(key)
	}

	switch a.snap.View.Kind() {
	case view.KindCreate:
		return a.handleCreateKey(key, msg)
	case view.KindDetail:
		return a.handleDetailKey(key)
	case view.KindProduction:
		return a.handleProductionKey(key)
	default:
		return a.handleListKey(key)
	}
}

func (a *App) handleListKey(key string) tea.Cmd {
	switch key {
	case "q":
		return tea.Quit
	case "up", "k":
		a.cursor = max(a.cursor-1, 0)
	case "down", "j":
		a.cursor = min(a.cursor+1, max(len(a.snap.Series)-1, 0))
	case "enter":
		if s, ok := a.selectedSeries(); ok {
			return run(func() { a.ctrl.GoToDetail(a.ctx, s.ID) })
		}
	case "n":
		a.form = newCreateForm()
		return run(a.ctrl.GoToCreate)
	case "r":
		return run(func() { a.ctrl.Load(a.ctx) })
	case "d":
		if s, ok := a.selectedSeries(); ok {
			a.confirm = &pendingDelete{kind: "series", id: s.ID, title: s.Title}
		}
	case "s":
		return a.openStories()
	case "esc":
		return run(a.ctrl.ClearError)
	}
	return nil
}

func (a *App) handleCreateKey(key string, msg tea.Msg) tea.Cmd {
	switch key {
	case "esc":
		return run(a.ctrl.GoToList)
	case "tab", "down":
		return a.form.move(1)
	case "shift+tab", "up":
		return a.form.move(-1)
	case "enter", "ctrl+s":
		if key == "enter" && a.form.focus < fieldCount-1 {
			return a.form.move(1)
		}
		input, err := a.form.input()
		if err != nil {
			a.form.err = err.Error()
			return nil
		}
		a.form.err = ""
		return run(func() { a.ctrl.CreateSeries(a.ctx, input) })
	}
	if msg == nil {
		return nil
	}
	return a.form.update(msg)
}

func (a *App) handleDetailKey(key string) tea.Cmd {
	series := a.snap.ActiveSeries
	switch key {
	case "esc", "backspace", "q":
		return run(a.ctrl.GoToList)
	case "up", "k":
		a.cursor = max(a.cursor-1, 0)
	case "down", "j":
		a.cursor = min(a.cursor+1, max(len(a.snap.Episodes)-1, 0))
	case "left", "[":
		a.season = max(a.season-1, 1)
	case "right", "]":
		if series != nil {
			a.season = min(a.season+1, max(series.PlannedSeasons, 1))
		}
	case "enter":
		if a.cursor < len(a.snap.Episodes) {
			id := a.snap.Episodes[a.cursor].ID
			return run(func() { a.ctrl.GoToProduction(a.ctx, id) })
		}
	case "g":
		if series != nil {
			id, season := series.ID, a.season
			return run(func() { a.ctrl.GenerateSeasonEpisodes(a.ctx, id, season) })
		}
	case "r":
		if series != nil {
			return run(func() { a.ctrl.GoToDetail(a.ctx, series.ID) })
		}
	case "d":
		if series != nil {
			a.confirm = &pendingDelete{kind: "series", id: series.ID, title: series.Title}
		}
	}
	return nil
}

func (a *App) handleProductionKey(key string) tea.Cmd {
	switch key {
	case "esc", "backspace", "q":
		if a.snap.ActiveSeries != nil {
			id := a.snap.ActiveSeries.ID
			return run(func() { a.ctrl.GoToDetail(a.ctx, id) })
		}
		return run(a.ctrl.GoToList)
	case "up", "k":
		a.scroll = max(a.scroll-1, 0)
	case "down", "j":
		a.scroll++
	}
	return nil
}

func (a *App) openStories() tea.Cmd {
	if a.board == nil {
		return nil
	}
	a.showStories = true
	a.cursor = 0
	return run(func() { a.board.Load(a.ctx) })
}

func (a *App) handleStoriesKey(key string) tea.Cmd {
	switch key {
	case "esc", "q", "s":
		a.showStories = false
		a.cursor = 0
	case "up", "k":
		a.cursor = max(a.cursor-1, 0)
	case "down", "j":
		a.cursor = min(a.cursor+1, max(len(a.stories.Stories)-1, 0))
	case "r":
		return run(func() { a.board.Load(a.ctx) })
	case "d":
		if a.cursor < len(a.stories.Stories) {
			s := a.stories.Stories[a.cursor]
			a.confirm = &pendingDelete{kind: "story", id: s.ID, title: s.Title}
		}
	}
	return nil
}

func (a *App) handleConfirm(key string) tea.Cmd {
	pending := a.confirm
	a.confirm = nil
	if key != "y" && key != "Y" {
		return nil
	}
	if pending.kind == "story" {
		return run(func() { a.board.DeleteStory(a.ctx, pending.id) })
	}
	return run(func() { a.ctrl.DeleteSeries(a.ctx, pending.id) })
}

func (a *App) selectedSeries() (models.Series, bool) {
	if a.cursor < 0 || a.cursor >= len(a.snap.Series) {
		return models.Series{}, false
	}
	return a.snap.Series[a.cursor], true
}

// View renders the current page.
func (a *App) View() tea.View {
	return tea.NewView(a.render())
}

func (a *App) render() string {
	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteString("\n\n")

	if a.snap.Error != "" {
		b.WriteString(errorStyle.Render("✗ "+a.snap.Error) + "\n\n")
	}

	var body, help string
	switch {
	case a.showStories:
		body, help = a.renderStories(), "↑/↓ select · d delete · r reload · esc back"
	case a.snap.View.Kind() == view.KindCreate:
		body, help = a.form.view(), "tab next field · enter next/submit · ctrl+s submit · esc cancel"
	case a.snap.View.Kind() == view.KindDetail:
		body, help = a.renderDetail(), "↑/↓ select · enter open · ←/→ season · g generate · d delete · esc back"
	case a.snap.View.Kind() == view.KindProduction:
		body, help = a.renderProduction(), "↑/↓ scroll · esc back"
	default:
		body, help = a.renderList(), "↑/↓ select · enter open · n new · d delete · s stories · r reload · q quit"
	}
	b.WriteString(body)

	if a.confirm != nil {
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Delete %s %q? [y/N]", a.confirm.kind, a.confirm.title)) + "\n")
	}
	b.WriteString("\n" + hintStyle.Render(help) + "\n")
	return b.String()
}

func (a *App) renderHeader() string {
	header := titleStyle.Render("showrunner")
	if name := a.session.DisplayName(); name != "" {
		header += mutedStyle.Render(" · " + name)
	}
	if a.snap.IsLoading || a.stories.IsLoading {
		header += hintStyle.Render("  loading…")
	}
	return header
}

func (a *App) renderList() string {
	if len(a.snap.Series) == 0 {
		if a.snap.IsLoading {
			return mutedStyle.Render("Loading series…") + "\n"
		}
		return mutedStyle.Render("No series yet. Press n to create one.") + "\n"
	}
	var b strings.Builder
	for i, s := range a.snap.Series {
		line := fmt.Sprintf("%-32s %s  %d×%d", truncate(s.Title, 32),
			seriesStatusStyle(s.Status).Render(padRight(string(s.Status), 13)), s.PlannedSeasons, s.EpisodesPerSeason)
		if i == a.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (a *App) renderDetail() string {
	s := a.snap.ActiveSeries
	if s == nil {
		return mutedStyle.Render("Loading series…") + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(s.Title) + "  " + seriesStatusStyle(s.Status).Render(string(s.Status)) + "\n")
	if s.Tagline != "" {
		b.WriteString(mutedStyle.Render(s.Tagline) + "\n")
	}
	if len(s.Genre) > 0 {
		b.WriteString(mutedStyle.Render(strings.Join(s.Genre, " · ")) + "\n")
	}
	if len(s.MainCharacters) > 0 {
		names := make([]string, 0, len(s.MainCharacters))
		for _, c := range s.MainCharacters {
			names = append(names, c.Name)
		}
		b.WriteString(labelStyle.Render("Cast: ") + strings.Join(names, ", ") + "\n")
	}
	b.WriteString("\n")

	ready := 0
	for _, ep := range a.snap.Episodes {
		if ep.Season == a.season && ep.Status == models.EpisodeReady {
			ready++
		}
	}
	pct := 0.0
	if s.EpisodesPerSeason > 0 {
		pct = float64(ready) / float64(s.EpisodesPerSeason)
	}
	label := fmt.Sprintf("Season %d/%d", a.season, s.PlannedSeasons)
	if a.snap.IsGenerating {
		label = statusStyleGenerating.Render(fmt.Sprintf("Generating season %d…", a.season))
	}
	b.WriteString(fmt.Sprintf("%s  %s %d/%d\n\n", label, a.progress.ViewAs(pct), ready, s.EpisodesPerSeason))

	if len(a.snap.Episodes) == 0 {
		b.WriteString(mutedStyle.Render("No episodes yet. Press g to generate the season.") + "\n")
		return panelStyle.Render(b.String())
	}
	for i, ep := range a.snap.Episodes {
		line := fmt.Sprintf("%s  %s  %s", ep.Code(),
			episodeStatusStyle(ep.Status).Render(padRight(string(ep.Status), 10)), truncate(ep.DisplayTitle(), 48))
		if i == a.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return panelStyle.Render(b.String())
}

func (a *App) renderProduction() string {
	ep := a.snap.ActiveEpisode
	if ep == nil {
		return mutedStyle.Render("Loading episode…") + "\n"
	}

	var b strings.Builder
	if a.snap.ActiveSeries != nil {
		b.WriteString(mutedStyle.Render(a.snap.ActiveSeries.Title) + "\n")
	}
	b.WriteString(titleStyle.Render(ep.Code()+" · "+ep.DisplayTitle()) + "  " +
		episodeStatusStyle(ep.Status).Render(string(ep.Status)) + "\n")
	if ep.Error != nil {
		b.WriteString(errorStyle.Render(*ep.Error) + "\n")
	}
	if ep.Synopsis != "" {
		b.WriteString("\n" + mutedStyle.Render(ep.Synopsis) + "\n")
	}
	if ep.Script != "" {
		lines := strings.Split(ep.Script, "\n")
		start := clamp(a.scroll, 0, len(lines)-1)
		height := a.height - 12
		if height < 10 {
			height = 20
		}
		end := min(start+height, len(lines))
		b.WriteString("\n" + strings.Join(lines[start:end], "\n") + "\n")
	}
	return b.String()
}

func (a *App) renderStories() string {
	if len(a.stories.Stories) == 0 {
		if a.stories.Error != "" {
			return errorStyle.Render("✗ "+a.stories.Error) + "\n"
		}
		return mutedStyle.Render("No stories found.") + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Stories") + "\n\n")
	if a.stories.Error != "" {
		b.WriteString(errorStyle.Render("✗ "+a.stories.Error) + "\n\n")
	}
	for i, s := range a.stories.Stories {
		line := fmt.Sprintf("%-40s %s", truncate(s.Title, 40), mutedStyle.Render(s.Status))
		if i == a.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Run starts the interactive UI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := New(ctx, opts)
	defer app.Close()

	p := tea.NewProgram(app)
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
