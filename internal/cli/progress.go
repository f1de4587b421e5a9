package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/showrunner/internal/client"
	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/raphaelgruber/showrunner/internal/workflow"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

// Style functions for dynamic theming
func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// episodeEventMsg carries one event of the generationProgress subscription.
type episodeEventMsg models.GenerationEvent

// generationDoneMsg is sent when the generate request returns.
type generationDoneMsg struct {
	episodes []models.Episode
	err      error
}

// progressModel is the bubbletea model for a season generation.
type progressModel struct {
	seriesID string
	season   int
	total    int
	statuses map[int]models.EpisodeStatus // by episode number
	current  string
	progress progress.Model
	theme    Theme
	episodes []models.Episode
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a progress model for a season of total episodes.
func newProgressModel(seriesID string, season, total int) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		seriesID: seriesID,
		season:   season,
		total:    total,
		statuses: make(map[int]models.EpisodeStatus),
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case episodeEventMsg:
		if msg.Season != m.season || msg.Episode == nil {
			return m, nil
		}
		m.statuses[msg.Episode.Number] = msg.Episode.Status
		if msg.Episode.Status == models.EpisodeGenerating {
			m.current = msg.Episode.Code()
		}
		return m, nil

	case generationDoneMsg:
		m.done = true
		m.err = msg.err
		m.episodes = msg.episodes
		for _, ep := range msg.episodes {
			m.statuses[ep.Number] = ep.Status
		}
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// counts returns the finished episodes of the season by outcome.
func (m progressModel) counts() (ready, failed int) {
	for _, s := range m.statuses {
		switch s {
		case models.EpisodeReady:
			ready++
		case models.EpisodeFailed:
			failed++
		}
	}
	return ready, failed
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}

	ready, failed := m.counts()
	var pct float64
	if m.total > 0 {
		pct = float64(ready+failed) / float64(m.total)
	}

	label := fmt.Sprintf("[season %d]", m.season)
	if m.current != "" {
		label = fmt.Sprintf("[writing %s]", m.current)
	}
	status := m.theme.statusStyle().Render(label)

	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d episodes", ready, m.total)
	if failed > 0 {
		counts += m.theme.errorStyle().Render(fmt.Sprintf(" (%d failed)", failed))
	}

	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s %s\n%s\n", status, progressBar, counts, hint)
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nSeason %d continues on the server.\nUse 'showrunner series show %s' to check status.\n",
			m.season, m.seriesID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Generation failed: %s\n", m.err))
	}

	var b strings.Builder
	ready, failed := m.counts()
	if failed > 0 {
		b.WriteString(m.theme.errorStyle().Render(fmt.Sprintf("✗ Season %d: %d ready, %d failed", m.season, ready, failed)))
	} else {
		b.WriteString(m.theme.completedStyle().Render(fmt.Sprintf("✓ Season %d complete", m.season)))
	}
	b.WriteString("\n\n")
	for _, ep := range m.episodes {
		line := fmt.Sprintf("  %s  %s\n", ep.Code(), ep.DisplayTitle())
		if ep.Status != models.EpisodeReady {
			line = m.theme.errorStyle().Render(line)
		}
		b.WriteString(line)
	}
	return b.String()
}

// runGenerationProgress generates a season through the controller while a progress bar follows
// the server's generationProgress subscription.
// Returns nil on success or Ctrl+C (generation continues on the server), error on failure.
func runGenerationProgress(ctx context.Context, c *workflow.Controller, seriesID string, season int) error {
	snap := c.Snapshot()
	total := 0
	if snap.ActiveSeries != nil {
		total = snap.ActiveSeries.EpisodesPerSeason
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(seriesID, season, total))

	go func() {
		err := gqlClient.WatchGeneration(ctx, seriesID, func(ev models.GenerationEvent) error {
			p.Send(episodeEventMsg(ev))
			if ev.Done {
				return client.ErrStopWatching
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("generation progress unavailable", "series_id", seriesID, "error", err)
		}
	}()

	go func() {
		c.GenerateSeasonEpisodes(ctx, seriesID, season)
		snap := c.Snapshot()
		p.Send(generationDoneMsg{episodes: seasonEpisodes(snap.Episodes, season), err: snapshotError(snap)})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok {
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}

func seasonEpisodes(episodes []models.Episode, season int) []models.Episode {
	var out []models.Episode
	for _, ep := range episodes {
		if ep.Season == season {
			out = append(out, ep)
		}
	}
	return out
}
