package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/showrunner/internal/models"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFD7")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3A3A3A")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF005F")).Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Bold(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3A3A3A")).Padding(0, 1)

	statusStyleReady      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787")).Bold(true)
	statusStyleFailed     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	statusStyleGenerating = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	statusStylePending    = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
)

func episodeStatusStyle(s models.EpisodeStatus) lipgloss.Style {
	switch s {
	case models.EpisodeReady:
		return statusStyleReady
	case models.EpisodeFailed:
		return statusStyleFailed
	case models.EpisodeGenerating:
		return statusStyleGenerating
	default:
		return statusStylePending
	}
}

func seriesStatusStyle(s models.SeriesStatus) lipgloss.Style {
	switch s {
	case models.SeriesCompleted:
		return statusStyleReady
	case models.SeriesInProduction:
		return statusStyleGenerating
	default:
		return statusStylePending
	}
}
