package models

import (
	"fmt"
	"time"
)

// EpisodeStatus is the generation state of an episode.
type EpisodeStatus string

const (
	EpisodePending    EpisodeStatus = "pending"
	EpisodeGenerating EpisodeStatus = "generating"
	EpisodeReady      EpisodeStatus = "ready"
	EpisodeFailed     EpisodeStatus = "failed"
)

// Terminal reports whether no further generation happens for the status.
func (s EpisodeStatus) Terminal() bool {
	return s == EpisodeReady || s == EpisodeFailed
}

// Episode is a single generated unit of a series season.
// Title, Synopsis and Script are the generation payload.
type Episode struct {
	ID        string        `json:"id"`
	SeriesID  string        `json:"seriesId"`
	Season    int           `json:"season"`
	Number    int           `json:"number"`
	Status    EpisodeStatus `json:"status"`
	Title     string        `json:"title"`
	Synopsis  string        `json:"synopsis"`
	Script    string        `json:"script"`
	Error     *string       `json:"error,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Code returns the conventional SxxEyy label.
func (e Episode) Code() string {
	return fmt.Sprintf("S%02dE%02d", e.Season, e.Number)
}

// DisplayTitle falls back to the episode code when no title was generated yet.
func (e Episode) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	return "Episode " + e.Code()
}

// EpisodeDraft is the content produced by one generation call.
type EpisodeDraft struct {
	Title    string
	Synopsis string
	Script   string
}

// GenerationEvent reports progress of a season generation run.
type GenerationEvent struct {
	SeriesID string   `json:"seriesId"`
	Season   int      `json:"season"`
	Episode  *Episode `json:"episode,omitempty"`
	Done     bool     `json:"done"`
	Error    *string  `json:"error,omitempty"`
}
