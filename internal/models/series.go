// Package models defines the Series, Episode and Story types shared by the client, the workflow
// controller and the server.
package models

import (
	"fmt"
	"strings"
	"time"
)

// SeriesStatus is the production state of a series.
type SeriesStatus string

const (
	SeriesPlanning     SeriesStatus = "planning"
	SeriesInProduction SeriesStatus = "in_production"
	SeriesCompleted    SeriesStatus = "completed"
)

// Valid reports whether s is a known series status.
func (s SeriesStatus) Valid() bool {
	switch s {
	case SeriesPlanning, SeriesInProduction, SeriesCompleted:
		return true
	}
	return false
}

// Character describes one of a series' main characters.
type Character struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
}

// Series is a multi-episode creative project with persistent lore and characters.
type Series struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Tagline           string       `json:"tagline"`
	Genre             []string     `json:"genre"`
	Status            SeriesStatus `json:"status"`
	PlannedSeasons    int          `json:"plannedSeasons"`
	EpisodesPerSeason int          `json:"episodesPerSeason"`
	FullLore          string       `json:"fullLore"`
	VisualStyle       string       `json:"visualStyle"`
	ScriptStyle       string       `json:"scriptStyle"`
	MainCharacters    []Character  `json:"mainCharacters"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// TotalEpisodes returns the number of episodes the series is planned to have.
func (s Series) TotalEpisodes() int {
	return s.PlannedSeasons * s.EpisodesPerSeason
}

// HasSeason reports whether season is within the planned range.
func (s Series) HasSeason(season int) bool {
	return season >= 1 && season <= s.PlannedSeasons
}

// SeriesDetail is a series together with its episodes.
type SeriesDetail struct {
	Series
	Episodes []Episode `json:"episodes"`
}

// CreateSeriesInput carries every creative parameter of a new series.
// The server assigns ID, Status and CreatedAt.
type CreateSeriesInput struct {
	Title             string      `json:"title"`
	Tagline           string      `json:"tagline,omitempty"`
	Genre             []string    `json:"genre,omitempty"`
	PlannedSeasons    int         `json:"plannedSeasons"`
	EpisodesPerSeason int         `json:"episodesPerSeason"`
	FullLore          string      `json:"fullLore,omitempty"`
	VisualStyle       string      `json:"visualStyle,omitempty"`
	ScriptStyle       string      `json:"scriptStyle,omitempty"`
	MainCharacters    []Character `json:"mainCharacters,omitempty"`
}

// Normalize trims whitespace and drops empty genre tags.
func (in CreateSeriesInput) Normalize() CreateSeriesInput {
	out := in
	out.Title = strings.TrimSpace(in.Title)
	out.Tagline = strings.TrimSpace(in.Tagline)
	out.Genre = nil
	for _, g := range in.Genre {
		if g = strings.TrimSpace(g); g != "" {
			out.Genre = append(out.Genre, g)
		}
	}
	out.MainCharacters = nil
	for _, c := range in.MainCharacters {
		c.Name = strings.TrimSpace(c.Name)
		c.Role = strings.TrimSpace(c.Role)
		c.Description = strings.TrimSpace(c.Description)
		out.MainCharacters = append(out.MainCharacters, c)
	}
	return out
}

// Validate checks the input. Errors wrap ErrValidation.
func (in CreateSeriesInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.PlannedSeasons < 1 {
		return fmt.Errorf("%w: planned seasons must be at least 1", ErrValidation)
	}
	if in.EpisodesPerSeason < 1 {
		return fmt.Errorf("%w: episodes per season must be at least 1", ErrValidation)
	}
	for i, c := range in.MainCharacters {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: character %d has no name", ErrValidation, i+1)
		}
	}
	return nil
}

// ParseCharacters parses "name:role:description" entries separated by ";".
// Role and description are optional.
func ParseCharacters(s string) ([]Character, error) {
	var chars []Character
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		c := Character{Name: strings.TrimSpace(parts[0])}
		if c.Name == "" {
			return nil, fmt.Errorf("%w: invalid character %q (expected name:role:description)", ErrValidation, entry)
		}
		if len(parts) > 1 {
			c.Role = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			c.Description = strings.TrimSpace(parts[2])
		}
		chars = append(chars, c)
	}
	return chars, nil
}

// SplitGenre splits a comma separated genre list.
func SplitGenre(s string) []string {
	var genre []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			genre = append(genre, g)
		}
	}
	return genre
}
