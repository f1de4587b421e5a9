package models

import "time"

// Story is a standalone (non-series) story shown on the story dashboard.
type Story struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Premise   string    `json:"premise"`
	Genre     []string  `json:"genre"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateStoryInput is the input for creating a story.
type CreateStoryInput struct {
	Title   string   `json:"title"`
	Premise string   `json:"premise,omitempty"`
	Genre   []string `json:"genre,omitempty"`
}
