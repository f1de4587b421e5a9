package db

import (
	"fmt"
	"time"

	"github.com/raphaelgruber/showrunner/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// recordIDString extracts the string key from a SurrealDB record id.
func recordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected ID type: %T (expected string)", id.ID)
	}
	return s, nil
}

type seriesRecord struct {
	ID                surrealmodels.RecordID `json:"id"`
	Title             string                 `json:"title"`
	Tagline           string                 `json:"tagline"`
	Genre             []string               `json:"genre"`
	Status            string                 `json:"status"`
	PlannedSeasons    int                    `json:"planned_seasons"`
	EpisodesPerSeason int                    `json:"episodes_per_season"`
	FullLore          string                 `json:"full_lore"`
	VisualStyle       string                 `json:"visual_style"`
	ScriptStyle       string                 `json:"script_style"`
	MainCharacters    []models.Character     `json:"main_characters"`
	Created           time.Time              `json:"created"`
}

func (r seriesRecord) toModel() (models.Series, error) {
	id, err := recordIDString(r.ID)
	if err != nil {
		return models.Series{}, err
	}
	return models.Series{
		ID:                id,
		Title:             r.Title,
		Tagline:           r.Tagline,
		Genre:             r.Genre,
		Status:            models.SeriesStatus(r.Status),
		PlannedSeasons:    r.PlannedSeasons,
		EpisodesPerSeason: r.EpisodesPerSeason,
		FullLore:          r.FullLore,
		VisualStyle:       r.VisualStyle,
		ScriptStyle:       r.ScriptStyle,
		MainCharacters:    r.MainCharacters,
		CreatedAt:         r.Created,
	}, nil
}

type episodeRecord struct {
	ID       surrealmodels.RecordID `json:"id"`
	Series   surrealmodels.RecordID `json:"series"`
	Season   int                    `json:"season"`
	Number   int                    `json:"number"`
	Status   string                 `json:"status"`
	Title    string                 `json:"title"`
	Synopsis string                 `json:"synopsis"`
	Script   string                 `json:"script"`
	Error    *string                `json:"error,omitempty"`
	Created  time.Time              `json:"created"`
	Updated  time.Time              `json:"updated"`
}

func (r episodeRecord) toModel() (models.Episode, error) {
	id, err := recordIDString(r.ID)
	if err != nil {
		return models.Episode{}, err
	}
	seriesID, err := recordIDString(r.Series)
	if err != nil {
		return models.Episode{}, fmt.Errorf("episode %s series: %w", id, err)
	}
	return models.Episode{
		ID:        id,
		SeriesID:  seriesID,
		Season:    r.Season,
		Number:    r.Number,
		Status:    models.EpisodeStatus(r.Status),
		Title:     r.Title,
		Synopsis:  r.Synopsis,
		Script:    r.Script,
		Error:     r.Error,
		CreatedAt: r.Created,
		UpdatedAt: r.Updated,
	}, nil
}

type storyRecord struct {
	ID      surrealmodels.RecordID `json:"id"`
	Title   string                 `json:"title"`
	Premise string                 `json:"premise"`
	Genre   []string               `json:"genre"`
	Status  string                 `json:"status"`
	Created time.Time              `json:"created"`
}

func (r storyRecord) toModel() (models.Story, error) {
	id, err := recordIDString(r.ID)
	if err != nil {
		return models.Story{}, err
	}
	return models.Story{
		ID:        id,
		Title:     r.Title,
		Premise:   r.Premise,
		Genre:     r.Genre,
		Status:    r.Status,
		CreatedAt: r.Created,
	}, nil
}

// convertAll maps records to models, failing on the first malformed record.
func convertAll[R any, M any](records []R, convert func(R) (M, error)) ([]M, error) {
	out := make([]M, 0, len(records))
	for _, r := range records {
		m, err := convert(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
