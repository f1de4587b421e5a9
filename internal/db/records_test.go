package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/raphaelgruber/showrunner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestEpisodeRecordToModel(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := "provider quota"
	rec := episodeRecord{
		ID:      surrealmodels.NewRecordID("episode", "e1"),
		Series:  surrealmodels.NewRecordID("series", "s1"),
		Season:  2,
		Number:  5,
		Status:  "failed",
		Error:   &msg,
		Created: now,
		Updated: now,
	}

	ep, err := rec.toModel()
	require.NoError(t, err)
	assert.Equal(t, "e1", ep.ID)
	assert.Equal(t, "s1", ep.SeriesID)
	assert.Equal(t, models.EpisodeFailed, ep.Status)
	assert.Equal(t, "S02E05", ep.Code())
	assert.Equal(t, &msg, ep.Error)
}

func TestRecordWithNonStringID(t *testing.T) {
	rec := seriesRecord{ID: surrealmodels.NewRecordID("series", 42)}
	_, err := rec.toModel()
	assert.Error(t, err)

	_, err = convertAll([]seriesRecord{rec}, seriesRecord.toModel)
	assert.Error(t, err)
}

func TestConvertAllEmpty(t *testing.T) {
	out, err := convertAll([]storyRecord(nil), storyRecord.toModel)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestWrapQueryError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"unique index", &surrealdb.QueryError{Message: "Database index `episode_slot` already contains [series:s1, 1, 1]"}, ErrAlreadyExists},
		{"duplicate record", &surrealdb.QueryError{Message: "Database record `series:s1` already exists"}, ErrAlreadyExists},
		{"conflict", fmt.Errorf("query: %w", &surrealdb.QueryError{Message: "Transaction conflict: resource busy"}), ErrTransactionConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapQueryError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	plain := errors.New("connection closed")
	assert.Same(t, plain, wrapQueryError(plain))
}
