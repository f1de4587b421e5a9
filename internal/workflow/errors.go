package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// describe converts an error into the single human-readable string exposed in snapshots.
func describe(action string, err error) string {
	var reason string
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "the request timed out"
	case errors.Is(err, context.Canceled):
		reason = "the request was cancelled"
	case errors.Is(err, models.ErrGenerationInProgress):
		reason = "a generation run is already in progress for this series"
	default:
		reason = err.Error()
	}
	if action == "" {
		return capitalize(reason)
	}
	return fmt.Sprintf("Could not %s: %s", action, reason)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, models.ErrNotFound)
}
