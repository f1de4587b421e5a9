package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// resolveRoot dispatches a top-level query or mutation field.
func (x *Executor) resolveRoot(ctx context.Context, op ast.Operation, f *ast.Field, args map[string]any) (any, error) {
	r := x.resolver
	if op == ast.Mutation {
		return r.mutation(ctx, f.Name, args)
	}
	return r.query(ctx, f.Name, args)
}

func (r *Resolver) query(ctx context.Context, field string, args map[string]any) (any, error) {
	switch field {
	case "seriesList":
		return r.series.ListSeries(ctx)

	case "series":
		detail, err := r.series.GetSeries(ctx, stringArg(args, "id"))
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return detail, err

	case "episode":
		ep, err := r.series.GetEpisode(ctx, stringArg(args, "id"))
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return ep, err

	case "stories":
		return r.stories.ListStories(ctx)

	case "serverStats":
		return r.metrics.Snapshot(), nil
	}
	return nil, fmt.Errorf("unknown query field %q", field)
}

func (r *Resolver) mutation(ctx context.Context, field string, args map[string]any) (any, error) {
	switch field {
	case "createSeries":
		var input models.CreateSeriesInput
		if err := decodeArg(args, "input", &input); err != nil {
			return nil, err
		}
		return r.series.CreateSeries(ctx, input)

	case "deleteSeries":
		if err := r.series.DeleteSeries(ctx, stringArg(args, "id")); err != nil {
			return nil, err
		}
		return true, nil

	case "generateSeasonEpisodes":
		season, err := intArg(args, "season")
		if err != nil {
			return nil, err
		}
		return r.series.GenerateSeason(ctx, stringArg(args, "seriesId"), season)

	case "createStory":
		var input models.CreateStoryInput
		if err := decodeArg(args, "input", &input); err != nil {
			return nil, err
		}
		return r.stories.CreateStory(ctx, input)

	case "deleteStory":
		if err := r.stories.DeleteStory(ctx, stringArg(args, "id")); err != nil {
			return nil, err
		}
		return true, nil
	}
	return nil, fmt.Errorf("unknown mutation field %q", field)
}

// seriesEpisodes resolves Series.episodes for series loaded without them.
func (r *Resolver) seriesEpisodes(ctx context.Context, obj map[string]any) (any, error) {
	id, _ := obj["id"].(string)
	detail, err := r.series.GetSeries(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail.Episodes, nil
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

func intArg(args map[string]any, name string) (int, error) {
	switch v := args[name].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", models.ErrValidation, name)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("%w: %s must be an integer", models.ErrValidation, name)
}

// decodeArg decodes an input object argument into out through its JSON shape.
func decodeArg(args map[string]any, name string, out any) error {
	b, err := json.Marshal(args[name])
	if err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrValidation, name, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrValidation, name, err)
	}
	return nil
}
