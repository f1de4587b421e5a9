package graph

import (
	"context"
	"sync"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// subscribe streams generationProgress events. Each event is one response; the stream ends after
// the event with done set, or when ctx is cancelled.
func (x *Executor) subscribe(ctx context.Context, oc *graphql.OperationContext) graphql.ResponseHandler {
	e := &execution{x: x, vars: oc.Variables}
	fields := e.collectFields(oc.Operation.SelectionSet, x.schema.Subscription.Name)
	if len(fields) != 1 || fields[0].Name != "generationProgress" {
		return graphql.OneShot(graphql.ErrorResponse(ctx, "expected a single generationProgress field"))
	}
	f := fields[0]
	path := ast.Path{ast.PathName(f.Alias)}

	seriesID := stringArg(f.ArgumentMap(oc.Variables), "seriesId")
	if _, err := x.resolver.series.GetSeries(ctx, seriesID); err != nil {
		return graphql.OneShot(&graphql.Response{Errors: gqlerror.List{x.gqlError(err, path)}})
	}

	events, cancel := x.resolver.events.Subscribe(seriesID)
	var once sync.Once
	stop := func() { once.Do(cancel) }
	context.AfterFunc(ctx, stop)

	finished := false
	return func(ctx context.Context) *graphql.Response {
		if finished {
			stop()
			return nil
		}
		select {
		case <-ctx.Done():
			stop()
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			finished = ev.Done

			run := &execution{x: x, vars: oc.Variables}
			v, err := plain(ev)
			if err != nil {
				run.fail(err, path)
				return &graphql.Response{Errors: run.errs}
			}
			return run.response(map[string]any{f.Alias: run.complete(ctx, f.Definition.Type, f.SelectionSet, v, path)})
		}
	}
}
