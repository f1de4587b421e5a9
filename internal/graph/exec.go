package graph

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

//go:embed schema.graphql
var schemaSource string

// Schema is the parsed showrunner schema.
var Schema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSource})

// fieldResolver computes an object field the parent value does not carry.
type fieldResolver func(ctx context.Context, obj map[string]any) (any, error)

// Executor runs operations against a Resolver. It implements graphql.ExecutableSchema: parsing,
// validation and variable coercion happen in the gqlgen handler before Exec is called.
type Executor struct {
	schema   *ast.Schema
	resolver *Resolver
	fields   map[string]map[string]fieldResolver // type -> field -> resolver
}

var _ graphql.ExecutableSchema = (*Executor)(nil)

// NewExecutor creates an executor for the showrunner schema.
func NewExecutor(r *Resolver) *Executor {
	x := &Executor{schema: Schema, resolver: r}
	x.fields = map[string]map[string]fieldResolver{
		"Series": {"episodes": r.seriesEpisodes},
	}
	return x
}

// Schema returns the showrunner schema.
func (x *Executor) Schema() *ast.Schema {
	return x.schema
}

// Complexity leaves every field at the default cost.
func (x *Executor) Complexity(ctx context.Context, typeName, fieldName string, childComplexity int, args map[string]any) (int, bool) {
	return 0, false
}

// Exec runs the validated operation of ctx.
func (x *Executor) Exec(ctx context.Context) graphql.ResponseHandler {
	oc := graphql.GetOperationContext(ctx)
	switch oc.Operation.Operation {
	case ast.Query:
		return graphql.OneShot(x.execute(ctx, oc, x.schema.Query))
	case ast.Mutation:
		return graphql.OneShot(x.execute(ctx, oc, x.schema.Mutation))
	case ast.Subscription:
		return x.subscribe(ctx, oc)
	}
	return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported operation %q", oc.Operation.Operation))
}

// execute resolves the root fields of a query or mutation. Mutation fields run in document order.
func (x *Executor) execute(ctx context.Context, oc *graphql.OperationContext, root *ast.Definition) *graphql.Response {
	e := &execution{x: x, vars: oc.Variables}
	data := make(map[string]any)
	for _, f := range e.collectFields(oc.Operation.SelectionSet, root.Name) {
		path := ast.Path{ast.PathName(f.Alias)}
		if f.Name == "__typename" {
			data[f.Alias] = root.Name
			continue
		}

		v, err := x.resolveRoot(ctx, oc.Operation.Operation, f, f.ArgumentMap(oc.Variables))
		if err == nil {
			v, err = plain(v)
		}
		if err != nil {
			e.fail(err, path)
			data[f.Alias] = nil
			continue
		}
		data[f.Alias] = e.complete(ctx, f.Definition.Type, f.SelectionSet, v, path)
	}
	return e.response(data)
}

// execution holds the state of a single operation run.
type execution struct {
	x    *Executor
	vars map[string]any
	errs gqlerror.List
}

func (e *execution) fail(err error, path ast.Path) {
	e.errs = append(e.errs, e.x.gqlError(err, path))
}

func (e *execution) response(data map[string]any) *graphql.Response {
	b, err := json.Marshal(data)
	if err != nil {
		e.fail(err, nil)
		return &graphql.Response{Errors: e.errs}
	}
	return &graphql.Response{Data: b, Errors: e.errs}
}

// collectFields flattens a selection set for an object type, applying fragments and
// @skip/@include.
func (e *execution) collectFields(set ast.SelectionSet, typeName string) []*ast.Field {
	var fields []*ast.Field
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			if e.included(sel.Directives) {
				fields = append(fields, sel)
			}
		case *ast.InlineFragment:
			if e.included(sel.Directives) && (sel.TypeCondition == "" || sel.TypeCondition == typeName) {
				fields = append(fields, e.collectFields(sel.SelectionSet, typeName)...)
			}
		case *ast.FragmentSpread:
			if e.included(sel.Directives) && sel.Definition != nil && sel.Definition.TypeCondition == typeName {
				fields = append(fields, e.collectFields(sel.Definition.SelectionSet, typeName)...)
			}
		}
	}
	return fields
}

func (e *execution) included(directives ast.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(e.vars)["if"].(bool); skip {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil {
		if include, _ := d.ArgumentMap(e.vars)["if"].(bool); !include {
			return false
		}
	}
	return true
}

// complete projects a plain JSON value onto the selection set of its schema type.
func (e *execution) complete(ctx context.Context, typ *ast.Type, set ast.SelectionSet, v any, path ast.Path) any {
	if v == nil {
		if typ.NonNull && typ.Elem != nil {
			return []any{}
		}
		return nil
	}

	if typ.Elem != nil {
		items, ok := v.([]any)
		if !ok {
			return nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = e.complete(ctx, typ.Elem, set, item, appendPath(path, ast.PathIndex(i)))
		}
		return out
	}

	def := e.x.schema.Types[typ.NamedType]
	if def == nil || def.Kind != ast.Object {
		return v
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}

	out := make(map[string]any)
	for _, f := range e.collectFields(set, def.Name) {
		fieldPath := appendPath(path, ast.PathName(f.Alias))
		if f.Name == "__typename" {
			out[f.Alias] = def.Name
			continue
		}

		val, ok := obj[f.Name]
		if resolve := e.x.fields[def.Name][f.Name]; !ok && resolve != nil {
			resolved, err := resolve(ctx, obj)
			if err == nil {
				resolved, err = plain(resolved)
			}
			if err != nil {
				e.fail(err, fieldPath)
				out[f.Alias] = nil
				continue
			}
			val = resolved
		}
		out[f.Alias] = e.complete(ctx, f.Definition.Type, f.SelectionSet, val, fieldPath)
	}
	return out
}

func appendPath(path ast.Path, el ast.PathElement) ast.Path {
	return append(path[:len(path):len(path)], el)
}

// plain converts a Go value to its JSON shape. Numbers stay json.Number.
func plain(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
