package graph

import (
	"errors"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// Codes set in the "code" extension of every error.
const (
	codeNotFound   = "NOT_FOUND"
	codeValidation = "VALIDATION"
	codeConflict   = "CONFLICT"
	codeInternal   = "INTERNAL_SERVER_ERROR"
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return codeNotFound
	case errors.Is(err, models.ErrValidation):
		return codeValidation
	case errors.Is(err, models.ErrGenerationInProgress):
		return codeConflict
	}
	return codeInternal
}

func setCode(err *gqlerror.Error, code string) {
	if err.Extensions == nil {
		err.Extensions = make(map[string]any)
	}
	err.Extensions["code"] = code
}

// gqlError converts a resolver error. Unclassified errors are logged.
func (x *Executor) gqlError(err error, path ast.Path) *gqlerror.Error {
	code := errorCode(err)
	if code == codeInternal {
		x.resolver.logger.Error("resolver failed", "path", path.String(), "error", err)
	}
	gqlErr := &gqlerror.Error{Message: err.Error(), Path: path}
	setCode(gqlErr, code)
	return gqlErr
}
