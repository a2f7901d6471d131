package meta

import (
	"relmap/internal/diagnostic"
)

// Context is implemented by every mapping object. It gives resolution code
// access to the owning repository and a description for messages.
type Context interface {
	Repository() *Repository
	String() string
}

func describe(ctx Context) string {
	if ctx == nil {
		return ""
	}

	return ctx.String()
}

func metaErr(ctx Context, code, format string, args ...any) *diagnostic.MetaError {
	return diagnostic.Errorf(code, describe(ctx), format, args...)
}

func warn(ctx Context, code, format string, args ...any) {
	if ctx == nil || ctx.Repository() == nil {
		return
	}

	ctx.Repository().Warn(code, describe(ctx), format, args...)
}

// complain returns an error when die is set, and logs a warning otherwise.
func complain(ctx Context, die bool, code, format string, args ...any) error {
	if die {
		return metaErr(ctx, code, format, args...)
	}

	warn(ctx, code, format, args...)

	return nil
}
