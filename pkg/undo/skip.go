package undo

import "context"

type skipKey struct{}

// Skip runs fn with undo recording suppressed: root actions started with the context
// passed to fn do not produce undo events. Leaving fn, by return or panic, restores the
// caller's setting since the flag lives only in the derived context.
//
// Suppression follows the context, not the call stack. An action started inside fn with
// a context that was not derived from fn's argument, such as a captured outer ctx, is
// still recorded.
func Skip(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(WithoutUndo(ctx))
}

// WithoutUndo returns a context in which root actions are not recorded.
func WithoutUndo(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipKey{}, true)
}

// Skipping reports whether ctx suppresses undo recording.
func Skipping(ctx context.Context) bool {
	v, _ := ctx.Value(skipKey{}).(bool)
	return v
}
