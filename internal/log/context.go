package log

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type runIDKey struct{}

// NewRunID creates an identifier for one command invocation.
func NewRunID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("run_%d", time.Now().UnixNano())
	}
	return "run_" + hex.EncodeToString(b)
}

// WithRunID returns a copy of ctx tagged with id. The *Context logging
// methods attach it to every entry.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID extracts the run id from ctx, or "" when there is none.
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

func (l *Logger) contextArgs(ctx context.Context, args []any) []any {
	out := make([]any, 0, len(args)+4)
	out = append(out, FieldComponent, l.component)
	if id := RunID(ctx); id != "" {
		out = append(out, FieldRunID, id)
	}
	return append(out, args...)
}
