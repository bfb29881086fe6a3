package ctxutil

import "context"

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

type traceDataKey struct{}

// TraceData carries the request's trace/request identifiers in the HTTP
// request's context, where the trace-context middleware sets it and the
// request logger reads it. It is not propagated into workflow or activity
// contexts.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	v := ctx.Value(traceDataKey{})
	td, ok := v.(*TraceData)
	if !ok {
		return nil
	}
	return td
}
