package logging

import "context"

type requestIDKey struct{}

// WithRequestID returns ctx carrying id. Loggers add it to every entry
// written with that context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored by WithRequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func withRequestID(ctx context.Context, args []any) []any {
	if id := RequestIDFrom(ctx); id != "" {
		return append(args[:len(args):len(args)], "request_id", id)
	}
	return args
}
