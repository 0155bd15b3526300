package logger

import "context"

type requestIDKey struct{}

// WithRequestID stores the request correlation id so services deeper in the
// call stack can log it without threading it through every signature.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
