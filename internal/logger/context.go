package logger

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	caseIDKey
)

// WithRequestID stores the inbound request ID on ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request ID stored on ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithCaseID tags ctx with the onboarding case being worked on so every log
// line below it carries case_id.
func WithCaseID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, caseIDKey, id)
}

// CaseID returns the case ID stored on ctx, or "".
func CaseID(ctx context.Context) string {
	id, _ := ctx.Value(caseIDKey).(string)
	return id
}
