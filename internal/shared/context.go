package shared

import "context"

// Context keys for run-scoped data. Keep types unexported to avoid collisions.
type ctxKey string

const (
	ctxKeyRunID  ctxKey = "run-id"
	ctxKeyCaseID ctxKey = "case-id"
)

// WithRunID tags ctx with the batch run it belongs to.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRunID, id)
}

func RunID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRunID).(string)
	return v
}

// WithCaseID tags ctx with the test record being produced.
func WithCaseID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCaseID, id)
}

func CaseID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyCaseID).(string)
	return v
}
