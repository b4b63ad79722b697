package observability

import "context"

type contextKey string

const caseIDKey contextKey = "case_id"

// WithCaseID attaches the case identifier used to label metrics and logs
func WithCaseID(ctx context.Context, caseID string) context.Context {
	return context.WithValue(ctx, caseIDKey, caseID)
}

// CaseIDFromContext returns the case identifier, or "" when absent
func CaseIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(caseIDKey).(string); ok {
		return id
	}
	return ""
}
