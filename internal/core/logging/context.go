package logging

import "context"

type contextKey string

const (
	documentIDKey contextKey = "document_id"
	viewIDKey     contextKey = "view_id"
)

// WithDocumentID adds a document ID to the context.
func WithDocumentID(ctx context.Context, documentID string) context.Context {
	return context.WithValue(ctx, documentIDKey, documentID)
}

// WithViewID adds a view ID to the context.
func WithViewID(ctx context.Context, viewID string) context.Context {
	return context.WithValue(ctx, viewIDKey, viewID)
}

// GetDocumentID retrieves the document ID from the context.
// Returns empty string if not present.
func GetDocumentID(ctx context.Context) string {
	if id, ok := ctx.Value(documentIDKey).(string); ok {
		return id
	}
	return ""
}

// GetViewID retrieves the view ID from the context.
// Returns empty string if not present.
func GetViewID(ctx context.Context) string {
	if id, ok := ctx.Value(viewIDKey).(string); ok {
		return id
	}
	return ""
}
