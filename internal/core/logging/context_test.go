package logging

import (
	"context"
	"testing"
)

func TestWithDocumentID(t *testing.T) {
	ctx := context.Background()
	documentID := "test-doc-123"

	ctx = WithDocumentID(ctx, documentID)
	got := GetDocumentID(ctx)

	if got != documentID {
		t.Errorf("GetDocumentID() = %q, want %q", got, documentID)
	}
}

func TestWithViewID(t *testing.T) {
	ctx := context.Background()
	viewID := "test-view-456"

	ctx = WithViewID(ctx, viewID)
	got := GetViewID(ctx)

	if got != viewID {
		t.Errorf("GetViewID() = %q, want %q", got, viewID)
	}
}

func TestGetDocumentID_NotPresent(t *testing.T) {
	ctx := context.Background()
	got := GetDocumentID(ctx)

	if got != "" {
		t.Errorf("GetDocumentID() = %q, want empty string", got)
	}
}

func TestGetViewID_NotPresent(t *testing.T) {
	ctx := context.Background()
	got := GetViewID(ctx)

	if got != "" {
		t.Errorf("GetViewID() = %q, want empty string", got)
	}
}

func TestBothIDs(t *testing.T) {
	ctx := context.Background()
	documentID := "doc-1"
	viewID := "view-1"

	ctx = WithDocumentID(ctx, documentID)
	ctx = WithViewID(ctx, viewID)

	if got := GetDocumentID(ctx); got != documentID {
		t.Errorf("GetDocumentID() = %q, want %q", got, documentID)
	}

	if got := GetViewID(ctx); got != viewID {
		t.Errorf("GetViewID() = %q, want %q", got, viewID)
	}
}
