package margin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/doctype"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/eventbus/testbus"
)

func TestImportComments(t *testing.T) {
	h := newHarness(t, doctype.Text)
	h.add("old", "0", 50)
	require.NoError(t, h.s.HandleRedline(h.ctx, redline(comment.ActionAdd, "9", 10)))

	err := h.s.ImportComments(h.ctx, []comment.Payload{
		payload(comment.ActionAdd, "3", "1", 100),
		payload(comment.ActionAdd, "1", "0", 100),
		payload(comment.ActionAdd, "2", "0", 400),
		payload(comment.ActionAdd, "2", "0", 400),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"change-9", "1", "3", "2"}, h.ids())
	assert.Equal(t, "1", h.get("3").Parent)
	assert.NotContains(t, h.host.SectionIDs(), "old")
	assert.False(t, h.host.Paused())

	require.True(t, h.bus.WaitFor(eventbus.EventImportCompleted, time.Second))
	done := testbus.Payloads[eventbus.ImportCompletedPayload](h.bus, eventbus.EventImportCompleted)
	require.Len(t, done, 1)
	assert.Equal(t, 3, done[0].Comments)
	assert.False(t, done[0].TrackedChanges)
}

func TestImportComments_HidesResolved(t *testing.T) {
	h := newHarness(t, doctype.Text)

	resolved := payload(comment.ActionAdd, "1", "0", 100)
	resolved.Resolved = "true"
	require.NoError(t, h.s.ImportComments(h.ctx, []comment.Payload{
		resolved,
		payload(comment.ActionAdd, "2", "0", 200),
	}))

	assert.True(t, h.get("1").Hidden)
	assert.False(t, h.get("2").Hidden)
}

func TestImportComments_DeferredWhileEditing(t *testing.T) {
	h := newHarness(t, doctype.Text)
	h.add("1", "0", 100)
	require.NoError(t, h.s.Edit("1"))

	require.NoError(t, h.s.ImportComments(h.ctx, []comment.Payload{
		payload(comment.ActionAdd, "5", "0", 100),
	}))
	assert.Equal(t, []string{"1"}, h.ids())
	assert.True(t, h.s.State().PendingImport)
	assert.Empty(t, h.sent.Sent())

	require.NoError(t, h.s.Cancel(h.ctx, "1"))

	assert.False(t, h.s.State().PendingImport)
	cmd := h.lastSent()
	assert.Equal(t, "ViewAnnotations", cmd.Name)
	assert.True(t, cmd.Query)
}

func TestImportComments_SpreadsheetStartsHidden(t *testing.T) {
	h := newHarness(t, doctype.Spreadsheet)

	require.NoError(t, h.s.ImportComments(h.ctx, []comment.Payload{
		payload(comment.ActionAdd, "1", "0", 100),
	}))
	assert.True(t, h.get("1").Hidden)
}

func TestImportChanges(t *testing.T) {
	h := newHarness(t, doctype.Text)
	h.add("1", "0", 100)
	require.NoError(t, h.s.HandleRedline(h.ctx, redline(comment.ActionAdd, "4", 10)))

	err := h.s.ImportChanges(h.ctx, []comment.Payload{
		redline(comment.ActionAdd, "7", 500),
		{Action: comment.ActionAdd, Index: "8"},
		redline(comment.ActionAdd, "6", 20),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"change-6", "1", "change-7"}, h.ids())
	assert.NotContains(t, h.host.SectionIDs(), "change-4")

	require.True(t, h.bus.WaitFor(eventbus.EventImportCompleted, time.Second))
	done := testbus.Payloads[eventbus.ImportCompletedPayload](h.bus, eventbus.EventImportCompleted)
	require.Len(t, done, 1)
	assert.Equal(t, 2, done[0].Comments)
	assert.True(t, done[0].TrackedChanges)
}
