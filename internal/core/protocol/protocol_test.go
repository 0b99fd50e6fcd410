package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  Kind
		check func(t *testing.T, m Message)
	}{
		{
			name:  "comment",
			input: `{"comment": {"action": "Add", "id": 4, "parent": "1", "author": "ann"}}`,
			kind:  KindComment,
			check: func(t *testing.T, m Message) {
				assert.Equal(t, comment.ActionAdd, m.Action())
				assert.Equal(t, "4", m.Comment.ID.String())
				assert.Equal(t, "1", m.Comment.Parent.String())
			},
		},
		{
			name:  "redline",
			input: `{"redline": {"action": "Remove", "index": "3"}}`,
			kind:  KindRedline,
			check: func(t *testing.T, m Message) {
				assert.Equal(t, comment.ActionRemove, m.Action())
				assert.Equal(t, "3", m.Redline.Index.String())
			},
		},
		{
			name:  "empty import",
			input: `{"comments": []}`,
			kind:  KindComments,
			check: func(t *testing.T, m Message) {
				assert.NotNil(t, m.Comments)
				assert.Empty(t, m.Comments)
			},
		},
		{
			name:  "change import",
			input: `{"redlines": [{"index": 1, "textRange": "1 2 3 4"}]}`,
			kind:  KindRedlines,
			check: func(t *testing.T, m Message) {
				require.Len(t, m.Redlines, 1)
			},
		},
		{
			name:  "view",
			input: `{"view": {"viewId": 2, "username": "bob", "color": 255, "userextrainfo": {"avatar": "b.png"}}}`,
			kind:  KindView,
			check: func(t *testing.T, m Message) {
				assert.Equal(t, "bob", m.View.UserName)
				assert.Equal(t, "b.png", m.View.ExtraInfo.Avatar)
			},
		},
		{
			name:  "view removed",
			input: `{"viewRemoved": {"viewId": 2}}`,
			kind:  KindViewRemoved,
			check: func(t *testing.T, m Message) {
				assert.Equal(t, 2, m.View.ViewID)
			},
		},
		{
			name:  "parts",
			input: `{"parts": [{"hash": "h", "part": 1, "yOffset": 9000}]}`,
			kind:  KindParts,
			check: func(t *testing.T, m Message) {
				assert.Equal(t, []Part{{Hash: "h", Part: 1, YOffset: 9000}}, m.Parts)
			},
		},
		{
			name:  "local",
			input: `{"local": {"op": "reply", "id": "1", "text": "ok"}}`,
			kind:  KindLocal,
			check: func(t *testing.T, m Message) {
				assert.Equal(t, OpReply, m.Local.Op)
				assert.Equal(t, "ok", m.Local.Text)
			},
		},
		{
			name:  "local autosave reply",
			input: `{"local": {"op": "autosave-reply", "id": "1", "text": "half"}}`,
			kind:  KindLocal,
			check: func(t *testing.T, m Message) {
				assert.Equal(t, OpAutoSaveReply, m.Local.Op)
				assert.Equal(t, "1", m.Local.ID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, m.Kind)
			tt.check(t, m)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		unknown bool
	}{
		{name: "no kind", input: `{"other": 1}`, unknown: true},
		{name: "bad action", input: `{"comment": {"action": "Explode", "id": "1"}}`, unknown: true},
		{name: "bad op", input: `{"local": {"op": "dance"}}`, unknown: true},
		{name: "invalid json", input: `{"comment": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.Equal(t, tt.unknown, errors.Is(err, ErrUnknownMessage))
		})
	}
}

func TestReader(t *testing.T) {
	input := strings.Join([]string{
		`# a replay`,
		`{"comment": {"action": "Add", "id": "1"}}`,
		``,
		`{"local": {"op": "select", "id": "1"}}`,
	}, "\n")

	msgs, err := ReadAll(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, 2, msgs[0].Line)
	assert.Equal(t, 4, msgs[1].Line)
	assert.Equal(t, KindLocal, msgs[1].Kind)
}

func TestReader_ReportsLine(t *testing.T) {
	input := "{\"comment\": {\"action\": \"Add\", \"id\": \"1\"}}\n{\"bogus\": true}\n"

	msgs, err := ReadAll(strings.NewReader(input))
	require.ErrorIs(t, err, ErrUnknownMessage)
	assert.Contains(t, err.Error(), "line 2")
	assert.Len(t, msgs, 1)
}

func TestEncodeRoundTrip(t *testing.T) {
	raw, err := EncodeLocal(LocalAction{Op: OpPart, Part: 2})
	require.NoError(t, err)

	m, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, KindLocal, m.Kind)
	assert.Equal(t, 2, m.Local.Part)
}
