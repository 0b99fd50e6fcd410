package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_With(t *testing.T) {
	base := New("EditAnnotation").With("Id", String("4"))
	withText := base.With("Text", String("hello"))

	_, ok := base.Arg("Text")
	assert.False(t, ok, "With must not mutate the receiver")

	a, ok := withText.Arg("Id")
	require.True(t, ok)
	assert.Equal(t, Arg{Type: "string", Value: "4"}, a)
}

func TestCommand_Wire(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "with args",
			cmd:  New("DeleteComment").With("Id", String("7")),
			want: `uno .uno:DeleteComment {"Id":{"type":"string","value":"7"}}`,
		},
		{
			name: "unsigned short",
			cmd:  New("AcceptTrackedChange").With("AcceptTrackedChange", UnsignedShort("3")),
			want: `uno .uno:AcceptTrackedChange {"AcceptTrackedChange":{"type":"unsigned short","value":"3"}}`,
		},
		{
			name: "no args",
			cmd:  New("InsertAnnotation"),
			want: "uno .uno:InsertAnnotation",
		},
		{
			name: "query",
			cmd:  NewQuery("ViewAnnotations"),
			want: "commandvalues command=.uno:ViewAnnotations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Wire()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecorder(t *testing.T) {
	var forwarded []string
	next := TransportFunc(func(_ context.Context, cmd Command) error {
		forwarded = append(forwarded, cmd.Name)
		if cmd.Name == "Fail" {
			return errors.New("boom")
		}
		return nil
	})

	r := NewRecorder(next)
	require.NoError(t, r.Send(context.Background(), New("ResolveComment")))
	require.Error(t, r.Send(context.Background(), New("Fail")))

	assert.Len(t, r.Sent(), 2)
	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "Fail", last.Name)
	assert.Equal(t, []string{"ResolveComment", "Fail"}, forwarded)

	r.Reset()
	_, ok = r.Last()
	assert.False(t, ok)
}
