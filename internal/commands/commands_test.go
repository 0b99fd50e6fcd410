package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/core/conflict"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/data/db"
	"github.com/colonyops/margin/internal/margin"
)

const session = `{"comment": {"action": "Add", "id": "1", "parent": "0", "author": "ann", "text": "first", "anchorPos": "100, 100, 10, 10"}}
{"comment": {"action": "Add", "id": "2", "parent": "1", "author": "bob", "text": "second", "anchorPos": "100, 100, 10, 10"}}
{"local": {"op": "reply", "id": "1", "text": "ok"}}
`

type testEnv struct {
	flags  *Flags
	app    *margin.App
	dir    string
	stderr bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	database, err := db.Open(dir, db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.User.Name = "me"

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bus := eventbus.New(64)
	go bus.Start(ctx)

	app := margin.NewApp(&cfg, database, bus)
	app.RegisterObservers(zerolog.Nop())

	return &testEnv{
		flags: &Flags{Config: &cfg, DataDir: dir},
		app:   app,
		dir:   dir,
	}
}

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	app := &cli.Command{
		Name:           "margin",
		Writer:         &buf,
		ErrWriter:      &e.stderr,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	app = NewReplayCmd(e.flags, e.app).Register(app)
	app = NewJournalCmd(e.flags, e.app).Register(app)
	app = NewDoctorCmd(e.flags, e.app).Register(app)
	app = NewConfigValidateCmd(e.flags).Register(app)

	err := app.Run(context.Background(), append([]string{"margin"}, args...))
	return buf.String(), err
}

func decodeLines[T any](t *testing.T, out string) []T {
	t.Helper()
	var result []T
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var v T
		require.NoError(t, json.Unmarshal([]byte(line), &v), line)
		result = append(result, v)
	}
	return result
}

func TestReplay_JSON(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "doc.jsonl", session)

	out, err := env.run(t, "replay", "--json", path)
	require.NoError(t, err)

	views := decodeLines[commentView](t, out)
	require.Len(t, views, 2)
	assert.Equal(t, "1", views[0].ID)
	assert.Equal(t, "ann", views[0].Author)
	assert.Equal(t, "2", views[1].ID)
	assert.Equal(t, "1", views[1].Parent)
	assert.Equal(t, "doc.jsonl", views[1].Document)
	assert.NotNil(t, views[0].Y)
}

func TestReplay_Tree(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "doc.jsonl", session)

	out, err := env.run(t, "replay", "--document", "report.odt", "--file", path)
	require.NoError(t, err)

	assert.Contains(t, out, "report.odt")
	assert.Contains(t, out, "ann")
	assert.Contains(t, out, "second")
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
}

func TestReplay_Glob(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "sessions/b.jsonl", session)
	env.write(t, "sessions/nested/a.jsonl", session)

	out, err := env.run(t, "replay", "--json", "--glob", filepath.Join(env.dir, "sessions", "**", "*.jsonl"))
	require.NoError(t, err)

	views := decodeLines[commentView](t, out)
	require.Len(t, views, 4)
	assert.Equal(t, "b.jsonl", views[0].Document)
	assert.Equal(t, "a.jsonl", views[2].Document)

	_, err = env.run(t, "replay", "--glob", filepath.Join(env.dir, "none", "*.jsonl"))
	require.ErrorContains(t, err, "matched no files")
}

func TestReplay_Errors(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "bad.jsonl", `{"comment": {"action": "Explode", "id": "2"}}`+"\n")

	_, err := env.run(t, "replay", path)
	require.ErrorContains(t, err, "bad.jsonl")

	_, err = env.run(t, "replay", "--keep-going", path)
	require.Error(t, err)

	env.stderr.Reset()
	_, err = env.run(t, "replay", "--keep-going", "--json", path)
	require.Error(t, err)
	assert.Contains(t, env.stderr.String(), `"message": "messages failed"`)
	assert.Contains(t, env.stderr.String(), `"input": "bad.jsonl"`)

	_, err = env.run(t, "replay", "--doc-type", "poster", path)
	require.ErrorContains(t, err, "unknown document type")

	_, err = env.run(t, "replay", "--on-conflict", "shrug", path)
	require.ErrorContains(t, err, "unknown conflict policy")
}

func TestJournal_LsAndShow(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "doc.jsonl", session)

	_, err := env.run(t, "replay", "--json", path)
	require.NoError(t, err)

	var sessions []sessionInfo
	require.Eventually(t, func() bool {
		out, err := env.run(t, "journal", "ls", "--json")
		if err != nil {
			return false
		}
		sessions = decodeLines[sessionInfo](t, out)
		return len(sessions) == 1 && sessions[0].Entries == 4
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "doc.jsonl", sessions[0].Document)

	out, err := env.run(t, "journal", "show", "--json", sessions[0].ID)
	require.NoError(t, err)
	entries := decodeLines[entryInfo](t, out)
	require.Len(t, entries, 4)
	assert.Equal(t, "comment", entries[0].Kind)
	assert.Equal(t, "ReplyComment", entries[3].Kind)

	_, err = env.run(t, "journal", "show", "nope")
	require.ErrorContains(t, err, "not found")

	_, err = env.run(t, "journal", "show")
	require.Error(t, err)
}

func TestJournal_Prune(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "doc.jsonl", session)

	_, err := env.run(t, "replay", path)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		sessions, err := env.app.Journal.Sessions(context.Background(), "")
		return err == nil && len(sessions) == 1 && sessions[0].Entries == 4
	}, 2*time.Second, 10*time.Millisecond)

	_, err = env.run(t, "journal", "prune", "--older-than", "1h")
	require.NoError(t, err)
	sessions, err := env.app.Journal.Sessions(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	time.Sleep(5 * time.Millisecond)
	_, err = env.run(t, "journal", "prune", "--older-than", "1ms")
	require.NoError(t, err)
	sessions, err = env.app.Journal.Sessions(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		env := newTestEnv(t)

		out, err := env.run(t, "config", "validate", "--format", "json")
		require.NoError(t, err)

		results := decodeLines[validationResult](t, out)
		require.Len(t, results, 1)
		assert.True(t, results[0].Valid)
		assert.Empty(t, results[0].Errors)
	})

	t.Run("invalid", func(t *testing.T) {
		env := newTestEnv(t)
		env.flags.Config.Layout.CommentWidth = 0

		out, err := env.run(t, "config", "validate", "--format", "json")
		require.Error(t, err)

		results := decodeLines[validationResult](t, out)
		require.Len(t, results, 1)
		assert.False(t, results[0].Valid)
		require.NotEmpty(t, results[0].Errors)
	})

	t.Run("warnings", func(t *testing.T) {
		env := newTestEnv(t)
		env.flags.Config.User.Name = ""

		result := validate(env.flags.Config, "")
		assert.True(t, result.Valid)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, "name", result.Warnings[0].Item)
	})
}

func TestDoctor_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.flags.ConfigPath = filepath.Join(env.dir, "config.yaml")
	env.flags.Config.Conflict.Policy = "update"

	out, err := env.run(t, "doctor", "--format", "json", "--autofix")
	require.NoError(t, err)

	var report struct {
		Healthy bool `json:"healthy"`
		Checks  []struct {
			Name string `json:"name"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Healthy)
	require.Len(t, report.Checks, 3)
	assert.Equal(t, "Configuration", report.Checks[0].Name)
	assert.Equal(t, "Storage", report.Checks[1].Name)
}

func TestSelectPresenter(t *testing.T) {
	p, err := selectPresenter("overwrite", "prompt", false)
	require.NoError(t, err)
	assert.Equal(t, conflict.PolicyPresenter{Policy: conflict.PolicyOverwrite}, p)

	p, err = selectPresenter("", "update", false)
	require.NoError(t, err)
	assert.Equal(t, conflict.PolicyPresenter{Policy: conflict.PolicyUpdate}, p)

	// stdin carries the messages, nobody can answer a prompt
	p, err = selectPresenter("prompt", "update", true)
	require.NoError(t, err)
	assert.Equal(t, conflict.PolicyPresenter{Policy: conflict.PolicyPrompt}, p)

	_, err = selectPresenter("maybe", "prompt", false)
	require.Error(t, err)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "short", firstLine("short"))
	assert.Equal(t, "one …", firstLine("one\ntwo"))

	long := strings.Repeat("é", 80)
	got := firstLine(long)
	assert.Len(t, []rune(got), maxLabelWidth)
	assert.True(t, strings.HasSuffix(got, "…"))
}
