package iojson

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLine(&buf, map[string]int{"a": 1}))
	require.NoError(t, WriteLine(&buf, map[string]int{"b": 2}))

	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", buf.String())
}

func TestWriteLine_MarshalError(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteLine(&buf, func() {}))
	assert.Empty(t, buf.String())
}

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, WriteWith(&out, &errOut, struct {
		Name string `json:"name"`
	}{"margin"}))
	assert.Contains(t, out.String(), `"name": "margin"`)
	assert.Empty(t, errOut.String())

	out.Reset()
	require.NoError(t, WriteWith(&out, &errOut, make(chan int)))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "json_error")
}

func TestMarshalError(t *testing.T) {
	var e Error
	require.NoError(t, json.Unmarshal([]byte(MarshalError("boom", map[string]any{"line": 3})), &e))
	assert.Equal(t, "boom", e.Message)
	assert.InDelta(t, 3, e.Data["line"], 0)
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteError(&buf, "messages failed", map[string]any{"failed": 2}))

	var e Error
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, "messages failed", e.Message)
	assert.InDelta(t, 2, e.Data["failed"], 0)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	rc, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "{}", strings.TrimSpace(string(data)))

	_, err = Open(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
}
