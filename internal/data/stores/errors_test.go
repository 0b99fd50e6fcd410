package stores

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/colonyops/margin/internal/data/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverFromCorruption_Success(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, db.FileName)

	require.NoError(t, os.WriteFile(dbPath, []byte("corrupted data"), 0o644))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("wal data"), 0o644))
	require.NoError(t, os.WriteFile(dbPath+"-shm", []byte("shm data"), 0o644))

	require.NoError(t, RecoverFromCorruption(tempDir))

	backups, err := filepath.Glob(filepath.Join(tempDir, db.FileName+".corrupt.*"))
	require.NoError(t, err)

	var main, wal, shm int
	for _, f := range backups {
		switch {
		case strings.HasSuffix(f, "-wal"):
			wal++
		case strings.HasSuffix(f, "-shm"):
			shm++
		default:
			main++
		}
	}
	assert.Equal(t, 1, main, "database backup")
	assert.Equal(t, 1, wal, "WAL backup")
	assert.Equal(t, 1, shm, "SHM backup")

	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "%s should be moved away", p)
	}
}

func TestRecoverFromCorruption_MissingFile(t *testing.T) {
	tempDir := t.TempDir()

	assert.NoError(t, RecoverFromCorruption(tempDir))

	files, _ := filepath.Glob(filepath.Join(tempDir, "*.corrupt.*"))
	assert.Empty(t, files)
}

func TestRecoverFromCorruption_ReopensClean(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, db.FileName), []byte("not a database"), 0o644))

	require.NoError(t, RecoverFromCorruption(tempDir))

	database, err := db.Open(tempDir, db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(fmt.Errorf("wrapped: %w", sql.ErrNoRows)))
	assert.False(t, IsNotFoundError(ErrNotFound))
	assert.False(t, IsNotFoundError(nil))
}

func TestIsCorruptionError_Message(t *testing.T) {
	assert.True(t, IsCorruptionError(fmt.Errorf("open: file is not a database")))
	assert.False(t, IsCorruptionError(fmt.Errorf("disk full")))
	assert.False(t, IsBusyError(fmt.Errorf("disk full")))
}
