package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.User.Name = "alice"
	return &cfg
}

func TestValidateDeep_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_LayoutErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Layout.CommentWidth = 0
	cfg.Layout.MarginY = -1
	cfg.Layout.Debounce = -time.Millisecond

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 3)

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "layout.comment_width")
	assert.Contains(t, fields, "layout.margin_y")
	assert.Contains(t, fields, "layout.debounce")
}

func TestValidateDeep_DocumentErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Document.DPIScale = 0
	cfg.Document.TileTwips = -5

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 2)
	assert.Contains(t, fieldErrs[0].Err.Error(), "must be positive")
}

func TestValidateDeep_DataDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	cfg.DataDir = file

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 1)
	assert.Equal(t, "data_dir", fieldErrs[0].Field)
}

func TestValidateDeep_ConfigPathIsDirectory(t *testing.T) {
	cfg := validConfig(t)

	err := cfg.ValidateDeep(t.TempDir())

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "config_file", fieldErrs[0].Field)
}

func TestValidateDeep_MissingInclude(t *testing.T) {
	cfg := validConfig(t)
	cfg.Include = []string{"missing.yaml"}

	err := cfg.ValidateDeep(filepath.Join(t.TempDir(), "config.yaml"))

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 1)
	assert.Equal(t, "include[0]", fieldErrs[0].Field)
}

func TestValidateDeep_BasicValidationFirst(t *testing.T) {
	cfg := validConfig(t)
	cfg.Document.Type = "web"

	err := cfg.ValidateDeep("")
	require.Error(t, err)

	var fieldErrs criterio.FieldErrors
	assert.NotErrorAs(t, err, &fieldErrs)
}

func TestWarnings(t *testing.T) {
	cfg := validConfig(t)
	assert.Empty(t, cfg.Warnings())

	cfg.User.Name = ""
	cfg.Layout.Deflection = 500
	cfg.Database.MaxIdleConns = 50

	warnings := cfg.Warnings()
	require.Len(t, warnings, 3)
	assert.Equal(t, "User", warnings[0].Category)
	assert.Equal(t, "Layout", warnings[1].Category)
	assert.Equal(t, "Database", warnings[2].Category)
}
