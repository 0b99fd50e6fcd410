package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration
// including lane geometry, include files and file accessibility. The
// configPath argument specifies the config file location to validate (empty
// string skips config file check). This calls Validate() first for basic
// structural validation.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateIncludes(configPath),
		c.validateLayout(),
		c.validateDocument(),
		c.validateDatabase(),
		c.validateJournal(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.User.Name == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "User",
			Item:     "name",
			Message:  "user.name is empty, every remote change will be treated as foreign",
		})
	}

	if c.Layout.Deflection >= c.Layout.CommentWidth {
		warnings = append(warnings, ValidationWarning{
			Category: "Layout",
			Item:     "deflection",
			Message:  "deflection is wider than a comment, the selected thread will leave the lane entirely",
		})
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		warnings = append(warnings, ValidationWarning{
			Category: "Database",
			Item:     "max_idle_conns",
			Message:  "max_idle_conns exceeds max_open_conns and will be capped",
		})
	}

	return warnings
}

// validateFileAccess checks the config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

func (c *Config) validateIncludes(configPath string) error {
	if len(c.Include) == 0 {
		return nil
	}

	configDir := filepath.Dir(configPath)
	var errs criterio.FieldErrorsBuilder

	for i, file := range c.Include {
		if _, err := os.Stat(resolvePath(configDir, file)); err != nil {
			errs = errs.Append(fmt.Sprintf("include[%d]", i), fmt.Errorf("file not found: %s", file))
		}
	}

	return errs.ToError()
}

func positive(v int) error {
	if v <= 0 {
		return fmt.Errorf("must be positive, got %d", v)
	}
	return nil
}

func nonNegative(v int) error {
	if v < 0 {
		return fmt.Errorf("cannot be negative, got %d", v)
	}
	return nil
}

// validateLayout checks the lane dimensions.
func (c *Config) validateLayout() error {
	l := c.Layout
	errs := criterio.ValidateStruct(
		criterio.Run("layout.comment_width", l.CommentWidth, positive),
		criterio.Run("layout.collapsed_margin", l.CollapsedMargin, positive),
		criterio.Run("layout.margin_y", l.MarginY, nonNegative),
		criterio.Run("layout.deflection", l.Deflection, nonNegative),
		criterio.Run("layout.deflection_collapsed", l.DeflectionCollapsed, nonNegative),
		criterio.Run("layout.deflection_expanded", l.DeflectionExpanded, nonNegative),
		criterio.Run("layout.min_height", l.MinHeight, positive),
		criterio.Run("layout.max_height", l.MaxHeight, positive),
	)

	if l.Debounce < 0 {
		var b criterio.FieldErrorsBuilder
		b = b.Append("layout.debounce", fmt.Errorf("cannot be negative, got %s", l.Debounce))
		return criterio.ValidateStruct(errs, b.ToError())
	}
	return errs
}

// validateDocument checks zoom and tile geometry.
func (c *Config) validateDocument() error {
	d := c.Document
	var errs criterio.FieldErrorsBuilder

	if d.DPIScale <= 0 {
		errs = errs.Append("document.dpi_scale", fmt.Errorf("must be positive, got %g", d.DPIScale))
	}
	if d.TilePixels <= 0 {
		errs = errs.Append("document.tile_pixels", fmt.Errorf("must be positive, got %d", d.TilePixels))
	}
	if d.TileTwips <= 0 {
		errs = errs.Append("document.tile_twips", fmt.Errorf("must be positive, got %d", d.TileTwips))
	}

	return errs.ToError()
}

func (c *Config) validateDatabase() error {
	return criterio.ValidateStruct(
		criterio.Run("database.max_idle_conns", c.Database.MaxIdleConns, nonNegative),
		criterio.Run("database.busy_timeout", c.Database.BusyTimeout, nonNegative),
	)
}

func (c *Config) validateJournal() error {
	var errs criterio.FieldErrorsBuilder
	if c.Journal.Retention < 0 {
		errs = errs.Append("journal.retention", fmt.Errorf("cannot be negative, got %s", c.Journal.Retention))
	}
	if c.Journal.SweepInterval < 0 {
		errs = errs.Append("journal.sweep_interval", fmt.Errorf("cannot be negative, got %s", c.Journal.SweepInterval))
	}
	return errs.ToError()
}
