// Package config handles configuration loading and validation for margin.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/margin/internal/core/conflict"
	"github.com/colonyops/margin/internal/core/doctype"
	"github.com/colonyops/margin/internal/core/geom"
	"github.com/colonyops/margin/internal/core/layout"
	"github.com/colonyops/margin/internal/core/styles"
)

// Config holds the application configuration.
type Config struct {
	// Include lists YAML files merged underneath this one, in order.
	Include  []string       `yaml:"include"`
	Layout   LayoutConfig   `yaml:"layout"`
	Document DocumentConfig `yaml:"document"`
	User     UserConfig     `yaml:"user"`
	Database DatabaseConfig `yaml:"database"`
	Conflict ConflictConfig `yaml:"conflict"`
	Journal  JournalConfig  `yaml:"journal"`
	Output   OutputConfig   `yaml:"output"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// LayoutConfig holds the comment lane dimensions, in CSS pixels.
type LayoutConfig struct {
	CommentWidth        int           `yaml:"comment_width"`
	CollapsedMargin     int           `yaml:"collapsed_margin"`
	Deflection          int           `yaml:"deflection"`           // selected thread offset before any collapse decision
	DeflectionCollapsed int           `yaml:"deflection_collapsed"` // offset while the list is collapsed
	DeflectionExpanded  int           `yaml:"deflection_expanded"`  // offset while the list is expanded
	MarginY             int           `yaml:"margin_y"`
	MinHeight           int           `yaml:"min_height"`
	MaxHeight           int           `yaml:"max_height"`
	Debounce            time.Duration `yaml:"debounce"`
	GrowUp              bool          `yaml:"grow_up"`
}

// Settings converts the config to layout engine settings.
func (l LayoutConfig) Settings() layout.Settings {
	return layout.Settings{
		CommentWidth:    l.CommentWidth,
		CollapsedMargin: l.CollapsedMargin,
		MarginY:         l.MarginY,
		MinHeight:       l.MinHeight,
		MaxHeight:       l.MaxHeight,
		GrowUp:          l.GrowUp,
	}
}

// DocumentConfig describes the document the margin is attached to.
type DocumentConfig struct {
	Type               string  `yaml:"type"`
	FileBasedView      bool    `yaml:"file_based_view"`
	RTL                bool    `yaml:"rtl"`
	Mobile             bool    `yaml:"mobile"`
	DPIScale           float64 `yaml:"dpi_scale"`
	TilePixels         int     `yaml:"tile_pixels"`
	TileTwips          int     `yaml:"tile_twips"`
	ShowResolved       bool    `yaml:"show_resolved"`
	ShowTrackedChanges bool    `yaml:"show_tracked_changes"`
}

// Kind parses the document type.
func (d DocumentConfig) Kind() (doctype.Kind, error) {
	return doctype.Parse(d.Type)
}

// Converter returns the unit converter for the document's zoom.
func (d DocumentConfig) Converter() geom.Converter {
	return geom.NewConverter(d.TilePixels, d.TileTwips, d.DPIScale)
}

// UserConfig identifies the local user.
type UserConfig struct {
	Name string `yaml:"name"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// ConflictConfig selects how edit conflicts are answered.
type ConflictConfig struct {
	Policy string `yaml:"policy"`
}

// JournalConfig controls how long recorded traffic is kept.
type JournalConfig struct {
	// Retention is the age after which entries are pruned. Zero keeps them.
	Retention     time.Duration `yaml:"retention"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// OutputConfig controls terminal rendering.
type OutputConfig struct {
	Theme string `yaml:"theme"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Layout: LayoutConfig{
			CommentWidth:        260,
			CollapsedMargin:     120,
			Deflection:          160,
			DeflectionCollapsed: 180,
			DeflectionExpanded:  70,
			MarginY:             10,
			MinHeight:           100,
			MaxHeight:           300,
			Debounce:            10 * time.Millisecond,
		},
		Document: DocumentConfig{
			Type:       string(doctype.Text),
			DPIScale:   1,
			TilePixels: 256,
			TileTwips:  3840,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
		Conflict: ConflictConfig{
			Policy: string(conflict.PolicyPrompt),
		},
		Journal: JournalConfig{
			Retention:     30 * 24 * time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Output: OutputConfig{
			Theme: styles.DefaultTheme,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			data, err = withIncludes(filepath.Dir(configPath), data)
			if err != nil {
				return nil, err
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	setInt := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	setInt(&c.Layout.CommentWidth, d.Layout.CommentWidth)
	setInt(&c.Layout.CollapsedMargin, d.Layout.CollapsedMargin)
	setInt(&c.Layout.Deflection, d.Layout.Deflection)
	setInt(&c.Layout.DeflectionCollapsed, d.Layout.DeflectionCollapsed)
	setInt(&c.Layout.DeflectionExpanded, d.Layout.DeflectionExpanded)
	setInt(&c.Layout.MarginY, d.Layout.MarginY)
	setInt(&c.Layout.MinHeight, d.Layout.MinHeight)
	setInt(&c.Layout.MaxHeight, d.Layout.MaxHeight)
	setInt(&c.Document.TilePixels, d.Document.TilePixels)
	setInt(&c.Document.TileTwips, d.Document.TileTwips)
	setInt(&c.Database.MaxOpenConns, d.Database.MaxOpenConns)
	setInt(&c.Database.MaxIdleConns, d.Database.MaxIdleConns)
	setInt(&c.Database.BusyTimeout, d.Database.BusyTimeout)

	if c.Layout.Debounce == 0 {
		c.Layout.Debounce = d.Layout.Debounce
	}
	if c.Document.DPIScale == 0 {
		c.Document.DPIScale = d.Document.DPIScale
	}
	if c.Document.Type == "" {
		c.Document.Type = d.Document.Type
	}
	if c.Conflict.Policy == "" {
		c.Conflict.Policy = d.Conflict.Policy
	}
	if c.Journal.SweepInterval == 0 {
		c.Journal.SweepInterval = d.Journal.SweepInterval
	}
	if c.Output.Theme == "" {
		c.Output.Theme = d.Output.Theme
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if _, err := c.Document.Kind(); err != nil {
		return fmt.Errorf("document.type: %w", err)
	}

	if _, err := conflict.ParsePolicy(c.Conflict.Policy); err != nil {
		return fmt.Errorf("conflict.policy: %w", err)
	}

	if _, ok := styles.GetPalette(c.Output.Theme); !ok {
		return fmt.Errorf("output.theme: unknown theme %q (available: %v)", c.Output.Theme, styles.ThemeNames())
	}

	if c.Layout.MinHeight > c.Layout.MaxHeight {
		return fmt.Errorf("layout.min_height (%d) cannot exceed layout.max_height (%d)", c.Layout.MinHeight, c.Layout.MaxHeight)
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}

	return nil
}

// DatabaseFile returns the path of the journal database.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "margin.db")
}
