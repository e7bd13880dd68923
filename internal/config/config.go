package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imkarma/gantt/internal/timescale"
)

// Config is the root configuration for a gantt workspace.
type Config struct {
	Version  int      `yaml:"version"`
	Chart    Chart    `yaml:"chart"`
	Autosave Autosave `yaml:"autosave"`
	History  History  `yaml:"history"`
}

// Chart controls the geometry and interaction of the canvas.
type Chart struct {
	Scale           string  `yaml:"scale,omitempty"`             // day, week, sprint, month, quarter
	ContainerWidth  float64 `yaml:"container_width,omitempty"`   // px handed to the time-scale engine
	CellPx          float64 `yaml:"cell_px,omitempty"`           // px per terminal cell
	MaxVisibleTasks int     `yaml:"max_visible_tasks,omitempty"` // 0 = default 200
	ReadOnly        bool    `yaml:"read_only,omitempty"`
	DefaultColor    string  `yaml:"default_color,omitempty"`
}

// Autosave controls the debounced save pipeline.
type Autosave struct {
	DebounceMs   int  `yaml:"debounce_ms,omitempty"`    // 0 = default 500
	MaxRetries   *int `yaml:"max_retries,omitempty"`    // nil = default 2; 0 disables retries
	RetryDelayMs int  `yaml:"retry_delay_ms,omitempty"` // 0 = default 600
}

// History controls the undo stack.
type History struct {
	Limit int `yaml:"limit,omitempty"` // 0 = default 20
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to the given path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns a starter config with every default spelled out.
func DefaultConfig() *Config {
	retries := 2
	return &Config{
		Version: 1,
		Chart: Chart{
			Scale:           string(timescale.Week),
			ContainerWidth:  1200,
			CellPx:          8,
			MaxVisibleTasks: 200,
			DefaultColor:    "#5c7cfa",
		},
		Autosave: Autosave{
			DebounceMs:   500,
			MaxRetries:   &retries,
			RetryDelayMs: 600,
		},
		History: History{Limit: 20},
	}
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidColor reports whether s is a #rgb or #rrggbb color.
func ValidColor(s string) bool { return hexColor.MatchString(s) }

func (c *Config) validate() error {
	if c.Chart.Scale != "" {
		if _, err := timescale.ParseScale(c.Chart.Scale); err != nil {
			return fmt.Errorf("chart.scale: %w", err)
		}
	}
	if c.Chart.ContainerWidth < 0 {
		return fmt.Errorf("chart.container_width must not be negative, got %v", c.Chart.ContainerWidth)
	}
	if c.Chart.CellPx < 0 {
		return fmt.Errorf("chart.cell_px must not be negative, got %v", c.Chart.CellPx)
	}
	if c.Chart.MaxVisibleTasks < 0 {
		return fmt.Errorf("chart.max_visible_tasks must not be negative, got %d", c.Chart.MaxVisibleTasks)
	}
	if c.Chart.DefaultColor != "" && !hexColor.MatchString(c.Chart.DefaultColor) {
		return fmt.Errorf("chart.default_color must be a hex color like #5c7cfa, got %q", c.Chart.DefaultColor)
	}
	if c.Autosave.DebounceMs < 0 {
		return fmt.Errorf("autosave.debounce_ms must not be negative, got %d", c.Autosave.DebounceMs)
	}
	if c.Autosave.MaxRetries != nil && *c.Autosave.MaxRetries < 0 {
		return fmt.Errorf("autosave.max_retries must not be negative, got %d", *c.Autosave.MaxRetries)
	}
	if c.Autosave.RetryDelayMs < 0 {
		return fmt.Errorf("autosave.retry_delay_ms must not be negative, got %d", c.Autosave.RetryDelayMs)
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative, got %d", c.History.Limit)
	}
	return nil
}

// EffectiveScale returns the configured scale or week.
func (c Chart) EffectiveScale() timescale.Scale {
	s, err := timescale.ParseScale(c.Scale)
	if err != nil {
		return timescale.Week
	}
	return s
}

// EffectiveWidth returns the container width in px (default 1200).
func (c Chart) EffectiveWidth() float64 {
	if c.ContainerWidth > 0 {
		return c.ContainerWidth
	}
	return 1200
}

// EffectiveCellPx returns the px per terminal cell (default 8).
func (c Chart) EffectiveCellPx() float64 {
	if c.CellPx > 0 {
		return c.CellPx
	}
	return 8
}

// EffectiveMaxVisible returns the visible task cap (default 200).
func (c Chart) EffectiveMaxVisible() int {
	if c.MaxVisibleTasks > 0 {
		return c.MaxVisibleTasks
	}
	return 200
}

// EffectiveColor returns the fallback bar color.
func (c Chart) EffectiveColor() string {
	if c.DefaultColor != "" {
		return c.DefaultColor
	}
	return "#5c7cfa"
}

// Debounce returns the autosave quiet period (default 500ms).
func (a Autosave) Debounce() time.Duration {
	if a.DebounceMs > 0 {
		return time.Duration(a.DebounceMs) * time.Millisecond
	}
	return 500 * time.Millisecond
}

// Retries returns how many times a failed save is retried (default 2).
func (a Autosave) Retries() int {
	if a.MaxRetries != nil {
		return *a.MaxRetries
	}
	return 2
}

// RetryDelay returns the base backoff delay (default 600ms).
func (a Autosave) RetryDelay() time.Duration {
	if a.RetryDelayMs > 0 {
		return time.Duration(a.RetryDelayMs) * time.Millisecond
	}
	return 600 * time.Millisecond
}

// EffectiveLimit returns the undo stack cap (default 20).
func (h History) EffectiveLimit() int {
	if h.Limit > 0 {
		return h.Limit
	}
	return 20
}
