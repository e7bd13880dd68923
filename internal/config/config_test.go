package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/imkarma/gantt/internal/timescale"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Valid(t *testing.T) {
	p := writeConfig(t, `version: 1
chart:
  scale: day
  container_width: 900
  cell_px: 4
  max_visible_tasks: 50
  read_only: true
  default_color: "#ff7a59"
autosave:
  debounce_ms: 250
  max_retries: 0
  retry_delay_ms: 100
history:
  limit: 5
`)

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Chart.EffectiveScale() != timescale.Day {
		t.Fatalf("expected day scale, got %s", cfg.Chart.EffectiveScale())
	}
	if cfg.Chart.EffectiveWidth() != 900 || cfg.Chart.EffectiveCellPx() != 4 {
		t.Fatalf("unexpected geometry %+v", cfg.Chart)
	}
	if !cfg.Chart.ReadOnly {
		t.Fatal("expected read_only to be true")
	}
	if cfg.Chart.EffectiveMaxVisible() != 50 || cfg.Chart.EffectiveColor() != "#ff7a59" {
		t.Fatalf("unexpected chart %+v", cfg.Chart)
	}
	if cfg.Autosave.Debounce() != 250*time.Millisecond {
		t.Fatalf("expected 250ms debounce, got %s", cfg.Autosave.Debounce())
	}
	if cfg.Autosave.Retries() != 0 {
		t.Fatalf("explicit max_retries 0 must be kept, got %d", cfg.Autosave.Retries())
	}
	if cfg.Autosave.RetryDelay() != 100*time.Millisecond {
		t.Fatalf("expected 100ms retry delay, got %s", cfg.Autosave.RetryDelay())
	}
	if cfg.History.EffectiveLimit() != 5 {
		t.Fatalf("expected history limit 5, got %d", cfg.History.EffectiveLimit())
	}
}

func TestLoad_EmptyUsesDefaults(t *testing.T) {
	p := writeConfig(t, "version: 1\n")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Chart.EffectiveScale() != timescale.Week {
		t.Errorf("expected week, got %s", cfg.Chart.EffectiveScale())
	}
	if cfg.Chart.EffectiveWidth() != 1200 || cfg.Chart.EffectiveCellPx() != 8 {
		t.Errorf("unexpected geometry defaults")
	}
	if cfg.Chart.EffectiveMaxVisible() != 200 || cfg.Chart.EffectiveColor() != "#5c7cfa" {
		t.Errorf("unexpected chart defaults")
	}
	if cfg.Autosave.Debounce() != 500*time.Millisecond || cfg.Autosave.Retries() != 2 || cfg.Autosave.RetryDelay() != 600*time.Millisecond {
		t.Errorf("unexpected autosave defaults %+v", cfg.Autosave)
	}
	if cfg.History.EffectiveLimit() != 20 {
		t.Errorf("expected history limit 20, got %d", cfg.History.EffectiveLimit())
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown scale":     "chart:\n  scale: fortnight\n",
		"negative width":    "chart:\n  container_width: -1\n",
		"negative cap":      "chart:\n  max_visible_tasks: -3\n",
		"bad color":         "chart:\n  default_color: blue\n",
		"negative debounce": "autosave:\n  debounce_ms: -5\n",
		"negative retries":  "autosave:\n  max_retries: -1\n",
		"negative history":  "history:\n  limit: -1\n",
		"not yaml":          "chart: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSave_And_Reload(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Chart.Scale = "quarter"
	if err := Save(p, cfg); err != nil {
		t.Fatalf("save error: %v", err)
	}

	loaded, err := Load(p)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if loaded.Chart.EffectiveScale() != timescale.Quarter {
		t.Fatalf("expected quarter, got %s", loaded.Chart.EffectiveScale())
	}
	if loaded.Autosave.Retries() != 2 || loaded.History.EffectiveLimit() != 20 {
		t.Fatalf("defaults lost on round trip: %+v", loaded)
	}
}

func TestValidColor(t *testing.T) {
	for _, c := range []string{"#fff", "#5c7cfa", "#ABCDEF"} {
		if !ValidColor(c) {
			t.Errorf("%s should be valid", c)
		}
	}
	for _, c := range []string{"", "fff", "#ffff", "#gggggg", "red"} {
		if ValidColor(c) {
			t.Errorf("%q should be invalid", c)
		}
	}
}
