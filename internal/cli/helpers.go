package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/imkarma/gantt/internal/config"
	"github.com/imkarma/gantt/internal/project"
	"github.com/imkarma/gantt/internal/store"
	"github.com/imkarma/gantt/internal/timescale"
)

const ganttDirName = ".gantt"

// ANSI color codes for plain listings.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// ganttPath returns the path to a file inside .gantt/.
func ganttPath(parts ...string) string {
	elems := append([]string{ganttDirName}, parts...)
	return filepath.Join(elems...)
}

// mustStore opens the store, returning an error if gantt is not initialized.
func mustStore() (*store.Store, error) {
	dbPath := ganttPath("gantt.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("gantt not initialized. Run: gantt init")
	}
	return openStore(dbPath)
}

// openStore opens or creates the SQLite store at the given path.
func openStore(dbPath string) (*store.Store, error) {
	return store.New(dbPath)
}

// loadConfig reads .gantt/config.yaml, falling back to defaults when the
// file is missing.
func loadConfig() (*config.Config, error) {
	path := ganttPath("config.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

// openSession resolves a project reference and opens an editing session.
func openSession(s *store.Store, ref string, cfg *config.Config) (*project.Session, error) {
	p, err := s.FindProject(ref)
	if err != nil {
		return nil, err
	}
	return project.Open(s, p.ID, cfg, nil)
}

// findTask resolves ref as an exact ID, a unique name, or a unique ID prefix.
func findTask(tasks []store.Task, ref string) (store.Task, error) {
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
	}
	var matches []store.Task
	for _, t := range tasks {
		if t.Name == ref {
			matches = append(matches, t)
		}
	}
	if len(matches) == 0 && ref != "" {
		for _, t := range tasks {
			if strings.HasPrefix(t.ID, ref) {
				matches = append(matches, t)
			}
		}
	}
	switch len(matches) {
	case 0:
		return store.Task{}, fmt.Errorf("task %q: %w", ref, store.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return store.Task{}, fmt.Errorf("task %q is ambiguous, use its id", ref)
	}
}

// shortID trims a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printTask(w io.Writer, t store.Task) {
	days := timescale.DurationDays(t.StartDate, t.EndDate)
	marker := " "
	if timescale.IsMilestone(t.StartDate, t.EndDate) {
		marker = "◆"
	}
	fmt.Fprintf(w, "%s%-8s%s %s %-28s %s → %s  %3dd\n",
		colorCyan, shortID(t.ID), colorReset, marker, t.Name, t.StartDate, t.EndDate, days)
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}
