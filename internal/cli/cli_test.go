package cli

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

// run executes the root command in the current directory and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	taskStart, taskEnd, taskColor, taskResizeStart = "", "", "", false
	chartScale, chartWidth = "", 0
	versionBy = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("gantt %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func initWorkspace(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	mustRun(t, "init")
}

func TestInit(t *testing.T) {
	t.Chdir(t.TempDir())

	out := mustRun(t, "init")
	if !strings.Contains(out, "Initialized gantt") {
		t.Errorf("unexpected output: %s", out)
	}
	for _, f := range []string{".gantt/config.yaml", ".gantt/gantt.db"} {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("expected %s: %v", f, err)
		}
	}

	if _, err := run(t, "init"); err == nil {
		t.Error("second init should fail")
	}
}

func TestRequiresInit(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "project", "list")
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not initialized error, got %v", err)
	}
}

func TestProjectCreateAndList(t *testing.T) {
	initWorkspace(t)

	if out := mustRun(t, "project", "list"); !strings.Contains(out, "No projects") {
		t.Errorf("expected empty listing, got %s", out)
	}
	mustRun(t, "project", "create", "Launch")
	out := mustRun(t, "project", "list")
	if !strings.Contains(out, "Launch") || !strings.Contains(out, "0 tasks") {
		t.Errorf("unexpected listing: %s", out)
	}
}

func TestTaskWorkflow(t *testing.T) {
	initWorkspace(t)
	mustRun(t, "project", "create", "Launch")

	out := mustRun(t, "task", "add", "Launch", "Design", "--start", "2026-02-10", "--end", "2026-02-12")
	if !strings.Contains(out, "2026-02-10 → 2026-02-12") {
		t.Errorf("unexpected add output: %s", out)
	}
	// An end on or before the start is clamped to a one-day milestone.
	out = mustRun(t, "task", "add", "Launch", "Ship", "--start", "2026-02-20", "--end", "2026-02-20")
	if !strings.Contains(out, "2026-02-20 → 2026-02-21") {
		t.Errorf("expected clamped milestone, got: %s", out)
	}

	out = mustRun(t, "task", "move", "Launch", "Design", "3")
	if !strings.Contains(out, "2026-02-13 → 2026-02-15") {
		t.Errorf("unexpected move output: %s", out)
	}

	out = mustRun(t, "task", "resize", "Launch", "Design", "2")
	if !strings.Contains(out, "2026-02-13 → 2026-02-17") {
		t.Errorf("unexpected resize output: %s", out)
	}

	// Shrinking past the start clamps to one day.
	out = mustRun(t, "task", "resize", "Launch", "Design", "--", "-10")
	if !strings.Contains(out, "2026-02-13 → 2026-02-14") {
		t.Errorf("expected clamp, got: %s", out)
	}

	if _, err := run(t, "task", "resize", "Launch", "Ship", "1", "--start"); err == nil {
		t.Error("resizing a milestone's start should fail")
	}

	out = mustRun(t, "task", "list", "Launch")
	if !strings.Contains(out, "Design") || !strings.Contains(out, "Ship") || !strings.Contains(out, "◆") {
		t.Errorf("unexpected list: %s", out)
	}

	mustRun(t, "task", "rm", "Launch", "Ship")
	out = mustRun(t, "task", "list", "Launch")
	if strings.Contains(out, "Ship") {
		t.Errorf("Ship should be gone: %s", out)
	}

	out = mustRun(t, "log", "Launch")
	if !strings.Contains(out, "created") || !strings.Contains(out, "saved") {
		t.Errorf("expected created and saved events: %s", out)
	}
}

func TestTaskAddValidation(t *testing.T) {
	initWorkspace(t)
	mustRun(t, "project", "create", "Launch")

	cases := [][]string{
		{"task", "add", "Launch", "X", "--start", "2026-13-01", "--end", "2026-02-12"},
		{"task", "add", "Launch", "X", "--start", "2026-02-10", "--end", "soon"},
		{"task", "add", "Launch", "X", "--start", "2026-02-10", "--end", "2026-02-12", "--color", "blue"},
		{"task", "add", "Nope", "X", "--start", "2026-02-10", "--end", "2026-02-12"},
	}
	for _, args := range cases {
		if _, err := run(t, args...); err == nil {
			t.Errorf("gantt %s should fail", strings.Join(args, " "))
		}
	}
	if _, err := run(t, "task", "move", "Launch", "Missing", "1"); err == nil {
		t.Error("moving an unknown task should fail")
	}
}

func TestVersionWorkflow(t *testing.T) {
	initWorkspace(t)
	mustRun(t, "project", "create", "Launch")
	mustRun(t, "task", "add", "Launch", "Design", "--start", "2026-02-10", "--end", "2026-02-12")

	out := mustRun(t, "version", "create", "Launch", "--by", "ana")
	if !strings.Contains(out, "Saved version 1 (1 tasks)") {
		t.Errorf("unexpected output: %s", out)
	}

	mustRun(t, "task", "add", "Launch", "Build", "--start", "2026-02-12", "--end", "2026-02-19")
	out = mustRun(t, "version", "list", "Launch")
	if !strings.Contains(out, "v1") || !strings.Contains(out, "ana") {
		t.Errorf("unexpected versions: %s", out)
	}

	mustRun(t, "version", "restore", "Launch", "1")
	out = mustRun(t, "task", "list", "Launch")
	if strings.Contains(out, "Build") || !strings.Contains(out, "Design") {
		t.Errorf("restore should bring back version 1: %s", out)
	}

	if _, err := run(t, "version", "restore", "Launch", "9"); err == nil {
		t.Error("restoring a missing version should fail")
	}
}

func TestChart(t *testing.T) {
	initWorkspace(t)
	mustRun(t, "project", "create", "Launch")
	mustRun(t, "task", "add", "Launch", "Design", "--start", "2026-02-10", "--end", "2026-02-12")

	out := mustRun(t, "chart", "Launch", "--scale", "day")
	if !strings.Contains(out, "· 1 tasks · day") || !strings.Contains(out, "Design") {
		t.Errorf("unexpected chart: %s", out)
	}

	if _, err := run(t, "chart", "Launch", "--scale", "fortnight"); err == nil {
		t.Error("unknown scale should fail")
	}
}
