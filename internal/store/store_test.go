package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/imkarma/gantt/internal/calendar"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTasks(projectID string) []Task {
	return []Task{
		{ID: "t1", ProjectID: projectID, Name: "Design", StartDate: calendar.MustParse("2026-02-10"), EndDate: calendar.MustParse("2026-02-12"), Color: "#ff7a59", Position: 1},
		{ID: "t2", ProjectID: projectID, Name: "Build", StartDate: calendar.MustParse("2026-02-12"), EndDate: calendar.MustParse("2026-02-20"), Position: 2},
	}
}

func TestNew_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file not created")
	}
}

func TestCreateProject(t *testing.T) {
	s := testStore(t)

	p, err := s.CreateProject("Launch")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected generated id")
	}
	if p.Revision != 0 {
		t.Errorf("expected revision 0, got %d", p.Revision)
	}

	got, err := s.GetProject(p.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Name != "Launch" {
		t.Errorf("expected name Launch, got %q", got.Name)
	}

	events, _ := s.GetEvents(p.ID)
	if len(events) != 1 || events[0].Type != "created" {
		t.Errorf("expected one created event, got %+v", events)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetProject("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindProject(t *testing.T) {
	s := testStore(t)
	a, _ := s.CreateProject("Alpha")
	s.CreateProject("Beta")

	got, err := s.FindProject("Alpha")
	if err != nil || got.ID != a.ID {
		t.Fatalf("find by name: %v %+v", err, got)
	}
	got, err = s.FindProject(a.ID[:8])
	if err != nil || got.ID != a.ID {
		t.Fatalf("find by prefix: %v %+v", err, got)
	}
	if _, err := s.FindProject("Gamma"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	s.CreateProject("Alpha")
	if _, err := s.FindProject("Alpha"); err == nil {
		t.Fatal("expected ambiguity error for duplicate names")
	}
}

func TestReplaceTasks_RoundTrip(t *testing.T) {
	s := testStore(t)
	p, _ := s.CreateProject("Launch")

	rev, err := s.ReplaceTasks(context.Background(), p.ID, 0, sampleTasks(p.ID))
	if err != nil {
		t.Fatalf("ReplaceTasks: %v", err)
	}
	if rev != 1 {
		t.Fatalf("expected revision 1, got %d", rev)
	}

	tasks, err := s.ListTasks(p.ID)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Name != "Design" || tasks[0].StartDate != calendar.MustParse("2026-02-10") {
		t.Errorf("unexpected first task %+v", tasks[0])
	}
	if tasks[1].Color != "" || tasks[1].DisplayColor() != DefaultColor {
		t.Errorf("expected default color fallback, got %q", tasks[1].DisplayColor())
	}
}

func TestReplaceTasks_OrdersByPosition(t *testing.T) {
	s := testStore(t)
	p, _ := s.CreateProject("Launch")
	tasks := sampleTasks(p.ID)
	tasks[0].Position = 10

	if _, err := s.ReplaceTasks(context.Background(), p.ID, 0, tasks); err != nil {
		t.Fatalf("ReplaceTasks: %v", err)
	}
	got, _ := s.ListTasks(p.ID)
	if got[0].ID != "t2" {
		t.Fatalf("expected t2 first, got %s", got[0].ID)
	}
}

func TestReplaceTasks_StaleRevisionConflicts(t *testing.T) {
	s := testStore(t)
	p, _ := s.CreateProject("Launch")
	ctx := context.Background()

	if _, err := s.ReplaceTasks(ctx, p.ID, 0, sampleTasks(p.ID)); err != nil {
		t.Fatalf("first save: %v", err)
	}

	_, err := s.ReplaceTasks(ctx, p.ID, 0, sampleTasks(p.ID)[:1])
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.StatusCode() != 409 || conflict.Actual != 1 {
		t.Errorf("unexpected conflict %+v", conflict)
	}

	tasks, _ := s.ListTasks(p.ID)
	if len(tasks) != 2 {
		t.Fatalf("conflicting save must not modify tasks, got %d", len(tasks))
	}
}

func TestReplaceTasks_UnknownProject(t *testing.T) {
	s := testStore(t)
	_, err := s.ReplaceTasks(context.Background(), "nope", 0, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVersions(t *testing.T) {
	s := testStore(t)
	p, _ := s.CreateProject("Launch")

	v1, err := s.CreateVersion(p.ID, "alice", sampleTasks(p.ID))
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	v2, err := s.CreateVersion(p.ID, "alice", nil)
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if v1.VersionNumber != 1 || v2.VersionNumber != 2 {
		t.Fatalf("expected versions 1 and 2, got %d and %d", v1.VersionNumber, v2.VersionNumber)
	}

	list, err := s.ListVersions(p.ID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(list) != 2 || list[0].VersionNumber != 2 {
		t.Fatalf("expected newest first, got %+v", list)
	}

	got, err := s.GetVersion(p.ID, 1)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if len(got.Tasks) != 2 || got.Tasks[1].EndDate != calendar.MustParse("2026-02-20") {
		t.Fatalf("snapshot not restored: %+v", got.Tasks)
	}

	if _, err := s.GetVersion(p.ID, 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskPatch_Apply(t *testing.T) {
	task := sampleTasks("p")[0]
	name := "Design v2"
	patch := DatePatch(calendar.MustParse("2026-02-13"), calendar.MustParse("2026-02-15"))
	patch.Name = &name

	got := patch.Apply(task)
	if got.Name != name || got.StartDate.String() != "2026-02-13" || got.EndDate.String() != "2026-02-15" {
		t.Fatalf("unexpected patched task %+v", got)
	}
	if task.Name != "Design" {
		t.Fatal("Apply must not modify the original")
	}
	if !(TaskPatch{}).IsEmpty() || patch.IsEmpty() {
		t.Fatal("IsEmpty wrong")
	}
}
