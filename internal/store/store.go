package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a project, task or version does not exist.
var ErrNotFound = errors.New("not found")

// ConflictError reports that a save was based on a stale revision.
type ConflictError struct {
	ProjectID string
	Expected  int64
	Actual    int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("project %s was changed elsewhere (revision %d, expected %d)", e.ProjectID, e.Actual, e.Expected)
}

// StatusCode lets callers treat the error like an HTTP 409.
func (e *ConflictError) StatusCode() int { return 409 }

// Store provides access to the gantt database.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at the given path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode so the TUI and one-shot commands can share the file.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		revision    INTEGER NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id),
		name        TEXT NOT NULL,
		start_date  TEXT NOT NULL,
		end_date    TEXT NOT NULL,
		color       TEXT DEFAULT '',
		position    INTEGER NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);

	CREATE TABLE IF NOT EXISTS versions (
		id              TEXT PRIMARY KEY,
		project_id      TEXT NOT NULL REFERENCES projects(id),
		version_number  INTEGER NOT NULL,
		snapshot        TEXT NOT NULL,
		created_by      TEXT DEFAULT '',
		created_at      DATETIME NOT NULL,
		UNIQUE(project_id, version_number)
	);

	CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id  TEXT NOT NULL REFERENCES projects(id),
		event_type  TEXT NOT NULL,
		content     TEXT DEFAULT '',
		timestamp   DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// --- Projects ---

// CreateProject inserts a new project and returns it.
func (s *Store) CreateProject(name string) (*Project, error) {
	now := time.Now().UTC()
	p := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, revision, created_at, updated_at) VALUES (?, ?, 0, ?, ?)`,
		p.ID, p.Name, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	s.AddEvent(p.ID, "created", fmt.Sprintf("Project created: %s", name))
	return p, nil
}

const projectColumns = `id, name, revision, created_at, updated_at`

// GetProject returns a project by ID.
func (s *Store) GetProject(id string) (*Project, error) {
	row := s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Revision, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects, oldest first.
func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Revision, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// FindProject resolves ref as an exact ID, an exact name, or a unique ID
// prefix, in that order.
func (s *Store) FindProject(ref string) (*Project, error) {
	projects, err := s.ListProjects()
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].ID == ref {
			return &projects[i], nil
		}
	}
	var byName []*Project
	for i := range projects {
		if projects[i].Name == ref {
			byName = append(byName, &projects[i])
		}
	}
	if len(byName) == 1 {
		return byName[0], nil
	}
	if len(byName) > 1 {
		return nil, fmt.Errorf("project name %q is ambiguous, use its id", ref)
	}
	var byPrefix []*Project
	for i := range projects {
		if ref != "" && strings.HasPrefix(projects[i].ID, ref) {
			byPrefix = append(byPrefix, &projects[i])
		}
	}
	switch len(byPrefix) {
	case 0:
		return nil, fmt.Errorf("project %q: %w", ref, ErrNotFound)
	case 1:
		return byPrefix[0], nil
	default:
		return nil, fmt.Errorf("project id prefix %q is ambiguous", ref)
	}
}

// --- Tasks ---

// taskColumns is the standard column list for task queries.
const taskColumns = `id, project_id, name, start_date, end_date, color, position, created_at`

// ListTasks returns a project's tasks in display order.
func (s *Store) ListTasks(projectID string) ([]Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY position, created_at, id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var color sql.NullString
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &t.StartDate, &t.EndDate, &color, &t.Position, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Color = color.String
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ReplaceTasks stores tasks as the complete task list of a project, provided
// the project is still at expectedRevision. It returns the new revision, or
// a *ConflictError when someone else saved in between.
func (s *Store) ReplaceTasks(ctx context.Context, projectID string, expectedRevision int64, tasks []Task) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx, `SELECT revision FROM projects WHERE id = ?`, projectID).Scan(&current)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("read revision: %w", err)
	}
	if current != expectedRevision {
		return 0, &ConflictError{ProjectID: projectID, Expected: expectedRevision, Actual: current}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, projectID); err != nil {
		return 0, fmt.Errorf("clear tasks: %w", err)
	}

	now := time.Now().UTC()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, projectID, t.Name, t.StartDate, t.EndDate, t.Color, t.Position, t.CreatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}

	next := current + 1
	if _, err := tx.ExecContext(ctx,
		`UPDATE projects SET revision = ?, updated_at = ? WHERE id = ?`,
		next, now, projectID,
	); err != nil {
		return 0, fmt.Errorf("bump revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save: %w", err)
	}
	return next, nil
}

// --- Versions ---

// CreateVersion snapshots tasks as the next version of a project. Two
// writers racing for the same number is retried a few times.
func (s *Store) CreateVersion(projectID, createdBy string, tasks []Task) (*Version, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	snapshot, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		var latest sql.NullInt64
		if err := s.db.QueryRow(
			`SELECT MAX(version_number) FROM versions WHERE project_id = ?`, projectID,
		).Scan(&latest); err != nil {
			return nil, fmt.Errorf("read latest version: %w", err)
		}

		v := &Version{
			ID:            uuid.NewString(),
			ProjectID:     projectID,
			VersionNumber: int(latest.Int64) + 1,
			Tasks:         tasks,
			CreatedBy:     createdBy,
			CreatedAt:     time.Now().UTC(),
		}
		_, err := s.db.Exec(
			`INSERT INTO versions (id, project_id, version_number, snapshot, created_by, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			v.ID, v.ProjectID, v.VersionNumber, string(snapshot), v.CreatedBy, v.CreatedAt,
		)
		if err == nil {
			s.AddEvent(projectID, "version", fmt.Sprintf("Version %d created (%d tasks)", v.VersionNumber, len(tasks)))
			return v, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("insert version: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("create version after retries: %w", lastErr)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

// ListVersions returns a project's versions, newest first.
func (s *Store) ListVersions(projectID string) ([]Version, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, version_number, snapshot, created_by, created_at
		 FROM versions WHERE project_id = ? ORDER BY version_number DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// GetVersion returns one version of a project by number.
func (s *Store) GetVersion(projectID string, number int) (*Version, error) {
	row := s.db.QueryRow(
		`SELECT id, project_id, version_number, snapshot, created_by, created_at
		 FROM versions WHERE project_id = ? AND version_number = ?`,
		projectID, number,
	)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("version %d: %w", number, ErrNotFound)
	}
	return v, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(row scanner) (*Version, error) {
	var v Version
	var snapshot string
	var createdBy sql.NullString
	if err := row.Scan(&v.ID, &v.ProjectID, &v.VersionNumber, &snapshot, &createdBy, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan version: %w", err)
	}
	v.CreatedBy = createdBy.String
	if err := json.Unmarshal([]byte(snapshot), &v.Tasks); err != nil {
		return nil, fmt.Errorf("decode snapshot of version %d: %w", v.VersionNumber, err)
	}
	return &v, nil
}

// --- Events ---

// AddEvent records an event for a project. Failures are ignored; the event
// log is informational.
func (s *Store) AddEvent(projectID, eventType, content string) {
	now := time.Now().UTC()
	s.db.Exec(
		`INSERT INTO events (project_id, event_type, content, timestamp) VALUES (?, ?, ?, ?)`,
		projectID, eventType, content, now,
	)
}

// GetEvents returns all events for a project, oldest first.
func (s *Store) GetEvents(projectID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, event_type, content, timestamp FROM events WHERE project_id = ? ORDER BY timestamp, id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Type, &e.Content, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
