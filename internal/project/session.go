package project

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/imkarma/gantt/internal/autosave"
	"github.com/imkarma/gantt/internal/config"
	"github.com/imkarma/gantt/internal/store"
)

// Session is one open project: its editor, the autosave pipeline behind it
// and the revision the next save is based on. Several sessions can coexist.
type Session struct {
	store   *store.Store
	project store.Project
	editor  *Editor
	saver   *autosave.Saver[[]store.Task]
	states  chan autosave.State
	logger  *log.Logger

	mu       sync.Mutex
	revision int64
}

// Open loads a project and wires an editor to a store-backed saver.
func Open(st *store.Store, projectID string, cfg *config.Config, logger *log.Logger) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}
	p, err := st.GetProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}
	tasks, err := st.ListTasks(p.ID)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	s := &Session{
		store:    st,
		project:  *p,
		revision: p.Revision,
		states:   make(chan autosave.State, 1),
		logger:   logger,
	}
	s.saver = autosave.New(autosave.Options[[]store.Task]{
		Debounce:   cfg.Autosave.Debounce(),
		MaxRetries: cfg.Autosave.Retries(),
		RetryDelay: cfg.Autosave.RetryDelay(),
		Save:       s.save,
		OnChange:   s.publish,
		Logger:     logger,
	})
	s.editor = NewEditor(s.saver, Options{
		ProjectID:    p.ID,
		HistoryLimit: cfg.History.EffectiveLimit(),
	})
	s.editor.SetTasks(tasks)
	return s, nil
}

// Project returns the project as loaded.
func (s *Session) Project() store.Project { return s.project }

// Editor returns the project's editor.
func (s *Session) Editor() *Editor { return s.editor }

// SaveState returns the autosave state.
func (s *Session) SaveState() autosave.State { return s.saver.State() }

// States delivers autosave state changes. Only the latest undelivered
// state is kept.
func (s *Session) States() <-chan autosave.State { return s.states }

func (s *Session) publish(st autosave.State) {
	for {
		select {
		case s.states <- st:
			return
		default:
		}
		select {
		case <-s.states:
		default:
		}
	}
}

func (s *Session) save(ctx context.Context, tasks []store.Task) error {
	s.mu.Lock()
	expected := s.revision
	s.mu.Unlock()

	next, err := s.store.ReplaceTasks(ctx, s.project.ID, expected, tasks)
	if err != nil {
		if autosave.IsConflict(err) {
			s.store.AddEvent(s.project.ID, "conflict", err.Error())
		}
		return err
	}

	s.mu.Lock()
	s.revision = next
	s.mu.Unlock()
	s.store.AddEvent(s.project.ID, "saved", fmt.Sprintf("Revision %d (%d tasks)", next, len(tasks)))
	return nil
}

// Reload refetches the task list and revision, dropping local history, any
// pending save and any save error. It is how a conflict is resolved in
// favour of the store.
func (s *Session) Reload(ctx context.Context) error {
	s.saver.Discard()
	p, err := s.store.GetProject(s.project.ID)
	if err != nil {
		return fmt.Errorf("reload project: %w", err)
	}
	tasks, err := s.store.ListTasks(p.ID)
	if err != nil {
		return fmt.Errorf("reload tasks: %w", err)
	}
	s.mu.Lock()
	s.revision = p.Revision
	s.mu.Unlock()
	s.project = *p
	s.editor.SetTasks(tasks)
	s.saver.ClearError()
	return nil
}

// Flush saves any pending edit now.
func (s *Session) Flush(ctx context.Context) error {
	return s.saver.Flush(ctx)
}

// Close flushes pending edits and stops the pipeline.
func (s *Session) Close(ctx context.Context) error {
	err := s.saver.Flush(ctx)
	s.saver.Close()
	if err != nil {
		return fmt.Errorf("save on close: %w", err)
	}
	return nil
}

// CreateVersion snapshots the current task list.
func (s *Session) CreateVersion(createdBy string) (*store.Version, error) {
	return s.store.CreateVersion(s.project.ID, createdBy, s.editor.Tasks())
}

// Versions lists the project's versions, newest first.
func (s *Session) Versions() ([]store.Version, error) {
	return s.store.ListVersions(s.project.ID)
}

// RestoreVersion applies a stored snapshot as an undoable, autosaved edit.
func (s *Session) RestoreVersion(number int) (*store.Version, error) {
	v, err := s.store.GetVersion(s.project.ID, number)
	if err != nil {
		return nil, err
	}
	s.editor.ReplaceAll(v.Tasks)
	s.store.AddEvent(s.project.ID, "restored", fmt.Sprintf("Restored version %d", number))
	return v, nil
}

// RequestExport records an export request for an external renderer.
func (s *Session) RequestExport(format string) {
	s.store.AddEvent(s.project.ID, "export_requested", format)
	s.logger.Printf("export requested: project=%s format=%s", s.project.ID, format)
}
