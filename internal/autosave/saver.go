// Package autosave implements a debounced, retrying, single-slot save queue.
//
// Enqueue stores the payload in one slot (a newer payload replaces an
// unflushed older one) and restarts the debounce timer. When the timer
// fires the slot is drained into the save function. Transient failures are
// retried with linear backoff; conflicts are reported immediately. Failure
// never rolls anything back: the payload stays in the slot for the next
// Flush or Enqueue, and the error shows up in State.
package autosave

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// Defaults used when the config leaves a value unset.
const (
	DefaultDebounce   = 500 * time.Millisecond
	DefaultMaxRetries = 2
	DefaultRetryDelay = 600 * time.Millisecond
)

// StatusConflict is the status code a save error reports for a concurrent,
// incompatible change.
const StatusConflict = 409

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("autosave: saver closed")

// State is the observable status of the pipeline.
type State struct {
	IsSaving    bool
	Dirty       bool
	LastSavedAt time.Time
	Error       string
	Conflict    bool
}

// SaveFunc persists one payload.
type SaveFunc[T any] func(ctx context.Context, payload T) error

// Options configures a Saver. Zero durations are valid and mean "no wait".
type Options[T any] struct {
	Debounce   time.Duration
	MaxRetries int
	RetryDelay time.Duration

	Save SaveFunc[T]

	// OnChange is called after every state transition, outside the lock.
	OnChange func(State)
	Logger   *log.Logger
	Now      func() time.Time
}

// Saver is safe for concurrent use.
type Saver[T any] struct {
	opts Options[T]

	mu      sync.Mutex
	idle    *sync.Cond
	timer   *time.Timer
	gen     uint64 // invalidates timers that were stopped too late
	payload T
	queued  bool
	running bool
	closed  bool
	done    chan struct{}
	state   State
	seq     uint64

	notifyMu  sync.Mutex
	delivered uint64
}

// New creates a Saver. A nil Save function is a wiring bug and panics.
func New[T any](opts Options[T]) *Saver[T] {
	if opts.Save == nil {
		panic("autosave: New called without a Save function")
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Saver[T]{opts: opts, done: make(chan struct{})}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// State returns a snapshot of the current state.
func (s *Saver[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Enqueue marks the pipeline dirty, replaces the pending payload and
// restarts the debounce timer.
func (s *Saver[T]) Enqueue(payload T) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.payload = payload
	s.queued = true
	s.state.Dirty = true
	s.scheduleLocked()
	st, seq := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(st, seq)
}

// ClearError drops the error and conflict flags.
func (s *Saver[T]) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.state.Conflict = false
	st, seq := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(st, seq)
}

// Flush cancels the debounce wait, waits for an in-flight save and then
// saves the pending payload, if any, synchronously. A payload whose last
// save failed is still pending. It returns the error the cycle settled on.
func (s *Saver[T]) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.stopTimerLocked()
	for s.running {
		s.idle.Wait()
	}
	// The finished cycle may have re-armed the timer for our payload.
	s.stopTimerLocked()
	if !s.queued {
		s.mu.Unlock()
		return nil
	}
	payload := s.takeLocked()
	st, seq := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(st, seq)

	return s.cycle(ctx, payload)
}

// Discard drops the pending payload and its debounce timer and marks the
// pipeline clean. It waits for an in-flight save to finish first.
func (s *Saver[T]) Discard() {
	s.mu.Lock()
	s.stopTimerLocked()
	for s.running {
		s.idle.Wait()
	}
	s.stopTimerLocked()
	var zero T
	s.payload = zero
	s.queued = false
	s.state.Dirty = false
	st, seq := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(st, seq)
}

// Close cancels any pending debounce timer and retry wait. An in-flight
// save is left to finish; its result is recorded but not published.
func (s *Saver[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	close(s.done)
}

func (s *Saver[T]) scheduleLocked() {
	s.stopTimerLocked()
	gen := s.gen
	s.timer = time.AfterFunc(s.opts.Debounce, func() { s.fire(gen) })
}

func (s *Saver[T]) stopTimerLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Saver[T]) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if s.running || !s.queued {
		// The running cycle re-arms the timer when it finishes.
		s.mu.Unlock()
		return
	}
	payload := s.takeLocked()
	st, seq := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(st, seq)

	s.cycle(context.Background(), payload)
}

// takeLocked drains the slot and marks a save as in flight.
func (s *Saver[T]) takeLocked() T {
	payload := s.payload
	var zero T
	s.payload = zero
	s.queued = false
	s.running = true
	s.state.IsSaving = true
	s.state.Error = ""
	s.state.Conflict = false
	return payload
}

// cycle saves payload, retrying transient failures, then settles the state
// and re-arms the timer if another payload arrived meanwhile.
func (s *Saver[T]) cycle(ctx context.Context, payload T) error {
	var err error
	attempt := 0
	for {
		err = s.opts.Save(ctx, payload)
		if err == nil {
			break
		}
		conflict := IsConflict(err)
		attempt++
		if conflict {
			s.opts.Logger.Printf("autosave: conflict, not retrying: %v", err)
			break
		}
		if attempt > s.opts.MaxRetries {
			s.opts.Logger.Printf("autosave: giving up after %d attempts: %v", attempt, err)
			break
		}
		delay := s.opts.RetryDelay * time.Duration(attempt)
		s.opts.Logger.Printf("autosave: attempt %d failed, retrying in %s: %v", attempt, delay, err)
		if !s.wait(ctx, delay) {
			break
		}
	}

	s.mu.Lock()
	s.running = false
	s.state.IsSaving = false
	newer := s.queued
	if err == nil {
		s.state.Dirty = newer
		s.state.LastSavedAt = s.opts.Now()
	} else {
		s.state.Error = errorMessage(err)
		s.state.Conflict = IsConflict(err)
		if !newer {
			// Keep the unsaved payload for the next Flush or Enqueue, but
			// do not retry it on a timer.
			s.payload = payload
			s.queued = true
		}
	}
	if newer && !s.closed {
		s.scheduleLocked()
	}
	closed := s.closed
	st, seq := s.snapshotLocked()
	s.idle.Broadcast()
	s.mu.Unlock()

	if !closed {
		s.publish(st, seq)
	}
	return err
}

// wait sleeps for d unless the saver is closed or ctx ends first.
func (s *Saver[T]) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-s.done:
			return false
		default:
			return true
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *Saver[T]) snapshotLocked() (State, uint64) {
	s.seq++
	return s.state, s.seq
}

// publish delivers st unless a newer snapshot was already delivered.
func (s *Saver[T]) publish(st State, seq uint64) {
	if s.opts.OnChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.delivered {
		return
	}
	s.delivered = seq
	s.opts.OnChange(st)
}

type statusCoder interface {
	StatusCode() int
}

// IsConflict reports whether err (or anything it wraps) carries the
// conflict status code.
func IsConflict(err error) bool {
	var sc statusCoder
	return errors.As(err, &sc) && sc.StatusCode() == StatusConflict
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Save failed"
}
