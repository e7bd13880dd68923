package canvas

import (
	"fmt"
	"testing"

	"github.com/imkarma/gantt/internal/calendar"
	"github.com/imkarma/gantt/internal/store"
)

type update struct {
	id    string
	patch store.TaskPatch
}

type harness struct {
	c         *Canvas
	updates   []update
	deleted   []string
	selected  []string
	announced []string
	exported  []string
}

func newHarness(readOnly bool, limit int) *harness {
	h := &harness{}
	h.c = New(Options{
		ReadOnly:        readOnly,
		MaxVisibleTasks: limit,
		OnUpdate:        func(id string, p store.TaskPatch) { h.updates = append(h.updates, update{id, p}) },
		OnDelete:        func(id string) { h.deleted = append(h.deleted, id) },
		OnSelect:        func(id string) { h.selected = append(h.selected, id) },
		OnExport:        func(f string) { h.exported = append(h.exported, f) },
		Announce:        func(m string) { h.announced = append(h.announced, m) },
	})
	return h
}

func tasks() []store.Task {
	return []store.Task{
		{ID: "t1", Name: "Design", StartDate: calendar.MustParse("2026-02-10"), EndDate: calendar.MustParse("2026-02-12")},
		{ID: "t2", Name: "Build", StartDate: calendar.MustParse("2026-02-12"), EndDate: calendar.MustParse("2026-02-20")},
		{ID: "m1", Name: "Launch", StartDate: calendar.MustParse("2026-02-20"), EndDate: calendar.MustParse("2026-02-21")},
	}
}

func dates(t *testing.T, p store.TaskPatch) (string, string) {
	t.Helper()
	var s, e string
	if p.StartDate != nil {
		s = p.StartDate.String()
	}
	if p.EndDate != nil {
		e = p.EndDate.String()
	}
	return s, e
}

func TestDrag_MoveThreeDays(t *testing.T) {
	h := newHarness(false, 0)
	h.c.Sync(tasks(), 32)

	if !h.c.PointerDown("t1", Move, 100) {
		t.Fatal("pointer down refused")
	}
	if _, ok := h.c.PointerMove(100 + 3*32); !ok {
		t.Fatal("expected an update")
	}
	if len(h.updates) != 1 || h.updates[0].id != "t1" {
		t.Fatalf("unexpected updates %+v", h.updates)
	}
	s, e := dates(t, h.updates[0].patch)
	if s != "2026-02-13" || e != "2026-02-15" {
		t.Fatalf("expected 2026-02-13..2026-02-15, got %s..%s", s, e)
	}
}

func TestDrag_RelativeToOrigin(t *testing.T) {
	h := newHarness(false, 0)
	h.c.Sync(tasks(), 10)
	h.c.PointerDown("t1", Move, 0)

	h.c.PointerMove(10)
	h.c.PointerMove(20)
	h.c.PointerMove(30)

	if len(h.updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(h.updates))
	}
	s, _ := dates(t, h.updates[2].patch)
	if s != "2026-02-13" {
		t.Fatalf("moves must not accumulate, got start %s", s)
	}
}

func TestDrag_SubDayJitterEmitsNothing(t *testing.T) {
	h := newHarness(false, 0)
	h.c.Sync(tasks(), 32)
	h.c.PointerDown("t2", Move, 50)

	for _, x := range []float64{51, 60, 65, 35} {
		if _, ok := h.c.PointerMove(x); ok {
			t.Fatalf("x=%v should not emit", x)
		}
	}
	if len(h.updates) != 0 {
		t.Fatalf("expected no updates, got %d", len(h.updates))
	}
}

func TestDrag_ResizeEndClamps(t *testing.T) {
	h := newHarness(false, 0)
	h.c.Sync(tasks(), 20)
	h.c.PointerDown("t1", ResizeEnd, 200)

	// Five days left of the end, well before the start.
	h.c.PointerMove(100)

	s, e := dates(t, h.updates[0].patch)
	if s != "" {
		t.Errorf("resize-end must not set start, got %s", s)
	}
	if e != "2026-02-11" {
		t.Fatalf("expected end clamped to 2026-02-11, got %s", e)
	}
}

func TestDrag_ResizeStartPastEnd(t *testing.T) {
	h := newHarness(false, 0)
	h.c.Sync(tasks(), 20)
	h.c.PointerDown("t1", ResizeStart, 0)
	h.c.PointerMove(100)

	s, e := dates(t, h.updates[0].patch)
	if s != "2026-02-15" || e != "2026-02-16" {
		t.Fatalf("expected 2026-02-15..2026-02-16, got %s..%s", s, e)
	}
}

func TestDrag_EveryUpdateKeepsStartBeforeEnd(t *testing.T) {
	for _, mode := range []Mode{Move, ResizeStart, ResizeEnd} {
		h := newHarness(false, 0)
		h.c.Sync(tasks(), 8)
		h.c.PointerDown("t2", mode, 400)
		for x := 0.0; x <= 800; x += 7 {
			h.c.PointerMove(x)
		}
		for _, u := range h.updates {
			start, end := tasks()[1].StartDate, tasks()[1].EndDate
			if u.patch.StartDate != nil {
				start = *u.patch.StartDate
			}
			if u.patch.EndDate != nil {
				end = *u.patch.EndDate
			}
			if !start.Before(end) {
				t.Fatalf("%s: emitted %s..%s", mode, start, end)
			}
		}
	}
}

func TestDrag_SessionLifecycle(t *testing.T) {
	h := newHarness(false, 0)
	h.c.Sync(tasks(), 10)

	h.c.PointerDown("t1", Move, 0)
	if h.c.PointerDown("t2", Move, 0) {
		t.Fatal("second drag must be refused while one is active")
	}
	sess, ok := h.c.Session()
	if !ok || sess.TaskID != "t1" || sess.Mode != Move {
		t.Fatalf("unexpected session %+v", sess)
	}

	h.c.PointerMove(30)
	h.c.PointerLeave()
	if _, ok := h.c.Session(); ok {
		t.Fatal("pointer leave must end the session")
	}
	if _, ok := h.c.PointerMove(60); ok {
		t.Fatal("moves after leave must be ignored")
	}
	if len(h.updates) != 1 {
		t.Fatalf("expected the one update before leave, got %d", len(h.updates))
	}

	h.c.PointerDown("t2", Move, 0)
	h.c.PointerUp()
	if _, ok := h.c.Session(); ok {
		t.Fatal("pointer up must end the session")
	}
}

func TestDrag_MilestoneMoveOnly(t *testing.T) {
	h := newHarness(false, 0)
	h.c.Sync(tasks(), 10)

	if h.c.PointerDown("m1", ResizeEnd, 0) || h.c.PointerDown("m1", ResizeStart, 0) {
		t.Fatal("milestones must not be resizable")
	}
	if !h.c.PointerDown("m1", Move, 0) {
		t.Fatal("milestones must be movable")
	}
}

func TestReadOnly_NeverCallsBack(t *testing.T) {
	h := newHarness(true, 0)
	h.c.Sync(tasks(), 10)

	for _, mode := range []Mode{Move, ResizeStart, ResizeEnd} {
		if h.c.PointerDown("t1", mode, 0) {
			t.Fatalf("%s accepted in read-only mode", mode)
		}
		h.c.PointerMove(100)
		h.c.PointerUp()
	}
	h.c.KeyDown(KeyDown)
	h.c.KeyDown(KeyDelete)
	h.c.Nudge(Move, 1)

	if len(h.updates) != 0 || len(h.deleted) != 0 {
		t.Fatalf("read-only canvas emitted updates=%v deleted=%v", h.updates, h.deleted)
	}
	if h.c.Selected() != "t1" {
		t.Fatalf("selection should still work in read-only mode, got %q", h.c.Selected())
	}
}

func TestKeyboard_SelectionClampsAndAnnounces(t *testing.T) {
	h := newHarness(false, 0)
	h.c.Sync(tasks(), 10)

	h.c.KeyDown(KeyUp)
	if h.c.Selected() != "t1" {
		t.Fatalf("expected t1, got %q", h.c.Selected())
	}
	h.c.KeyDown(KeyDown)
	h.c.KeyDown(KeyDown)
	h.c.KeyDown(KeyDown)
	if h.c.Selected() != "m1" {
		t.Fatalf("expected clamp at m1, got %q", h.c.Selected())
	}
	h.c.KeyDown(KeyUp)
	if h.c.Selected() != "t2" {
		t.Fatalf("expected t2, got %q", h.c.Selected())
	}

	want := []string{"Selected Design", "Selected Build", "Selected Launch", "Selected Build"}
	if fmt.Sprint(h.announced) != fmt.Sprint(want) {
		t.Fatalf("announcements = %v, want %v", h.announced, want)
	}
	if len(h.selected) != 4 {
		t.Fatalf("expected 4 select callbacks, got %d", len(h.selected))
	}
}

func TestKeyboard_Delete(t *testing.T) {
	h := newHarness(false, 0)
	h.c.Sync(tasks(), 10)

	if h.c.KeyDown(KeyDelete) {
		t.Fatal("delete without selection must be ignored")
	}
	h.c.Select("t2")
	if !h.c.KeyDown(KeyDelete) {
		t.Fatal("delete not handled")
	}
	if len(h.deleted) != 1 || h.deleted[0] != "t2" {
		t.Fatalf("unexpected deletes %v", h.deleted)
	}
	if h.announced[len(h.announced)-1] != "Task deleted" {
		t.Fatalf("expected deletion announcement, got %v", h.announced)
	}
	if h.c.Selected() != "" {
		t.Fatal("selection should clear after delete")
	}
}

func TestTruncation(t *testing.T) {
	h := newHarness(false, 2)
	h.c.Sync(tasks(), 10)

	if len(h.c.Visible()) != 2 || h.c.Hidden() != 1 {
		t.Fatalf("visible=%d hidden=%d", len(h.c.Visible()), h.c.Hidden())
	}
	h.c.KeyDown(KeyDown)
	h.c.KeyDown(KeyDown)
	h.c.KeyDown(KeyDown)
	if h.c.Selected() != "t2" {
		t.Fatalf("navigation must stop at the last visible task, got %q", h.c.Selected())
	}
	if h.c.PointerDown("m1", Move, 0) {
		t.Fatal("hidden tasks must not be draggable")
	}
	if h.c.Select("m1") {
		t.Fatal("hidden tasks must not be selectable")
	}
}

func TestNudge(t *testing.T) {
	h := newHarness(false, 0)
	h.c.Sync(tasks(), 10)

	if _, ok := h.c.Nudge(Move, 1); ok {
		t.Fatal("nudge without selection must be ignored")
	}
	h.c.Select("t1")

	p, ok := h.c.Nudge(Move, -1)
	if !ok {
		t.Fatal("nudge refused")
	}
	if s, e := dates(t, p); s != "2026-02-09" || e != "2026-02-11" {
		t.Fatalf("move: got %s..%s", s, e)
	}

	p, _ = h.c.Nudge(ResizeEnd, -5)
	if _, e := dates(t, p); e != "2026-02-11" {
		t.Fatalf("resize-end must clamp, got %s", e)
	}

	h.c.Select("m1")
	if _, ok := h.c.Nudge(ResizeStart, 1); ok {
		t.Fatal("milestone start must not be resized")
	}
	p, ok = h.c.Nudge(ResizeEnd, 2)
	if !ok {
		t.Fatal("milestone should widen from its end")
	}
	if _, e := dates(t, p); e != "2026-02-23" {
		t.Fatalf("got end %s", e)
	}
	if len(h.updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(h.updates))
	}
}

func TestExport(t *testing.T) {
	h := newHarness(true, 0)
	if err := h.c.Export(FormatPDF); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if err := h.c.Export("svg"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if len(h.exported) != 1 || h.exported[0] != "pdf" {
		t.Fatalf("unexpected exports %v", h.exported)
	}
}
