package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/imkarma/gantt/internal/calendar"
	"github.com/imkarma/gantt/internal/canvas"
	"github.com/imkarma/gantt/internal/config"
	"github.com/imkarma/gantt/internal/project"
	"github.com/imkarma/gantt/internal/store"
	"github.com/spf13/cobra"
)

var (
	taskStart       string
	taskEnd         string
	taskColor       string
	taskResizeStart bool
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Add, list and edit tasks",
	Long:  "Manage the tasks of a project. Edits go through the same clamp, undo and autosave path as the interactive chart.",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [project] [name]",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List a project's tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskList,
}

var taskMoveCmd = &cobra.Command{
	Use:     "move [project] [task] [days]",
	Short:   "Shift a task by whole days",
	Example: "  gantt task move Launch Design 3\n  gantt task move Launch Design -- -2",
	Args:    cobra.ExactArgs(3),
	RunE:    runTaskMove,
}

var taskResizeCmd = &cobra.Command{
	Use:     "resize [project] [task] [days]",
	Short:   "Move a task's end (or start, with --start) by whole days",
	Example: "  gantt task resize Launch Design 2\n  gantt task resize Launch Design --start -- -1",
	Args:    cobra.ExactArgs(3),
	RunE:    runTaskResize,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm [project] [task]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskRm,
}

func init() {
	taskAddCmd.Flags().StringVarP(&taskStart, "start", "s", "", "Start date (YYYY-MM-DD), inclusive")
	taskAddCmd.Flags().StringVarP(&taskEnd, "end", "e", "", "End date (YYYY-MM-DD), exclusive")
	taskAddCmd.Flags().StringVarP(&taskColor, "color", "c", "", "Bar color (#rrggbb)")
	taskAddCmd.MarkFlagRequired("start")
	taskAddCmd.MarkFlagRequired("end")

	taskResizeCmd.Flags().BoolVar(&taskResizeStart, "start", false, "Resize from the start instead of the end")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskResizeCmd)
	taskCmd.AddCommand(taskRmCmd)
}

// editSession bundles what a one-shot task edit needs.
type editSession struct {
	store   *store.Store
	session *project.Session
}

func openEdit(ref string) (*editSession, error) {
	s, err := mustStore()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		s.Close()
		return nil, err
	}
	sess, err := openSession(s, ref, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	return &editSession{store: s, session: sess}, nil
}

// close saves the pending edit, if any, and releases the store.
func (e *editSession) close() error {
	defer e.store.Close()
	return e.session.Close(context.Background())
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(strings.Join(args[1:], " "))
	if name == "" {
		return fmt.Errorf("task name cannot be empty")
	}
	start, err := calendar.Parse(taskStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := calendar.Parse(taskEnd)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}
	if taskColor != "" && !config.ValidColor(taskColor) {
		return fmt.Errorf("invalid --color %q (want #rgb or #rrggbb)", taskColor)
	}

	e, err := openEdit(args[0])
	if err != nil {
		return err
	}

	start, end = canvas.Clamp(start, end)
	t := e.session.Editor().AddTask(store.Task{Name: name, StartDate: start, EndDate: end, Color: taskColor})
	if err := e.close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added task %s: %s %s → %s\n", shortID(t.ID), t.Name, t.StartDate, t.EndDate)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.FindProject(args[0])
	if err != nil {
		return err
	}
	tasks, err := s.ListTasks(p.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintf(out, "No tasks in %s. Run: %sgantt task add %q \"name\" --start ... --end ...%s\n", p.Name, colorCyan, p.Name, colorReset)
		return nil
	}
	fmt.Fprintf(out, "%s%s%s (%d tasks)\n\n", colorBold, p.Name, colorReset, len(tasks))
	for _, t := range tasks {
		printTask(out, t)
	}
	return nil
}

func runTaskMove(cmd *cobra.Command, args []string) error {
	return nudgeTask(cmd, args, canvas.Move)
}

func runTaskResize(cmd *cobra.Command, args []string) error {
	mode := canvas.ResizeEnd
	if taskResizeStart {
		mode = canvas.ResizeStart
	}
	return nudgeTask(cmd, args, mode)
}

// nudgeTask applies a keyboard-style nudge to one task and saves it.
func nudgeTask(cmd *cobra.Command, args []string, mode canvas.Mode) error {
	days, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid day count: %s", args[2])
	}
	if days == 0 {
		return fmt.Errorf("day count must not be zero")
	}

	e, err := openEdit(args[0])
	if err != nil {
		return err
	}
	ed := e.session.Editor()
	tasks := ed.Tasks()
	t, err := findTask(tasks, args[1])
	if err != nil {
		e.close()
		return err
	}

	cv := canvas.New(canvas.Options{
		MaxVisibleTasks: len(tasks),
		OnUpdate:        func(id string, p store.TaskPatch) { ed.UpdateTask(id, p) },
		OnSelect:        ed.Select,
	})
	cv.Sync(tasks, 1)
	cv.Select(t.ID)
	if _, ok := cv.Nudge(mode, days); !ok {
		e.close()
		if mode != canvas.Move {
			return fmt.Errorf("cannot %s milestone %q; move it or widen its end", mode, t.Name)
		}
		return fmt.Errorf("task %q not changed", t.Name)
	}

	if err := e.close(); err != nil {
		return err
	}
	updated, _ := ed.Task(t.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s → %s\n", mode, updated.Name, updated.StartDate, updated.EndDate)
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	e, err := openEdit(args[0])
	if err != nil {
		return err
	}
	ed := e.session.Editor()
	t, err := findTask(ed.Tasks(), args[1])
	if err != nil {
		e.close()
		return err
	}
	ed.RemoveTask(t.ID)
	if err := e.close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s: %s\n", shortID(t.ID), t.Name)
	return nil
}
