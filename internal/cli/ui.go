package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/imkarma/gantt/internal/timescale"
	"github.com/imkarma/gantt/internal/tui"
	"github.com/spf13/cobra"
)

var (
	uiScale    string
	uiReadOnly bool
)

var uiCmd = &cobra.Command{
	Use:   "ui [project]",
	Short: "Open the interactive Gantt chart",
	Long:  "Opens an interactive chart. Drag bars with the mouse, or select with j/k and nudge with h/l. Edits autosave.",
	Args:  cobra.ExactArgs(1),
	RunE:  runUI,
}

func init() {
	uiCmd.Flags().StringVar(&uiScale, "scale", "", "Initial time scale (default from config)")
	uiCmd.Flags().BoolVar(&uiReadOnly, "read-only", false, "View only; no edits")
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	scale := cfg.Chart.EffectiveScale()
	if uiScale != "" {
		if scale, err = timescale.ParseScale(uiScale); err != nil {
			return err
		}
	}

	// Keep log output off the alt screen.
	f, err := tea.LogToFile(ganttPath("gantt.log"), "gantt")
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	session, err := openSession(s, args[0], cfg)
	if err != nil {
		return err
	}

	model := tui.New(session, tui.Options{
		ReadOnly:        uiReadOnly || cfg.Chart.ReadOnly,
		Scale:           scale,
		ContainerWidth:  cfg.Chart.EffectiveWidth(),
		CellPx:          cfg.Chart.EffectiveCellPx(),
		MaxVisibleTasks: cfg.Chart.EffectiveMaxVisible(),
		DefaultColor:    cfg.Chart.EffectiveColor(),
		User:            currentUser(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	_, runErr := p.Run()

	// Save whatever is still pending after the TUI exits.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := session.Close(ctx); err != nil {
		log.Printf("close session: %v", err)
		if runErr == nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}
