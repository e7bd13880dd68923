package cli

import (
	"fmt"
	"os"

	"github.com/imkarma/gantt/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gantt in the current directory",
	Long:  "Creates a .gantt/ directory with default config and database.",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// Check if already initialized.
	if _, err := os.Stat(ganttDirName); err == nil {
		return fmt.Errorf("gantt already initialized in this directory (.gantt/ exists)")
	}

	if err := os.MkdirAll(ganttDirName, 0755); err != nil {
		return fmt.Errorf("create .gantt: %w", err)
	}

	// Write default config.
	if err := config.Save(ganttPath("config.yaml"), config.DefaultConfig()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	// Create database by opening store (migration runs automatically).
	store, err := openStore(ganttPath("gantt.db"))
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	store.Close()

	fmt.Fprintln(out, "Initialized gantt in .gantt/")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Run: gantt project create \"Launch\"")
	fmt.Fprintln(out, "  2. Run: gantt task add Launch \"Design\" --start 2026-02-10 --end 2026-02-12")
	fmt.Fprintln(out, "  3. Run: gantt ui Launch")

	return nil
}
