package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log [project]",
	Short: "Show event log for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.FindProject(args[0])
	if err != nil {
		return err
	}

	events, err := s.GetEvents(p.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintf(out, "No events for %s\n", p.Name)
		return nil
	}

	fmt.Fprintf(out, "Events for %s:\n\n", p.Name)
	for _, e := range events {
		fmt.Fprintf(out, "  %s  %-16s %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Type, e.Content)
	}
	return nil
}
