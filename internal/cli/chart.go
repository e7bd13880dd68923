package cli

import (
	"fmt"
	"time"

	"github.com/imkarma/gantt/internal/calendar"
	"github.com/imkarma/gantt/internal/timescale"
	"github.com/imkarma/gantt/internal/tui"
	"github.com/spf13/cobra"
)

var (
	chartScale string
	chartWidth float64
)

var chartCmd = &cobra.Command{
	Use:   "chart [project]",
	Short: "Print a project's Gantt chart",
	Args:  cobra.ExactArgs(1),
	RunE:  runChart,
}

func init() {
	chartCmd.Flags().StringVar(&chartScale, "scale", "", "Time scale: day, week, sprint, month, quarter (default from config)")
	chartCmd.Flags().Float64Var(&chartWidth, "width", 0, "Container width in px (default from config)")
}

func runChart(cmd *cobra.Command, args []string) error {
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
	if chartScale != "" {
		if scale, err = timescale.ParseScale(chartScale); err != nil {
			return err
		}
	}
	width := cfg.Chart.EffectiveWidth()
	if chartWidth < 0 {
		return fmt.Errorf("--width must not be negative")
	}
	if chartWidth > 0 {
		width = chartWidth
	}

	p, err := s.FindProject(args[0])
	if err != nil {
		return err
	}
	tasks, err := s.ListTasks(p.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s%s%s · %d tasks · %s\n\n", colorBold, p.Name, colorReset, len(tasks), scale)
	fmt.Fprint(out, tui.RenderChart(tasks, tui.ChartOptions{
		Scale:           scale,
		ContainerWidth:  width,
		CellPx:          cfg.Chart.EffectiveCellPx(),
		MaxVisibleTasks: cfg.Chart.EffectiveMaxVisible(),
		DefaultColor:    cfg.Chart.EffectiveColor(),
		Today:           calendar.Today(time.Now()),
	}))
	return nil
}
