package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create or list projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new project",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

func init() {
	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	p, err := s.CreateProject(name)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created project %s: %s\n", shortID(p.ID), p.Name)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	projects, err := s.ListProjects()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(projects) == 0 {
		fmt.Fprintf(out, "No projects. Run: %sgantt project create \"name\"%s\n", colorCyan, colorReset)
		return nil
	}

	for _, p := range projects {
		tasks, err := s.ListTasks(p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s%-8s%s %-28s %3d tasks  %srev %d · updated %s%s\n",
			colorCyan, shortID(p.ID), colorReset, p.Name, len(tasks),
			colorDim, p.Revision, p.UpdatedAt.Local().Format("2006-01-02 15:04"), colorReset)
	}
	return nil
}
