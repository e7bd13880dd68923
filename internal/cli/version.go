package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var versionBy string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Snapshot and restore a project's tasks",
}

var versionCreateCmd = &cobra.Command{
	Use:   "create [project]",
	Short: "Save the current tasks as a new version",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionCreate,
}

var versionListCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List versions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionList,
}

var versionRestoreCmd = &cobra.Command{
	Use:   "restore [project] [number]",
	Short: "Replace the tasks with a saved version",
	Args:  cobra.ExactArgs(2),
	RunE:  runVersionRestore,
}

func init() {
	versionCreateCmd.Flags().StringVar(&versionBy, "by", "", "Author recorded on the version (default $USER)")

	versionCmd.AddCommand(versionCreateCmd)
	versionCmd.AddCommand(versionListCmd)
	versionCmd.AddCommand(versionRestoreCmd)
}

func runVersionCreate(cmd *cobra.Command, args []string) error {
	e, err := openEdit(args[0])
	if err != nil {
		return err
	}
	by := versionBy
	if by == "" {
		by = currentUser()
	}
	v, err := e.session.CreateVersion(by)
	if cerr := e.close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved version %d (%d tasks)\n", v.VersionNumber, len(v.Tasks))
	return nil
}

func runVersionList(cmd *cobra.Command, args []string) error {
	s, err := mustStore()
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.FindProject(args[0])
	if err != nil {
		return err
	}
	versions, err := s.ListVersions(p.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(versions) == 0 {
		fmt.Fprintf(out, "No versions for %s. Run: %sgantt version create %q%s\n", p.Name, colorCyan, p.Name, colorReset)
		return nil
	}
	for _, v := range versions {
		fmt.Fprintf(out, "%sv%-3d%s %s  %3d tasks  %s%s%s\n",
			colorGreen, v.VersionNumber, colorReset,
			v.CreatedAt.Local().Format("2006-01-02 15:04"), len(v.Tasks),
			colorDim, v.CreatedBy, colorReset)
	}
	return nil
}

func runVersionRestore(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return fmt.Errorf("invalid version number: %s", args[1])
	}

	e, err := openEdit(args[0])
	if err != nil {
		return err
	}
	v, err := e.session.RestoreVersion(n)
	if cerr := e.close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%sRestored version %d%s (%d tasks)\n", colorYellow, v.VersionNumber, colorReset, len(v.Tasks))
	return nil
}
