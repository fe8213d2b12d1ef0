package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/futureCreator/patchgate/pkg/version"
)

// ExitError carries a process exit code through cobra.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "patchgate",
		Short: "Validate and normalize agent-generated patches before they become PRs",
		Long: `patchgate takes a unified diff produced by an automated assessment agent,
strips markdown fences and trailing whitespace, and decides whether it is
safe to turn into a pull request.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newCheckCmd(),
		newAssessCmd(),
		newStatsCmd(),
		newDoctorCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "patchgate %s\n", version.Version)
		},
	}
}
