package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/futureCreator/patchgate/internal/config"
	"github.com/futureCreator/patchgate/internal/github"
	"github.com/futureCreator/patchgate/internal/project"
)

// Environment probes used by doctor. Tests replace them.
var (
	lookPath       = exec.LookPath
	ghVersion      = github.CheckGHVersion
	ghAuth         = github.CheckGHAuth
	insideWorkTree = project.InsideWorkTree
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check patchgate prerequisites and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !runDoctor(cmd.OutOrStdout()) {
				return &ExitError{Code: 1, Err: errors.New("doctor found problems")}
			}
			return nil
		},
	}
}

func runDoctor(w io.Writer) bool {
	allOK := true

	check := func(label string, ok bool, hint string) {
		if ok {
			fmt.Fprintf(w, "✅ %s\n", label)
		} else {
			fmt.Fprintf(w, "❌ %s: %s\n", label, hint)
			allOK = false
		}
	}

	// 1. git repo
	_, err := lookPath("git")
	check("git installed", err == nil, "install git")
	check("inside git repository", insideWorkTree(), "run `git init` or cd to a git repo")

	// 2. gh CLI, used by the pull request step
	ver, err := ghVersion()
	check(strings.TrimSpace("gh CLI "+ver), err == nil, fmt.Sprintf("%v", err))
	if err == nil {
		authErr := ghAuth(os.Getenv("GH_HOST"))
		check("gh CLI authenticated", authErr == nil, fmt.Sprintf("%v", authErr))
	}

	// 3. config
	cfg, cfgErr := config.Load()
	check("config loadable", cfgErr == nil, fmt.Sprintf("fix config: %v", cfgErr))
	if cfgErr == nil {
		validateErr := cfg.Validate()
		check("config valid", validateErr == nil, strings.ReplaceAll(fmt.Sprintf("%v", validateErr), "\n", "; "))

		if cfg.Agent.Command != "mock" {
			bin := strings.Fields(cfg.Agent.Command)
			found := false
			if len(bin) > 0 {
				_, lookErr := lookPath(bin[0])
				found = lookErr == nil
			}
			check("agent command found", found, fmt.Sprintf("%q is not on PATH", cfg.Agent.Command))
		}
	}

	// 4. CI output channel (informational)
	if os.Getenv("GITHUB_OUTPUT") != "" {
		fmt.Fprintln(w, "ℹ️  GITHUB_OUTPUT set: outputs go to the runner")
	} else {
		fmt.Fprintln(w, "ℹ️  GITHUB_OUTPUT not set: running outside GitHub Actions")
	}

	fmt.Fprintln(w)
	if allOK {
		fmt.Fprintln(w, "All checks passed. patchgate is ready.")
	} else {
		fmt.Fprintln(w, "Some checks failed. Fix the issues above before running patchgate.")
	}
	return allOK
}
