// Package project reads the state of the git checkout a run happens in.
package project

import (
	"fmt"
	"os/exec"
	"strings"
)

// gitRun executes a git subcommand and returns trimmed stdout.
// It is a package-level variable so tests can replace it.
var gitRun = func(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GitInfo holds current git state.
type GitInfo struct {
	Branch  string
	Commit  string
	IsDirty bool
}

// CollectGitInfo gathers branch, commit, and dirty state.
func CollectGitInfo() (*GitInfo, error) {
	branch, err := gitRun("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("getting git branch: %w", err)
	}

	commit, err := gitRun("rev-parse", "--short", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("getting git commit: %w", err)
	}

	out, err := gitRun("status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("checking git status: %w", err)
	}

	return &GitInfo{
		Branch:  branch,
		Commit:  commit,
		IsDirty: out != "",
	}, nil
}

// InsideWorkTree reports whether the current directory is in a git checkout.
func InsideWorkTree() bool {
	out, err := gitRun("rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}
