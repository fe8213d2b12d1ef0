package github

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// minGHMajor is the oldest gh major version the pull request step supports.
const minGHMajor = 2

// ErrGHMissing means the gh binary is not on PATH.
var ErrGHMissing = errors.New("gh CLI not found on PATH (https://cli.github.com/)")

// ghRun runs gh and returns its stdout. Tests swap it out.
var ghRun = func(args ...string) ([]byte, error) {
	return exec.Command("gh", args...).Output()
}

// CheckGHVersion returns the installed gh version. A version below
// minGHMajor is returned together with an error.
func CheckGHVersion() (string, error) {
	out, err := ghRun("--version")
	if err != nil {
		if isGhNotFound(err) {
			return "", ErrGHMissing
		}
		return "", fmt.Errorf("running gh --version: %w", err)
	}

	ver, major, err := parseGHVersion(string(out))
	if err != nil {
		return "", err
	}
	if major < minGHMajor {
		return ver, fmt.Errorf("gh %s is too old: need %d.0.0 or newer", ver, minGHMajor)
	}
	return ver, nil
}

// parseGHVersion reads the first line of `gh --version`, e.g.
// "gh version 2.45.0 (2024-01-01)".
func parseGHVersion(out string) (string, int, error) {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "gh" || fields[1] != "version" {
		return "", 0, fmt.Errorf("unrecognized gh --version output: %q", line)
	}
	ver := strings.TrimPrefix(fields[2], "v")
	var major int
	if _, err := fmt.Sscanf(ver, "%d.", &major); err != nil {
		return "", 0, fmt.Errorf("unrecognized gh version %q", ver)
	}
	return ver, major, nil
}

// CheckGHAuth confirms gh has credentials for host, which the PR step needs
// to push the patchgate branch. Empty host means github.com.
func CheckGHAuth(host string) error {
	args := []string{"auth", "status"}
	if host != "" && host != "github.com" {
		args = append(args, "--hostname", host)
	}

	if _, err := ghRun(args...); err != nil {
		if isGhNotFound(err) {
			return ErrGHMissing
		}
		return fmt.Errorf("gh has no credentials for %s: run gh auth login or set GH_TOKEN", hostLabel(host))
	}
	return nil
}

func hostLabel(host string) string {
	if host == "" {
		return "github.com"
	}
	return host
}

func isGhNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}
