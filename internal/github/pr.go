// Package github prepares pull request metadata for an accepted patch and
// checks the gh CLI the PR step depends on.
package github

import (
	"bufio"
	"fmt"
	"strings"
	"unicode"
)

const defaultTitle = "chore: automated changes"

// Title extracts the first heading of the PR body, stripping markdown
// heading markers and leading emoji. With no body it names the changed
// files instead.
func Title(body string, paths []string) string {
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		line = strings.TrimLeftFunc(line, func(r rune) bool {
			return r == ' ' || unicode.IsSymbol(r) || unicode.In(r, unicode.Mn, unicode.Cf)
		})
		if line != "" {
			return line
		}
	}
	switch len(paths) {
	case 0:
		return defaultTitle
	case 1:
		return fmt.Sprintf("chore: update %s", paths[0])
	default:
		return fmt.Sprintf("chore: update %d files", len(paths))
	}
}

// BranchName returns the patchgate branch name for a run.
func BranchName(runID string) string {
	return "patchgate/" + runID
}
