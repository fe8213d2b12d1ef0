package patch

import (
	"strings"
	"unicode/utf8"
)

const (
	diffHeaderMarker = "diff --git "
	hunkMarker       = "@@"
	noNewlineMarker  = `\ No newline at end of file`

	tailPreviewRunes = 80
)

// validate applies the structural rules in order; the first failing rule
// decides the reason. candidate must already be normalized.
func validate(candidate NormalizedPatch) Verdict {
	text := candidate.text
	diag := Diagnostic{}

	if strings.TrimSpace(text) == "" {
		diag.Message = "patch is empty"
		return reject(ReasonEmptyOrNotText, diag)
	}

	lines := candidate.Lines()
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			diag.FileHeaders++
		case strings.HasPrefix(line, hunkMarker):
			diag.HunkHeaders++
		}
	}
	diag.DiffHeaders = strings.Count(text, diffHeaderMarker)

	if diag.DiffHeaders == 0 && !strings.Contains(text, hunkMarker) {
		diag.Message = "no diff header and no hunk header"
		return reject(ReasonNotADiff, diag)
	}

	if diag.DiffHeaders > 0 && diag.FileHeaders < 2*diag.DiffHeaders {
		diag.Message = "fewer ---/+++ lines than two per diff header"
		return reject(ReasonIncompleteFileHeaders, diag)
	}

	tail := lastNonEmpty(lines)
	if !isDiffLine(tail) {
		diag.TailLine = preview(tail)
		diag.Message = "last line does not look like a diff line"
		return reject(ReasonTruncatedTail, diag)
	}

	if line, ok := fenceLine(lines); ok {
		diag.TailLine = preview(line)
		diag.Message = "markdown fence inside patch"
		return reject(ReasonNotADiff, diag)
	}

	return accept(candidate, diag)
}

// fenceLine finds a markdown fence that survived the single strip pass, as
// left behind by doubled or per-file fences.
func fenceLine(lines []string) (string, bool) {
	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			return line, true
		}
	}
	return "", false
}

func lastNonEmpty(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i] != "" {
			return lines[i]
		}
	}
	return ""
}

func isDiffLine(line string) bool {
	if line == noNewlineMarker {
		return true
	}
	for _, prefix := range []string{hunkMarker, " ", "+", "-"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func preview(line string) string {
	if utf8.RuneCountInString(line) <= tailPreviewRunes {
		return line
	}
	runes := []rune(line)
	return string(runes[:tailPreviewRunes-1]) + "…"
}
