// Package report turns a verdict into human-readable text: a markdown
// summary for the CI job and a terminal line for people.
package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/futureCreator/patchgate/internal/patch"
)

var (
	acceptedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	rejectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	upstreamStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	detailStyle   = lipgloss.NewStyle().Faint(true)
)

// controlRe matches ANSI escape sequences and C0/DEL control characters.
var controlRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]|[\x00-\x1f\x7f]`)

// sanitize keeps patch content from driving the terminal.
func sanitize(s string) string {
	return controlRe.ReplaceAllString(s, "")
}

// Stats counts what an accepted patch touches.
type Stats struct {
	Files     int
	Hunks     int
	Additions int
	Deletions int
}

// Count tallies additions and deletions, skipping ---/+++ file headers.
func Count(p patch.NormalizedPatch, diag patch.Diagnostic) Stats {
	s := Stats{Files: diag.DiffHeaders, Hunks: diag.HunkHeaders}
	if s.Files == 0 && s.Hunks > 0 {
		s.Files = 1
	}
	for _, line := range p.Lines() {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			s.Additions++
		case strings.HasPrefix(line, "-"):
			s.Deletions++
		}
	}
	return s
}

// Summary renders the markdown summary written to the job output.
func Summary(v patch.Verdict) string {
	var b strings.Builder
	if v.Valid {
		s := Count(v.Patch, v.Diagnostic)
		b.WriteString("### ✅ Patch accepted\n\n")
		fmt.Fprintf(&b, "%d file(s), %d hunk(s), +%d −%d\n", s.Files, s.Hunks, s.Additions, s.Deletions)
		return b.String()
	}

	if v.Reason.Upstream() {
		b.WriteString("### ❌ Patch source failed\n\n")
	} else {
		b.WriteString("### ⚠️ Patch rejected: no changes this run\n\n")
	}
	fmt.Fprintf(&b, "- Reason: `%s`\n", v.Reason)
	writeDetails(&b, v.Diagnostic, "- ")
	return b.String()
}

// NoChanges renders the summary for an agent that reported nothing.
func NoChanges() string {
	return "### ℹ️ No changes proposed\n\nThe assessment agent did not report any changes.\n"
}

// Probe renders the summary for a pass-through reachability check.
func Probe(res patch.ProbeResult) string {
	if res.Reachable {
		return fmt.Sprintf("### ✅ Patch URL reachable\n\n- URL: %s\n", res.URL)
	}
	var b strings.Builder
	b.WriteString("### ❌ Patch source failed\n\n")
	fmt.Fprintf(&b, "- Reason: `%s`\n", res.Reason)
	writeDetails(&b, res.Diagnostic, "- ")
	return b.String()
}

func writeDetails(b *strings.Builder, d patch.Diagnostic, prefix string) {
	if d.Message != "" {
		fmt.Fprintf(b, "%s%s\n", prefix, d.Message)
	}
	if d.StatusCode != 0 {
		fmt.Fprintf(b, "%sHTTP status: %d\n", prefix, d.StatusCode)
	}
	if d.URL != "" {
		fmt.Fprintf(b, "%sURL: %s\n", prefix, d.URL)
	}
	if d.DiffHeaders > 0 || d.FileHeaders > 0 {
		fmt.Fprintf(b, "%sdiff headers: %d, file headers: %d\n", prefix, d.DiffHeaders, d.FileHeaders)
	}
	if d.TailLine != "" {
		fmt.Fprintf(b, "%slast line: %q\n", prefix, d.TailLine)
	}
}

// Line renders a one-line terminal verdict, styled when color is true.
func Line(v patch.Verdict, color bool) string {
	var head, detail string
	style := acceptedStyle
	switch {
	case v.Valid:
		s := Count(v.Patch, v.Diagnostic)
		head = "✅ accepted"
		detail = fmt.Sprintf("%d file(s), %d hunk(s), +%d -%d", s.Files, s.Hunks, s.Additions, s.Deletions)
	case v.Reason.Upstream():
		style = upstreamStyle
		head = "❌ " + string(v.Reason)
		detail = v.Diagnostic.Message
	default:
		style = rejectedStyle
		head = "⚠️ " + string(v.Reason)
		detail = v.Diagnostic.Message
		if v.Diagnostic.TailLine != "" {
			detail += ": " + v.Diagnostic.TailLine
		}
	}
	detail = sanitize(detail)
	if !color {
		return strings.TrimSpace(head + "  " + detail)
	}
	return strings.TrimSpace(style.Render(head) + "  " + detailStyle.Render(detail))
}
