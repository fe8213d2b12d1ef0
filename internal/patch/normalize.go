package patch

import (
	"regexp"
	"strings"
	"unicode"
)

// NormalizedPatch is fence-free text with no trailing whitespace on any line
// and exactly one trailing newline. Only normalize produces one.
type NormalizedPatch struct {
	text string
}

// String returns the patch text.
func (p NormalizedPatch) String() string { return p.text }

// Bytes returns the patch text as bytes.
func (p NormalizedPatch) Bytes() []byte { return []byte(p.text) }

// Lines returns the patch lines without their terminating newlines.
func (p NormalizedPatch) Lines() []string {
	if p.text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(p.text, "\n"), "\n")
}

// Empty reports whether p is the zero value.
func (p NormalizedPatch) Empty() bool { return p.text == "" }

var (
	openingFenceRe = regexp.MustCompile("^`{3,}[^`]*$")
	closingFenceRe = regexp.MustCompile("^`{3,}[ \t\r]*$")
)

// stripFences removes at most one opening and one closing markdown fence.
// Nested fences are left alone.
func stripFences(s string) string {
	lines := strings.Split(s, "\n")

	first := 0
	for first < len(lines) && strings.TrimSpace(lines[first]) == "" {
		first++
	}
	if first < len(lines) && openingFenceRe.MatchString(lines[first]) {
		lines = lines[first+1:]
	}

	last := len(lines) - 1
	for last >= 0 && strings.TrimSpace(lines[last]) == "" {
		last--
	}
	if last >= 0 && closingFenceRe.MatchString(lines[last]) {
		lines = lines[:last]
	}

	return strings.Join(lines, "\n")
}

// normalizeLines trims trailing whitespace from every line and guarantees a
// single trailing newline. Leading whitespace is context and stays.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}

func normalize(raw string) NormalizedPatch {
	return NormalizedPatch{text: normalizeLines(stripFences(raw))}
}
