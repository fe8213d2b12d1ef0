package patch

import (
	"strings"
	"unicode/utf8"
)

// Kind tags which source a RawInput carries.
type Kind string

const (
	KindInline Kind = "inline"
	KindURL    Kind = "url"
)

// RawInput is the single source of one assessment run.
type RawInput struct {
	Kind Kind
	Text string
	URL  string
}

// Inline wraps patch text returned in-process by the agent.
func Inline(text string) RawInput {
	return RawInput{Kind: KindInline, Text: text}
}

// FromURL points the pipeline at a patch served over HTTP(S).
func FromURL(url string) RawInput {
	return RawInput{Kind: KindURL, URL: url}
}

// Join builds one inline input from several per-file patches. Each part is
// unwrapped from its own markdown fence before the parts are joined line to
// line, since a fence or blank line between files would land inside the diff.
func Join(parts ...string) RawInput {
	unwrapped := make([]string, 0, len(parts))
	for _, part := range parts {
		unwrapped = append(unwrapped, strings.TrimRight(stripFences(part), "\n"))
	}
	return Inline(strings.Join(unwrapped, "\n"))
}

// Describe returns a short label for logs and run metadata.
func (in RawInput) Describe() string {
	switch in.Kind {
	case KindURL:
		return "url:" + in.URL
	case KindInline:
		return "inline"
	default:
		return "unknown"
	}
}

// isText rejects payloads that are not plain text: invalid UTF-8 or
// embedded NUL bytes, which is how binary bodies show up.
func isText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}
