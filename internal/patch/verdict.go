// Package patch validates and normalizes unified diffs emitted by an
// assessment agent before they are allowed to become a pull request.
package patch

import "errors"

// Reason enumerates why a candidate patch was rejected.
type Reason string

const (
	ReasonEmptyOrNotText        Reason = "EMPTY_OR_NOT_TEXT"
	ReasonNotADiff              Reason = "NOT_A_DIFF"
	ReasonIncompleteFileHeaders Reason = "INCOMPLETE_FILE_HEADERS"
	ReasonTruncatedTail         Reason = "TRUNCATED_TAIL"
	ReasonFetchFailed           Reason = "FETCH_FAILED"
	ReasonSourceUnreachable     Reason = "SOURCE_UNREACHABLE"
)

// Upstream reports whether the rejection points at an outage of the patch
// source rather than at the content of the patch.
func (r Reason) Upstream() bool {
	return r == ReasonFetchFailed || r == ReasonSourceUnreachable
}

// ErrInvariant marks an internal bug. It is never returned for malformed input.
var ErrInvariant = errors.New("patch: internal invariant violated")

// Diagnostic carries the details a caller needs to log a verdict.
type Diagnostic struct {
	Message     string `json:"message,omitempty"`
	DiffHeaders int    `json:"diff_headers"`
	FileHeaders int    `json:"file_headers"`
	HunkHeaders int    `json:"hunk_headers"`
	TailLine    string `json:"tail_line,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Verdict is the terminal value of a pipeline run.
type Verdict struct {
	Valid      bool
	Patch      NormalizedPatch
	Reason     Reason
	Diagnostic Diagnostic
}

func accept(p NormalizedPatch, d Diagnostic) Verdict {
	return Verdict{Valid: true, Patch: p, Diagnostic: d}
}

func reject(r Reason, d Diagnostic) Verdict {
	return Verdict{Reason: r, Diagnostic: d}
}
