// Package source turns command-line input selection into the single
// patch.RawInput of a run.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/futureCreator/patchgate/internal/patch"
)

// ErrNoSource is returned when no input was selected.
var ErrNoSource = errors.New("no patch source given: use --url, --file, --inline or - for stdin")

// Selection holds the mutually exclusive input flags.
type Selection struct {
	URL    string
	File   string
	Inline string
	Stdin  bool
	// HasInline distinguishes --inline "" from an unset flag.
	HasInline bool
}

// count returns how many sources were selected.
func (s Selection) count() int {
	n := 0
	for _, set := range []bool{s.URL != "", s.File != "", s.HasInline, s.Stdin} {
		if set {
			n++
		}
	}
	return n
}

// Resolve returns the RawInput for the selection. File and stdin contents
// are read here and handed to the pipeline inline; a URL is left for the
// pipeline to fetch.
func Resolve(sel Selection, stdin io.Reader) (patch.RawInput, error) {
	switch sel.count() {
	case 0:
		return patch.RawInput{}, ErrNoSource
	case 1:
	default:
		return patch.RawInput{}, fmt.Errorf("exactly one patch source allowed, got %d", sel.count())
	}

	switch {
	case sel.URL != "":
		return patch.FromURL(sel.URL), nil
	case sel.File != "":
		data, err := os.ReadFile(sel.File)
		if err != nil {
			return patch.RawInput{}, fmt.Errorf("reading patch file %s: %w", sel.File, err)
		}
		return patch.Inline(string(data)), nil
	case sel.HasInline:
		return patch.Inline(sel.Inline), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return patch.RawInput{}, fmt.Errorf("reading stdin: %w", err)
		}
		return patch.Inline(string(data)), nil
	}
}
