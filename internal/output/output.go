// Package output publishes a verdict to the CI runner: step outputs, the
// patch file and the job summary.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Result is what the PR-creation step downstream consumes.
type Result struct {
	HadChanges bool
	Patch      string
	Reason     string
	Summary    string
	PRBody     string
	PRTitle    string
	Branch     string
	// PatchURL is set in pass-through mode instead of Patch.
	PatchURL string
}

// Emitter writes a Result to the configured channels.
type Emitter struct {
	// Stdout receives legacy ::set-output commands.
	Stdout io.Writer
	// GitHubOutputPath is the file named by $GITHUB_OUTPUT. Empty disables it.
	GitHubOutputPath string
	// StepSummaryPath is the file named by $GITHUB_STEP_SUMMARY. Empty disables it.
	StepSummaryPath string
	// Legacy prints ::set-output commands on Stdout.
	Legacy bool
	// PatchFile receives the accepted patch. Empty disables it.
	PatchFile string
}

// FromEnv fills the runner file paths from the environment.
func (e *Emitter) FromEnv(githubOutput, stepSummary bool) {
	if githubOutput {
		e.GitHubOutputPath = os.Getenv("GITHUB_OUTPUT")
	}
	if stepSummary {
		e.StepSummaryPath = os.Getenv("GITHUB_STEP_SUMMARY")
	}
}

// pairs returns the outputs in a stable order. Patch content is never
// emitted for a rejected run.
func (r Result) pairs() [][2]string {
	out := [][2]string{{"had_changes", strconv.FormatBool(r.HadChanges)}}
	if r.HadChanges {
		if r.PatchURL != "" {
			out = append(out, [2]string{"patch_url", r.PatchURL})
		} else {
			out = append(out, [2]string{"patch", r.Patch})
		}
	}
	if r.Reason != "" {
		out = append(out, [2]string{"reason", r.Reason})
	}
	out = append(out, [2]string{"summary", r.Summary})
	if r.HadChanges {
		for _, kv := range [][2]string{{"pr_title", r.PRTitle}, {"branch", r.Branch}, {"pr_body", r.PRBody}} {
			if kv[1] != "" {
				out = append(out, kv)
			}
		}
	}
	return out
}

// Emit writes every enabled channel. It returns the path of the patch file
// when one was written.
func (e *Emitter) Emit(r Result) (string, error) {
	var patchPath string
	if r.HadChanges && r.Patch != "" && e.PatchFile != "" {
		if err := os.MkdirAll(filepath.Dir(e.PatchFile), 0755); err != nil {
			return "", fmt.Errorf("creating patch dir: %w", err)
		}
		if err := os.WriteFile(e.PatchFile, []byte(r.Patch), 0644); err != nil {
			return "", fmt.Errorf("writing patch file: %w", err)
		}
		patchPath = e.PatchFile
	}

	pairs := r.pairs()
	if patchPath != "" {
		pairs = append(pairs, [2]string{"patch_file", patchPath})
	}

	if e.GitHubOutputPath != "" {
		if err := appendFile(e.GitHubOutputPath, func(w io.Writer) error {
			for _, kv := range pairs {
				if err := WriteOutput(w, kv[0], kv[1]); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return "", fmt.Errorf("writing GITHUB_OUTPUT: %w", err)
		}
	}

	if e.Legacy && e.Stdout != nil {
		for _, kv := range pairs {
			if _, err := fmt.Fprintln(e.Stdout, SetOutputCommand(kv[0], kv[1])); err != nil {
				return "", err
			}
		}
	}

	if e.StepSummaryPath != "" && r.Summary != "" {
		if err := appendFile(e.StepSummaryPath, func(w io.Writer) error {
			_, err := io.WriteString(w, strings.TrimRight(r.Summary, "\n")+"\n")
			return err
		}); err != nil {
			return "", fmt.Errorf("writing GITHUB_STEP_SUMMARY: %w", err)
		}
	}

	return patchPath, nil
}

// WriteOutput writes one name/value pair in the $GITHUB_OUTPUT format.
// Multi-line values use a heredoc with a random delimiter so patch content
// can never terminate it early.
func WriteOutput(w io.Writer, name, value string) error {
	if !strings.ContainsAny(value, "\r\n") {
		_, err := fmt.Fprintf(w, "%s=%s\n", name, value)
		return err
	}
	delim := "ghadelimiter_" + uuid.NewString()
	_, err := fmt.Fprintf(w, "%s<<%s\n%s\n%s\n", name, delim, strings.TrimSuffix(value, "\n"), delim)
	return err
}

// SetOutputCommand renders the legacy workflow command with the runner's
// escaping rules.
func SetOutputCommand(name, value string) string {
	return fmt.Sprintf("::set-output name=%s::%s", name, escapeData(value))
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}

func appendFile(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
