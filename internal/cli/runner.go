package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/futureCreator/patchgate/internal/config"
	vlog "github.com/futureCreator/patchgate/internal/log"
	"github.com/futureCreator/patchgate/internal/output"
	"github.com/futureCreator/patchgate/internal/patch"
	"github.com/futureCreator/patchgate/internal/project"
	"github.com/futureCreator/patchgate/internal/report"
	"github.com/futureCreator/patchgate/internal/run"
)

const stateDir = ".patchgate"

// session is the per-command environment shared by check and assess.
type session struct {
	cfg     *config.Config
	logFile *os.File
	stdout  io.Writer
	stderr  io.Writer
}

// openSession loads and validates config and initializes logging.
func openSession(stdout, stderr io.Writer) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config:\n%w", err)
	}

	logFile := openLogFile()
	if logFile != nil {
		vlog.Init(cfg.LogLevel, logFile)
	} else {
		vlog.Init(cfg.LogLevel, nil)
	}

	return &session{cfg: cfg, logFile: logFile, stdout: stdout, stderr: stderr}, nil
}

func (s *session) close() {
	if s.logFile != nil {
		s.logFile.Close()
	}
}

// pipeline builds the patch pipeline. The fetch timeout is applied by the
// caller through the context, not by the client.
func (s *session) pipeline() *patch.Pipeline {
	return patch.New(&patch.Resolver{
		HTTPClient: &http.Client{},
		MaxBytes:   s.cfg.Source.MaxBytes,
	})
}

// sourceContext bounds one fetch with the configured timeout.
func (s *session) sourceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := s.cfg.SourceTimeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// startRun creates the run directory. Recording is best effort: a failure
// is logged and the run continues unrecorded.
func (s *session) startRun(command, source string) *run.Run {
	if !s.cfg.Runs.Enabled {
		return nil
	}
	gitInfo, err := project.CollectGitInfo()
	if err != nil {
		vlog.Debug("could not collect git info", "err", err)
		gitInfo = &project.GitInfo{}
	}
	r, err := run.New(stateDir, command, source, gitInfo.Branch, gitInfo.Commit)
	if err != nil {
		vlog.Warn("could not create run directory", "err", err)
		return nil
	}
	vlog.Debug("run started", "run", r.ID, "run_id", r.Meta.RunID)
	return r
}

func (s *session) emitter() *output.Emitter {
	e := &output.Emitter{
		Stdout:    s.stdout,
		Legacy:    s.cfg.Output.LegacySetOutput,
		PatchFile: s.cfg.Output.PatchFile,
	}
	e.FromEnv(s.cfg.Output.GitHubOutput, s.cfg.Output.StepSummary)
	return e
}

// emit publishes the result and prints where the patch went.
func (s *session) emit(res output.Result) error {
	patchPath, err := s.emitter().Emit(res)
	if err != nil {
		return fmt.Errorf("emitting outputs: %w", err)
	}
	if patchPath != "" {
		fmt.Fprintf(s.stderr, "Patch saved to %s\n", patchPath)
	}
	return nil
}

// printVerdict writes the one-line verdict to stderr, styled on a terminal.
func (s *session) printVerdict(v patch.Verdict) {
	fmt.Fprintln(s.stderr, report.Line(v, isTerminal(s.stderr)))
}

// logVerdict records the verdict with its diagnostics.
func logVerdict(v patch.Verdict, source string) {
	d := v.Diagnostic
	attrs := []any{
		"source", source,
		"diff_headers", d.DiffHeaders,
		"file_headers", d.FileHeaders,
		"hunk_headers", d.HunkHeaders,
	}
	switch {
	case v.Valid:
		vlog.Info("patch accepted", attrs...)
	case v.Reason.Upstream():
		vlog.Error("patch source failed", append(attrs, "reason", v.Reason, "status", d.StatusCode, "url", d.URL, "detail", d.Message)...)
	default:
		vlog.Warn("patch rejected", append(attrs, "reason", v.Reason, "tail", d.TailLine, "detail", d.Message)...)
	}
}

// verdictError turns an upstream rejection into exit code 2. Content
// rejections are a normal "no changes" outcome and exit 0.
func verdictError(reason patch.Reason, msg string) error {
	if !reason.Upstream() {
		return nil
	}
	return &ExitError{Code: 2, Err: fmt.Errorf("patch source failed (%s): %s", reason, msg)}
}

// recordRun stores the verdict in the run directory when one exists.
func recordRun(r *run.Run, v patch.Verdict) {
	if r == nil {
		return
	}
	if err := r.Record(v); err != nil {
		vlog.Warn("failed to record run", "run", r.ID, "err", err)
	}
}

func failRun(r *run.Run, err error) {
	if r == nil {
		return
	}
	if metaErr := r.Fail(err.Error()); metaErr != nil {
		vlog.Error("failed to update run meta", "err", metaErr)
	}
}

// isTerminal reports whether w is a terminal. Tests replace it.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func openLogFile() *os.File {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(stateDir, "patchgate.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil
	}
	return f
}
