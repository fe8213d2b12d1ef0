package cli

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/futureCreator/patchgate/internal/run"
)

// workspace isolates a test in a temp dir with its own HOME and runner files.
type workspace struct {
	dir          string
	githubOutput string
	stepSummary  string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(origDir) })

	ws := &workspace{
		dir:          dir,
		githubOutput: filepath.Join(dir, "github_output"),
		stepSummary:  filepath.Join(dir, "step_summary.md"),
	}
	t.Setenv("HOME", filepath.Join(dir, "home"))
	t.Setenv("GITHUB_OUTPUT", ws.githubOutput)
	t.Setenv("GITHUB_STEP_SUMMARY", ws.stepSummary)
	t.Setenv("PATCHGATE_LOG_LEVEL", "error")
	t.Setenv("PATCHGATE_AGENT_COMMAND", "")
	return ws
}

func (ws *workspace) outputs(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(ws.githubOutput)
	if err != nil {
		t.Fatalf("reading GITHUB_OUTPUT: %v", err)
	}
	return string(data)
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheckInlineAccepted(t *testing.T) {
	ws := newWorkspace(t)

	_, stderr, err := execute(t, "", "check", "--inline", "```diff\n@@ -1 +1 @@\n-old  \n+new\n```\n")
	if err != nil {
		t.Fatalf("check error: %v", err)
	}
	if !strings.Contains(stderr, "accepted") {
		t.Errorf("stderr missing verdict: %q", stderr)
	}

	out := ws.outputs(t)
	for _, want := range []string{"had_changes=true", "patch<<ghadelimiter_", "patch_file=" + filepath.Join(".patchgate", "patch.diff")} {
		if !strings.Contains(out, want) {
			t.Errorf("outputs missing %q:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(filepath.Join(".patchgate", "patch.diff"))
	if err != nil {
		t.Fatalf("patch file: %v", err)
	}
	if string(data) != "@@ -1 +1 @@\n-old\n+new\n" {
		t.Errorf("patch file = %q", data)
	}

	summary, _ := os.ReadFile(ws.stepSummary)
	if !strings.Contains(string(summary), "Patch accepted") {
		t.Errorf("step summary = %q", summary)
	}

	metas, err := run.List(".patchgate")
	if err != nil || len(metas) != 1 || metas[0].Status != run.StatusAccepted {
		t.Errorf("runs = %+v, %v", metas, err)
	}
}

func TestCheckStdinRejected(t *testing.T) {
	ws := newWorkspace(t)

	_, stderr, err := execute(t, "hello world", "check", "-")
	if err != nil {
		t.Fatalf("content rejection must not fail the command: %v", err)
	}
	if !strings.Contains(stderr, "NOT_A_DIFF") {
		t.Errorf("stderr missing reason: %q", stderr)
	}
	out := ws.outputs(t)
	if !strings.Contains(out, "had_changes=false") || !strings.Contains(out, "reason=NOT_A_DIFF") {
		t.Errorf("unexpected outputs:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(".patchgate", "patch.diff")); !os.IsNotExist(err) {
		t.Errorf("rejected patch must not be written, stat err = %v", err)
	}
}

func TestCheckFetchFailureExitCode(t *testing.T) {
	ws := newWorkspace(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	_, _, err := execute(t, "", "check", "--url", ts.URL+"/fix.diff")
	if ExitCode(err) != 2 {
		t.Fatalf("ExitCode = %d (err %v), want 2", ExitCode(err), err)
	}
	if !strings.Contains(ws.outputs(t), "reason=FETCH_FAILED") {
		t.Errorf("outputs missing FETCH_FAILED:\n%s", ws.outputs(t))
	}
}

func TestCheckURLAccepted(t *testing.T) {
	newWorkspace(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("diff --git a/a b/a\n--- a/a\n+++ b/a\n@@ -1 +1 @@\n-x\n+y\n"))
	}))
	defer ts.Close()

	if _, _, err := execute(t, "", "check", "--url", ts.URL+"/fix.diff"); err != nil {
		t.Fatalf("check error: %v", err)
	}
}

func TestCheckProbe(t *testing.T) {
	ws := newWorkspace(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("probe used %s", r.Method)
		}
	}))
	defer ts.Close()

	if _, _, err := execute(t, "", "check", "--probe", "--url", ts.URL+"/fix.diff"); err != nil {
		t.Fatalf("check --probe error: %v", err)
	}
	if !strings.Contains(ws.outputs(t), "patch_url="+ts.URL+"/fix.diff") {
		t.Errorf("outputs missing patch_url:\n%s", ws.outputs(t))
	}
}

func TestCheckNeedsSource(t *testing.T) {
	newWorkspace(t)
	if _, _, err := execute(t, "", "check"); err == nil {
		t.Error("expected error without a source")
	}
	if _, _, err := execute(t, "", "check", "--url", "https://x", "--inline", "+y"); err == nil {
		t.Error("expected error with two sources")
	}
}

func TestAssessMock(t *testing.T) {
	ws := newWorkspace(t)

	if _, _, err := execute(t, "", "assess", "--agent", "mock"); err != nil {
		t.Fatalf("assess error: %v", err)
	}
	out := ws.outputs(t)
	for _, want := range []string{"had_changes=true", "pr_title=Automated README cleanup", "branch=patchgate/", "pr_body<<"} {
		if !strings.Contains(out, want) {
			t.Errorf("outputs missing %q:\n%s", want, out)
		}
	}
}

func TestAssessNoChanges(t *testing.T) {
	ws := newWorkspace(t)

	_, _, err := execute(t, "", "assess", "--agent", `echo '{"changes": [], "hadChanges": false}'`)
	if err != nil {
		t.Fatalf("assess error: %v", err)
	}
	out := ws.outputs(t)
	if !strings.Contains(out, "had_changes=false") || strings.Contains(out, "reason=") {
		t.Errorf("unexpected outputs:\n%s", out)
	}
	metas, _ := run.List(".patchgate")
	if len(metas) != 1 || metas[0].Status != run.StatusNoChange {
		t.Errorf("runs = %+v", metas)
	}
}

func TestAssessInvalidEnvelopeFallsBackToValidator(t *testing.T) {
	ws := newWorkspace(t)

	if _, _, err := execute(t, "", "assess", "--agent", `echo '{"changes": "oops"}'`); err != nil {
		t.Fatalf("assess error: %v", err)
	}
	if !strings.Contains(ws.outputs(t), "had_changes=false") {
		t.Errorf("expected rejection:\n%s", ws.outputs(t))
	}
}

func TestAssessAgentFailure(t *testing.T) {
	newWorkspace(t)
	_, _, err := execute(t, "", "assess", "--agent", "exit 7")
	if err == nil || ExitCode(err) != 1 {
		t.Errorf("expected exit code 1, got %v", err)
	}
}

func TestStats(t *testing.T) {
	newWorkspace(t)

	stdout, _, err := execute(t, "", "stats")
	if err != nil || !strings.Contains(stdout, "No runs found.") {
		t.Fatalf("stats on empty workspace = %q, %v", stdout, err)
	}

	execute(t, "", "check", "--inline", "@@ -1 +1 @@\n+x\n")
	execute(t, "", "check", "--inline", "hello")
	execute(t, "", "check", "--inline", "nope")

	stdout, _, err = execute(t, "", "stats")
	if err != nil {
		t.Fatalf("stats error: %v", err)
	}
	for _, want := range []string{"Runs: 3", "rejected", "NOT_A_DIFF", "accepted"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stats missing %q:\n%s", want, stdout)
		}
	}
}

func TestInit(t *testing.T) {
	newWorkspace(t)

	stdout, _, err := execute(t, "", "init")
	if err != nil {
		t.Fatalf("init error: %v", err)
	}
	if !strings.Contains(stdout, "Created") {
		t.Errorf("stdout = %q", stdout)
	}

	data, err := os.ReadFile(filepath.Join(".patchgate", "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("written config is not YAML: %v", err)
	}

	stdout, _, _ = execute(t, "", "init")
	if !strings.Contains(stdout, "already exists") {
		t.Errorf("second init = %q", stdout)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "", "version")
	if err != nil || !strings.HasPrefix(stdout, "patchgate ") {
		t.Errorf("version = %q, %v", stdout, err)
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Error("nil error is exit 0")
	}
	if ExitCode(errors.New("boom")) != 1 {
		t.Error("plain error is exit 1")
	}
	wrapped := &ExitError{Code: 2, Err: errors.New("fetch")}
	if ExitCode(wrapped) != 2 {
		t.Error("ExitError carries its code")
	}
}
