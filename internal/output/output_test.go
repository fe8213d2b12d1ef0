package output

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestWriteOutputSingleLine(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, "had_changes", "true"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "had_changes=true\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestWriteOutputMultiLine(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOutput(&buf, "patch", "@@ -1 +1 @@\n-a\n+b\n"); err != nil {
		t.Fatal(err)
	}
	re := regexp.MustCompile(`^patch<<(ghadelimiter_[0-9a-f-]{36})\n@@ -1 \+1 @@\n-a\n\+b\n(ghadelimiter_[0-9a-f-]{36})\n$`)
	m := re.FindStringSubmatch(buf.String())
	if m == nil {
		t.Fatalf("unexpected heredoc: %q", buf.String())
	}
	if m[1] != m[2] {
		t.Errorf("delimiters differ: %q vs %q", m[1], m[2])
	}
}

func TestSetOutputCommand(t *testing.T) {
	got := SetOutputCommand("patch", "-50%\r\n+x\n")
	want := "::set-output name=patch::-50%25%0D%0A+x%0A"
	if got != want {
		t.Errorf("SetOutputCommand() = %q, want %q", got, want)
	}
}

func TestEmitAccepted(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	e := &Emitter{
		Stdout:           &stdout,
		GitHubOutputPath: filepath.Join(dir, "output"),
		StepSummaryPath:  filepath.Join(dir, "summary.md"),
		Legacy:           true,
		PatchFile:        filepath.Join(dir, "out", "patch.diff"),
	}
	patchPath, err := e.Emit(Result{
		HadChanges: true,
		Patch:      "@@ -1 +1 @@\n-a\n+b\n",
		Summary:    "Patch accepted",
		PRBody:     "### Cleanup\n",
	})
	if err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	if patchPath != e.PatchFile {
		t.Errorf("patch path = %q, want %q", patchPath, e.PatchFile)
	}

	data, err := os.ReadFile(e.PatchFile)
	if err != nil || string(data) != "@@ -1 +1 @@\n-a\n+b\n" {
		t.Errorf("patch file = %q, %v", data, err)
	}

	out, _ := os.ReadFile(e.GitHubOutputPath)
	for _, want := range []string{"had_changes=true\n", "patch<<ghadelimiter_", "summary=Patch accepted\n", "pr_body<<", "patch_file=" + e.PatchFile} {
		if !strings.Contains(string(out), want) {
			t.Errorf("GITHUB_OUTPUT missing %q:\n%s", want, out)
		}
	}

	if !strings.Contains(stdout.String(), "::set-output name=patch::@@ -1 +1 @@%0A-a%0A+b%0A") {
		t.Errorf("legacy output missing escaped patch: %q", stdout.String())
	}

	summary, _ := os.ReadFile(e.StepSummaryPath)
	if string(summary) != "Patch accepted\n" {
		t.Errorf("step summary = %q", summary)
	}
}

func TestEmitRejectedHasNoPatch(t *testing.T) {
	dir := t.TempDir()
	e := &Emitter{
		GitHubOutputPath: filepath.Join(dir, "output"),
		PatchFile:        filepath.Join(dir, "patch.diff"),
	}
	if _, err := e.Emit(Result{Reason: "TRUNCATED_TAIL", Summary: "rejected"}); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	out, _ := os.ReadFile(e.GitHubOutputPath)
	if strings.Contains(string(out), "patch") {
		t.Errorf("rejected run leaked patch output:\n%s", out)
	}
	if !strings.Contains(string(out), "reason=TRUNCATED_TAIL\n") {
		t.Errorf("missing reason:\n%s", out)
	}
	if _, err := os.Stat(e.PatchFile); !os.IsNotExist(err) {
		t.Errorf("patch file should not exist, stat err = %v", err)
	}
}

func TestEmitPassThrough(t *testing.T) {
	dir := t.TempDir()
	e := &Emitter{GitHubOutputPath: filepath.Join(dir, "output")}
	if _, err := e.Emit(Result{HadChanges: true, PatchURL: "https://example.com/p.diff", Summary: "reachable"}); err != nil {
		t.Fatal(err)
	}
	out, _ := os.ReadFile(e.GitHubOutputPath)
	if !strings.Contains(string(out), "patch_url=https://example.com/p.diff\n") {
		t.Errorf("missing patch_url:\n%s", out)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "/tmp/gh-out")
	t.Setenv("GITHUB_STEP_SUMMARY", "/tmp/gh-summary")
	var e Emitter
	e.FromEnv(true, false)
	if e.GitHubOutputPath != "/tmp/gh-out" || e.StepSummaryPath != "" {
		t.Errorf("unexpected paths: %+v", e)
	}
}
