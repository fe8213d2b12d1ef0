// Package agent invokes the external code-assessment agent. The agent is any
// command that prints its result on stdout; patchgate does not talk to model
// providers itself.
package agent

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Agent produces raw assessment output.
type Agent interface {
	Assess(ctx context.Context) (*Output, error)
}

// Output is what an agent printed and how long it took.
type Output struct {
	Text     string
	Stderr   string
	Duration time.Duration
}

// New returns the built-in mock for "mock" and a shell agent otherwise.
func New(command, dir string) Agent {
	if command == "mock" {
		return Mock{}
	}
	return &Shell{Command: command, Dir: dir}
}

// Shell runs the assessment as a shell command.
type Shell struct {
	Command string
	Dir     string
}

func (s *Shell) Assess(ctx context.Context) (*Output, error) {
	start := time.Now()

	if s.Command == "" {
		return nil, fmt.Errorf("shell agent: no command configured")
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", s.Command)
	cmd.Dir = s.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("agent command %q failed: %w\nstderr: %s", s.Command, err, stderr.String())
	}

	return &Output{
		Text:     stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}, nil
}

// Mock returns a fixed README cleanup assessment for local runs and CI dry-runs.
type Mock struct{}

const mockAssessment = `{
  "changes": [
    {
      "path": "README.md",
      "patch": "diff --git a/README.md b/README.md\n--- a/README.md\n+++ b/README.md\n@@ -538,1 +538,0 @@\n- - [Component Examples](src/example.tsx)\n"
    }
  ],
  "hadChanges": true,
  "prBody": "### 🧹 Automated README cleanup\nRemoved a dead link to ` + "`src/example.tsx`" + ` that no longer exists.\n"
}
`

func (Mock) Assess(ctx context.Context) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Output{Text: mockAssessment}, nil
}
