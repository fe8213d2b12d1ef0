package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/futureCreator/patchgate/internal/patch"
)

// Statuses recorded in meta.json.
const (
	StatusRunning  = "running"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusNoChange = "no-changes"
	StatusFailed   = "failed"
)

// PatchFile is the name of the accepted patch inside a run directory.
const PatchFile = "patch.diff"

// Run represents a single assessment run.
type Run struct {
	ID   string
	Dir  string
	Meta Meta
}

// Meta holds metadata about a run, persisted to meta.json.
type Meta struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	Command    string            `json:"command"` // "check" | "assess"
	Source     string            `json:"source"`
	Status     string            `json:"status"`
	Reason     patch.Reason      `json:"reason,omitempty"`
	Diagnostic *patch.Diagnostic `json:"diagnostic,omitempty"`
	Paths      []string          `json:"paths,omitempty"`
	DurationMS int64             `json:"duration_ms"`
	Error      string            `json:"error,omitempty"`
	GitBranch  string            `json:"git_branch"`
	GitCommit  string            `json:"git_commit"`
}

// New creates a new run directory under <base>/runs/.
func New(base, command, source, gitBranch, gitCommit string) (*Run, error) {
	now := time.Now()
	ms := now.UnixMilli() % 1000
	runID := uuid.NewString()
	// The uuid prefix keeps ids unique for runs started in the same millisecond.
	id := fmt.Sprintf("%s-%03d-%s-%s",
		now.Format("20060102-150405"),
		ms,
		sanitizeSlug(command+"-"+source),
		runID[:8],
	)

	baseDir := filepath.Join(base, "runs")
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating runs dir: %w", err)
	}

	dir := filepath.Join(baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating run dir: %w", err)
	}

	r := &Run{
		ID:  id,
		Dir: dir,
		Meta: Meta{
			RunID:     runID,
			StartedAt: now,
			Command:   command,
			Source:    source,
			Status:    StatusRunning,
			GitBranch: gitBranch,
			GitCommit: gitCommit,
		},
	}

	if err := r.SaveMeta(); err != nil {
		return nil, err
	}

	if err := updateLatestLink(baseDir, id); err != nil {
		return nil, err
	}

	return r, nil
}

// SaveMeta writes meta.json to the run directory.
func (r *Run) SaveMeta() error {
	data, err := json.MarshalIndent(r.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling meta: %w", err)
	}
	path := filepath.Join(r.Dir, "meta.json")
	return os.WriteFile(path, data, 0644)
}

// Record stores the verdict, and the patch itself when accepted.
func (r *Run) Record(v patch.Verdict) error {
	r.Meta.DurationMS = time.Since(r.Meta.StartedAt).Milliseconds()
	diag := v.Diagnostic
	r.Meta.Diagnostic = &diag
	if v.Valid {
		r.Meta.Status = StatusAccepted
		if err := os.WriteFile(r.FilePath(PatchFile), v.Patch.Bytes(), 0644); err != nil {
			return fmt.Errorf("writing patch: %w", err)
		}
	} else {
		r.Meta.Status = StatusRejected
		r.Meta.Reason = v.Reason
	}
	return r.SaveMeta()
}

// RecordProbe stores the outcome of a pass-through reachability check.
func (r *Run) RecordProbe(res patch.ProbeResult) error {
	r.Meta.DurationMS = time.Since(r.Meta.StartedAt).Milliseconds()
	diag := res.Diagnostic
	r.Meta.Diagnostic = &diag
	if res.Reachable {
		r.Meta.Status = StatusAccepted
	} else {
		r.Meta.Status = StatusRejected
		r.Meta.Reason = res.Reason
	}
	return r.SaveMeta()
}

// NoChanges marks a run where the agent reported nothing to change.
func (r *Run) NoChanges() error {
	r.Meta.DurationMS = time.Since(r.Meta.StartedAt).Milliseconds()
	r.Meta.Status = StatusNoChange
	return r.SaveMeta()
}

// Fail marks the run as failed with an error message.
func (r *Run) Fail(msg string) error {
	r.Meta.DurationMS = time.Since(r.Meta.StartedAt).Milliseconds()
	r.Meta.Status = StatusFailed
	r.Meta.Error = msg
	return r.SaveMeta()
}

// FilePath returns the path to a file within this run directory.
func (r *Run) FilePath(name string) string {
	return filepath.Join(r.Dir, name)
}

// WriteFile writes content to a named file in the run directory.
func (r *Run) WriteFile(name, content string) error {
	return os.WriteFile(r.FilePath(name), []byte(content), 0644)
}

// List loads the metadata of every recorded run under <base>/runs/.
// Unreadable entries are skipped.
func List(base string) ([]Meta, error) {
	runsDir := filepath.Join(base, "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return nil, err
	}
	var metas []Meta
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "latest" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(runsDir, e.Name(), "meta.json"))
		if err != nil {
			continue
		}
		var meta Meta
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// updateLatestLink atomically updates the "latest" symlink.
func updateLatestLink(baseDir, id string) error {
	latestPath := filepath.Join(baseDir, "latest")
	tmpPath := latestPath + ".tmp"

	// Remove any stale tmp link
	os.Remove(tmpPath)

	if err := os.Symlink(id, tmpPath); err != nil {
		return fmt.Errorf("creating temp symlink: %w", err)
	}
	if err := os.Rename(tmpPath, latestPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("updating latest symlink: %w", err)
	}
	return nil
}

var nonAlphanumRe = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeSlug converts a string to a URL-friendly slug.
func sanitizeSlug(s string) string {
	s = strings.ToLower(s)
	s = nonAlphanumRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = s[:40]
		s = strings.TrimRight(s, "-")
	}
	if s == "" {
		s = "run"
	}
	return s
}
