package github

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"
)

// mockRunner replaces ghRun with a function that returns the given output/error.
func mockRunner(t *testing.T, out []byte, err error) {
	t.Helper()
	orig := ghRun
	t.Cleanup(func() { ghRun = orig })
	ghRun = func(args ...string) ([]byte, error) {
		return out, err
	}
}

// notFoundError simulates exec.ErrNotFound wrapped the same way exec.Command does.
func notFoundError() error {
	return &exec.Error{Name: "gh", Err: exec.ErrNotFound}
}

func TestCheckGHVersion(t *testing.T) {
	cases := []struct {
		name    string
		output  string
		runErr  error
		wantVer string
		wantErr string
	}{
		{
			name:    "success v2",
			output:  "gh version 2.45.0 (2024-01-01)\nhttps://github.com/cli/cli/releases/tag/v2.45.0\n",
			wantVer: "2.45.0",
		},
		{
			name:    "not installed",
			runErr:  notFoundError(),
			wantErr: "not found on PATH",
		},
		{
			name:    "version too old",
			output:  "gh version 1.14.0 (2021-06-01)\n",
			wantErr: "too old",
		},
		{
			name:    "v-prefixed version",
			output:  "gh version v2.0.1\n",
			wantVer: "2.0.1",
		},
		{
			name:    "unexpected output format",
			output:  "unexpected\n",
			wantErr: "unrecognized gh --version output",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockRunner(t, []byte(tc.output), tc.runErr)
			ver, err := CheckGHVersion()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if ver != tc.wantVer {
					t.Errorf("version = %q, want %q", ver, tc.wantVer)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestCheckGHAuth(t *testing.T) {
	cases := []struct {
		name    string
		host    string
		runErr  error
		wantErr string
	}{
		{name: "authenticated default host"},
		{name: "authenticated enterprise", host: "ghe.example.com"},
		{name: "not installed", runErr: notFoundError(), wantErr: "not found on PATH"},
		{name: "not authenticated", runErr: fmt.Errorf("exit status 1"), wantErr: "no credentials for github.com"},
		{name: "not authenticated enterprise", host: "ghe.example.com", runErr: fmt.Errorf("exit status 1"), wantErr: "no credentials for ghe.example.com"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockRunner(t, nil, tc.runErr)
			err := CheckGHAuth(tc.host)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestCheckGHAuthPassesHostname(t *testing.T) {
	orig := ghRun
	t.Cleanup(func() { ghRun = orig })
	var capturedArgs []string
	ghRun = func(args ...string) ([]byte, error) {
		capturedArgs = args
		return nil, nil
	}

	if err := CheckGHAuth("ghe.example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(capturedArgs, " ") != "auth status --hostname ghe.example.com" {
		t.Errorf("unexpected args: %v", capturedArgs)
	}
}

func TestCheckGHVersionMissing(t *testing.T) {
	mockRunner(t, nil, notFoundError())
	if _, err := CheckGHVersion(); !errors.Is(err, ErrGHMissing) {
		t.Errorf("expected ErrGHMissing, got %v", err)
	}
}

func TestIsGhNotFound(t *testing.T) {
	if !isGhNotFound(&exec.Error{Name: "gh", Err: exec.ErrNotFound}) {
		t.Error("expected true for exec.ErrNotFound")
	}
	if isGhNotFound(errors.New("some other error")) {
		t.Error("expected false for non-ErrNotFound error")
	}
}
