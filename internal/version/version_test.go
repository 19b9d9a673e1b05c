package version

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestHelperProcess stands in for git when execCommand is mocked. The
// MOCK_GIT variable lists the subcommands that fail or print nothing,
// e.g. "commit-fail,tags-empty".
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 4 || args[1] != "git" || args[2] != "describe" {
		os.Exit(2)
	}

	mode := os.Getenv("MOCK_GIT")
	switch args[3] {
	case "--always":
		if strings.Contains(mode, "commit-fail") {
			os.Exit(1)
		}
		os.Stdout.WriteString("4f2a9c1\n")
	case "--tags":
		if strings.Contains(mode, "tags-fail") {
			os.Exit(1)
		}
		if !strings.Contains(mode, "tags-empty") {
			os.Stdout.WriteString("v0.3.0\n")
		}
	}
}

func fakeGit(mode string) func(context.Context, string, ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1", "MOCK_GIT=" + mode}
		return cmd
	}
}

func TestResolveFromGit(t *testing.T) {
	orig := execCommand
	t.Cleanup(func() {
		execCommand = orig
		Reset()
	})

	tests := []struct {
		name       string
		mode       string
		wantVer    string
		wantCommit string
	}{
		{name: "tagged checkout", wantVer: "v0.3.0", wantCommit: "4f2a9c1"},
		{name: "no commit", mode: "commit-fail", wantVer: "v0.3.0", wantCommit: "unknown"},
		{name: "no tags", mode: "tags-fail", wantVer: "dev", wantCommit: "4f2a9c1"},
		{name: "empty tag output", mode: "tags-empty", wantVer: "dev", wantCommit: "4f2a9c1"},
		{name: "not a repository", mode: "commit-fail,tags-fail", wantVer: "dev", wantCommit: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			execCommand = fakeGit(tt.mode)

			if got := GetVersion(); got != tt.wantVer {
				t.Errorf("GetVersion() = %q, want %q", got, tt.wantVer)
			}
			if got := GetCommit(); got != tt.wantCommit {
				t.Errorf("GetCommit() = %q, want %q", got, tt.wantCommit)
			}

			info := Info()
			if !strings.HasPrefix(info, Name+" "+tt.wantVer) {
				t.Errorf("Info() = %q, want prefix %q", info, Name+" "+tt.wantVer)
			}
			if !strings.Contains(info, "commit: "+tt.wantCommit) {
				t.Errorf("Info() = %q, missing commit", info)
			}
		})
	}
}

func TestGetDate(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if GetDate() == "" {
		t.Error("GetDate() returned empty string")
	}
}

func TestBuildFlagsTakePrecedence(t *testing.T) {
	orig := execCommand
	t.Cleanup(func() {
		execCommand = orig
		Reset()
	})

	Reset()
	execCommand = fakeGit("")
	Version, Commit, Date = "2.1.0", "abc123", "2024-05-01"

	if GetVersion() != "2.1.0" || GetCommit() != "abc123" || GetDate() != "2024-05-01" {
		t.Error("values set at build time must not be overwritten")
	}
}
