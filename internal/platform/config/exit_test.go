package config_test

import (
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/hellovoter/hellovoter/internal/platform/config"
)

// TestExitf_ExitsWithCode1 uses the subprocess pattern because os.Exit
// cannot be intercepted in-process.
func TestExitf_ExitsWithCode1(t *testing.T) {
	if os.Getenv("TEST_EXITF_SUBPROCESS") == "1" {
		config.Exitf("fatal: %s", "something broke")
		return
	}

	out, code := runSubprocess(t, "^TestExitf_ExitsWithCode1$", "TEST_EXITF_SUBPROCESS=1")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, "fatal: something broke") {
		t.Fatalf("expected stderr to contain %q, got %q", "fatal: something broke", out)
	}
}

func TestExitCode_UsesGivenCode(t *testing.T) {
	if os.Getenv("TEST_EXITCODE_SUBPROCESS") == "1" {
		config.ExitCode(4, "blocked: %d", 403)
		return
	}

	out, code := runSubprocess(t, "^TestExitCode_UsesGivenCode$", "TEST_EXITCODE_SUBPROCESS=1")
	if code != 4 {
		t.Fatalf("exit code = %d, want 4", code)
	}
	if !strings.Contains(out, "blocked: 403") {
		t.Fatalf("expected stderr to contain %q, got %q", "blocked: 403", out)
	}
}

func runSubprocess(t *testing.T, pattern, env string) (string, int) {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run="+pattern)
	cmd.Env = append(os.Environ(), env)

	out, err := cmd.CombinedOutput()
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected *exec.ExitError, got %T: %v", err, err)
	}
	return string(out), exitErr.ExitCode()
}
