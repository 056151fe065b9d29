package exec

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBasicExecution(t *testing.T) {
	result, err := New().Run("echo", "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, "hello world") {
		t.Errorf("expected stdout to contain 'hello world', got: %s", result.Stdout)
	}

	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got: %d", result.ExitCode)
	}
}

func TestCommandFailure(t *testing.T) {
	result, err := New().Run("sh", "-c", "echo oops >&2; exit 3")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecError, got: %T", err)
	}

	if execErr.ExitCode != 3 {
		t.Errorf("expected exit code 3, got: %d", execErr.ExitCode)
	}

	if result == nil || !strings.Contains(result.Stderr, "oops") {
		t.Errorf("expected captured stderr, got: %+v", result)
	}
}

func TestNoArgs(t *testing.T) {
	_, err := New().Run()
	if err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestWithStdin(t *testing.T) {
	result, err := New().WithStdin(strings.NewReader("protocol=https\nhost=example.com\n")).Run("cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Stdout != "protocol=https\nhost=example.com\n" {
		t.Errorf("unexpected stdout: %q", result.Stdout)
	}
}

func TestStdinIsLocal(t *testing.T) {
	e := New()
	if _, err := e.WithStdin(strings.NewReader("first")).Run("cat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := e.Run("cat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Stdout != "" {
		t.Errorf("expected stdin to be cleared after run, got: %q", result.Stdout)
	}
}

func TestEnvPrecedence(t *testing.T) {
	e := New(WithEnv(map[string]string{"SCOPE": "global", "ONLY_GLOBAL": "yes"}))

	result, err := e.WithEnv(map[string]string{"SCOPE": "local"}).Run("sh", "-c", "echo $SCOPE $ONLY_GLOBAL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.TrimSpace(result.Stdout) != "local yes" {
		t.Errorf("expected 'local yes', got: %q", result.Stdout)
	}

	result, err = e.Run("sh", "-c", "echo $SCOPE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.TrimSpace(result.Stdout) != "global" {
		t.Errorf("expected local env to be cleared, got: %q", result.Stdout)
	}
}

func TestWithDir(t *testing.T) {
	dir := t.TempDir()
	result, err := New().WithDir(dir).Run("pwd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Stdout, dir) {
		t.Errorf("expected stdout to contain %q, got: %s", dir, result.Stdout)
	}
}

func TestWithTimeout(t *testing.T) {
	start := time.Now()
	_, err := New().WithTimeout(100 * time.Millisecond).Run("sleep", "5")
	if err == nil {
		t.Fatal("expected timeout error")
	}

	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout was not enforced")
	}
}

func TestWithContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().WithContext(ctx).Run("sleep", "5")
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestCombinedOutput(t *testing.T) {
	result, err := New().Run("sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Combined, "out") || !strings.Contains(result.Combined, "err") {
		t.Errorf("expected combined output to contain both streams, got: %q", result.Combined)
	}
}

func TestClone(t *testing.T) {
	base := New(WithEnv(map[string]string{"BASE": "1"}))
	clone := base.Clone()

	result, err := clone.Run("sh", "-c", "echo $BASE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.TrimSpace(result.Stdout) != "1" {
		t.Errorf("expected clone to keep global env, got: %q", result.Stdout)
	}
}
