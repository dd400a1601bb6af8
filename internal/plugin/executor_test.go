package plugin

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeScriptPlugin(t *testing.T, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script plugins are not available on windows")
	}

	dir := t.TempDir()
	exe := filepath.Join(dir, "cue.sh")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Plugin{
		Manifest:   Manifest{Name: "test", Executable: "cue.sh"},
		Path:       dir,
		Executable: exe,
	}
}

func TestExecutor_Execute(t *testing.T) {
	p := writeScriptPlugin(t, `cat > /dev/null
echo '{"success": true}'`)

	e := NewExecutor(2 * time.Second)
	resp, err := e.Execute(p, &Request{Cue: "pain_scream", Phase: "pull_catheter"})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !resp.Success {
		t.Error("expected success response")
	}
}

func TestExecutor_PluginError(t *testing.T) {
	p := writeScriptPlugin(t, `cat > /dev/null
echo '{"success": false, "error": "no audio device"}'`)

	e := NewExecutor(2 * time.Second)
	resp, err := e.Execute(p, &Request{Cue: "success"})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if resp.Success {
		t.Error("expected failure response")
	}
	if resp.Error != "no audio device" {
		t.Errorf("unexpected error message %q", resp.Error)
	}
}

func TestExecutor_InvalidOutput(t *testing.T) {
	p := writeScriptPlugin(t, `cat > /dev/null
echo 'not json'`)

	e := NewExecutor(2 * time.Second)
	if _, err := e.Execute(p, &Request{Cue: "success"}); err == nil {
		t.Error("expected error for invalid plugin output")
	}
}

func TestExecutor_Timeout(t *testing.T) {
	p := writeScriptPlugin(t, `sleep 5`)

	e := NewExecutor(100 * time.Millisecond)
	_, err := e.Execute(p, &Request{Cue: "success"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout in error, got %v", err)
	}
}
