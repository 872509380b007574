package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/config"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/lock"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skills"
)

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	// Drain concurrently so large outputs never block on a full pipe.
	stdoutCh := make(chan []byte, 1)
	stderrCh := make(chan []byte, 1)
	go func() { b, _ := io.ReadAll(stdoutR); stdoutCh <- b }()
	go func() { b, _ := io.ReadAll(stderrR); stderrCh <- b }()

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes := <-stdoutCh
	stderrBytes := <-stderrCh

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func setVersionMetadataForTest(t *testing.T, v, commit, built string) {
	t.Helper()

	origVersion := version
	origCommit := gitCommit
	origBuildDate := buildDate

	version = v
	gitCommit = commit
	buildDate = built

	t.Cleanup(func() {
		version = origVersion
		gitCommit = origCommit
		buildDate = origBuildDate
	})
}

// setupEnv points config loading at a temp pai.yaml and clears variables
// that would leak in from the developer's shell.
func setupEnv(t *testing.T, yaml string) string {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pai.yaml")
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PAI_CONFIG", cfgPath)
	t.Setenv("PAI_DIR", dir)
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("PAI_SECRET_KEY", "")
	t.Setenv("PAI_TELEMETRY_URL", "")
	t.Setenv("PAI_LOG_LEVEL", "")
	t.Setenv("PORT", "")
	return dir
}

func TestRunCLINoArgsPrintsUsage(t *testing.T) {
	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI(nil)
	})
	if code != 1 {
		t.Fatalf("runCLI() code = %d, want 1", code)
	}
	if stdout != "" {
		t.Fatalf("stdout should be empty, got %q", stdout)
	}
	if !strings.Contains(stderr, "Usage:") {
		t.Fatalf("stderr missing usage: %s", stderr)
	}
}

func TestRunCLIUnknownCommandDoesNotLoadConfig(t *testing.T) {
	// A config path that does not exist would fail loading if it were read.
	t.Setenv("PAI_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	for _, name := range []string{"nope", "../../bin/sh", "ask/../story"} {
		code, stdout, stderr := captureOutputWithExitCode(t, func() int {
			return runCLI([]string{name, "arg"})
		})
		if code != 1 {
			t.Fatalf("runCLI(%q) code = %d, want 1", name, code)
		}
		if stdout != "" {
			t.Fatalf("runCLI(%q) stdout = %q, want empty", name, stdout)
		}
		if !strings.Contains(stderr, "Unknown command: "+name) {
			t.Fatalf("runCLI(%q) stderr missing unknown command: %s", name, stderr)
		}
		if strings.Contains(stderr, "config file not found") {
			t.Fatalf("runCLI(%q) loaded config: %s", name, stderr)
		}
	}
}

func TestRunCLIHelp(t *testing.T) {
	code, stdout, _ := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"help"})
	})
	if code != 0 {
		t.Fatalf("runCLI(help) code = %d", code)
	}
	for _, want := range []string{"Usage:", "ask", "wisdom", "roo-code", "serve", "doctor"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("usage missing %q: %s", want, stdout)
		}
	}
}

func TestUsageListsEveryRegisteredSkill(t *testing.T) {
	registry, err := skills.Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	var buf bytes.Buffer
	printUsage(&buf)
	out := buf.String()
	for _, cmd := range registry.All() {
		if !strings.Contains(out, strings.TrimPrefix(cmd.Usage, "pai ")) {
			t.Errorf("usage missing %q for %s", cmd.Usage, cmd.Name)
		}
		if !strings.Contains(out, cmd.Description) {
			t.Errorf("usage missing description %q for %s", cmd.Description, cmd.Name)
		}
	}
	if !strings.Contains(out, "story <prompt...>") {
		t.Errorf("usage missing external story skill: %s", out)
	}
}

func TestRunCLIRootVersionFlag(t *testing.T) {
	setVersionMetadataForTest(t, "1.2.3", "abc1234567890", "2026-02-12T11:30:00Z")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"--version"})
	})
	if code != 0 {
		t.Fatalf("runCLI() code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "pai 1.2.3") {
		t.Fatalf("stdout missing semantic version: %s", stdout)
	}
	if !strings.Contains(stdout, "commit: abc123456789") {
		t.Fatalf("stdout missing short commit: %s", stdout)
	}
	if !strings.Contains(stdout, "built_at: 2026-02-12T11:30:00Z") {
		t.Fatalf("stdout missing build time: %s", stdout)
	}
}

func TestRunVersionJSONOutputIncludesMetadata(t *testing.T) {
	setVersionMetadataForTest(t, "2.0.0-rc.1", "aabbccddeeff001122334455", "2026-02-12T11:30:00-05:00")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runVersion([]string{"--json"})
	})
	if code != 0 {
		t.Fatalf("runVersion() code = %d, stderr: %s", code, stderr)
	}

	var out versionInfo
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("failed to parse version JSON: %v\noutput=%s", err, stdout)
	}
	if out.Version != "2.0.0-rc.1" {
		t.Fatalf("version = %q, want %q", out.Version, "2.0.0-rc.1")
	}
	if out.Commit != "aabbccddeeff" {
		t.Fatalf("commit = %q, want %q", out.Commit, "aabbccddeeff")
	}
	if out.BuildTime != "2026-02-12T16:30:00Z" {
		t.Fatalf("build_time = %q, want %q", out.BuildTime, "2026-02-12T16:30:00Z")
	}
}

func TestRunSkillsListsAllowList(t *testing.T) {
	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"skills"})
	})
	if code != 0 {
		t.Fatalf("runCLI(skills) code = %d, stderr: %s", code, stderr)
	}
	for _, name := range []string{"ask", "wisdom", "sharaba", "roo-code", "route", "story"} {
		if !strings.Contains(stdout, name) {
			t.Fatalf("skills output missing %q: %s", name, stdout)
		}
	}
	if !strings.Contains(stdout, "external") {
		t.Fatalf("skills output missing external mode: %s", stdout)
	}
}

func TestRunSkillRouteNeedsNoCredential(t *testing.T) {
	setupEnv(t, "router:\n  default_model: test/router-model\n")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"route", "what", "model?"})
	})
	if code != 0 {
		t.Fatalf("runCLI(route) code = %d, stderr: %s", code, stderr)
	}
	if stdout != "test/router-model\n\n" {
		t.Fatalf("stdout = %q, want %q", stdout, "test/router-model\n\n")
	}
}

func TestRunSkillAskMissingCredential(t *testing.T) {
	setupEnv(t, "")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"ask", "hello"})
	})
	if code != 1 {
		t.Fatalf("runCLI(ask) code = %d, want 1", code)
	}
	if stdout != "" {
		t.Fatalf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "Error:") || !strings.Contains(stderr, "OPENROUTER_API_KEY") {
		t.Fatalf("stderr missing credential error: %s", stderr)
	}
}

func TestRunSkillRooCodeRewritesConfig(t *testing.T) {
	dir := t.TempDir()
	rooPath := filepath.Join(dir, "roo.json")
	if err := os.WriteFile(rooPath, []byte(`{"modes":["code"],"model_config":{"code":"old"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	setupEnv(t, "paths:\n  roo_config: "+rooPath+"\n")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"roo-code", "set-model", "--mode", "code", "--model", "new/model"})
	})
	if code != 0 {
		t.Fatalf("runCLI(roo-code) code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "new/model") {
		t.Fatalf("stdout missing model: %s", stdout)
	}

	data, err := os.ReadFile(rooPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"code": "new/model"`) {
		t.Fatalf("config not rewritten: %s", data)
	}
}

func TestRunSkillExternalPropagatesExitCode(t *testing.T) {
	skillsDir := t.TempDir()
	script := "echo \"story: $*\"\necho 'bun: something broke' >&2\nexit 4\n"
	if err := os.WriteFile(filepath.Join(skillsDir, "jules-the-storyteller.ts"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	setupEnv(t, "paths:\n  skills_dir: "+skillsDir+"\nskills:\n  interpreters:\n    typescript: sh\n")
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"story", "once", "upon"})
	})
	if code != 4 {
		t.Fatalf("runCLI(story) code = %d, want 4 (stderr: %s)", code, stderr)
	}
	if stdout != "story: once upon\n\n" {
		t.Fatalf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, `skill "story" failed (exit 4):`) {
		t.Fatalf("stderr missing failure line: %s", stderr)
	}
	if !strings.Contains(stderr, "bun: something broke") {
		t.Fatalf("stderr missing child stderr: %s", stderr)
	}
}

func TestRunDoctorJSON(t *testing.T) {
	setupEnv(t, "")

	code, stdout, stderr := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"doctor", "--json"})
	})

	var out struct {
		Valid    bool `json:"valid"`
		Warnings []struct {
			Category string `json:"category"`
		} `json:"warnings"`
	}
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("parse doctor JSON: %v\nstdout=%s\nstderr=%s", err, stdout, stderr)
	}
	if out.Valid != (code == 0) {
		t.Fatalf("valid = %v but exit code = %d", out.Valid, code)
	}
	found := false
	for _, w := range out.Warnings {
		if w.Category == "credential" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a credential warning: %s", stdout)
	}
}

func TestRunServeRefusesWhenLocked(t *testing.T) {
	dir := setupEnv(t, "")
	lockPath := filepath.Join(dir, "serve.lock")
	if err := os.WriteFile(filepath.Join(dir, "pai.yaml"), []byte("server:\n  lock_path: "+lockPath+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	held, err := lock.Acquire(lockPath)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer held.Release()

	code, _, _ := captureOutputWithExitCode(t, func() int {
		return runCLI([]string{"serve", "--listen", "127.0.0.1:0"})
	})
	if code != 1 {
		t.Fatalf("runCLI(serve) code = %d, want 1", code)
	}
}

func TestServeLogOptions(t *testing.T) {
	cfg := config.Defaults()

	got := serveLogOptions(cfg, "", "")
	if got.Level != "info" || got.Format != "json" {
		t.Fatalf("defaults = %+v, want info/json", got)
	}

	cfg.Log.Level = "debug"
	cfg.Log.Format = "text"
	got = serveLogOptions(cfg, "", "")
	if got.Level != "debug" || got.Format != "json" {
		t.Fatalf("configured = %+v, want debug/json", got)
	}

	got = serveLogOptions(cfg, "error", "text")
	if got.Level != "error" || got.Format != "text" {
		t.Fatalf("flags = %+v, want error/text", got)
	}
}

func TestPrintErrorKeepsChildStderr(t *testing.T) {
	err := &skill.Error{
		Kind:     skill.KindSubprocess,
		Skill:    "story",
		Err:      errors.New("process exited with status 2"),
		ExitCode: 2,
		Stderr:   "line one\nline two\n",
	}

	_, _, stderr := captureOutputWithExitCode(t, func() int {
		printError(err)
		return 0
	})
	want := "Error: skill \"story\" failed (exit 2):\nline one\nline two\n"
	if stderr != want {
		t.Fatalf("stderr = %q, want %q", stderr, want)
	}
}
