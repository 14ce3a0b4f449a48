package main

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"narrasync/internal/pipeline"
	"narrasync/internal/services"
	"narrasync/internal/subtitle"
	"narrasync/internal/testsupport"
)

func TestRunCommandWritesOutputAndSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	output := filepath.Join(env.baseDir, "out", "narrated.mp4")

	stdout, _, err := env.run(t, "run", env.video, env.subtitle, "-o", output, "--speed", "1.5")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, stdout, "2 spoken, 1 silent")
	requireContains(t, stdout, output)
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected output: %v", err)
	}

	var sawTempo bool
	for _, call := range env.media.Calls() {
		if strings.Contains(strings.Join(call.Args, " "), "atempo=1.5") {
			sawTempo = true
		}
	}
	if !sawTempo {
		t.Fatal("expected --speed to reach the tempo pass")
	}
}

func TestRunCommandDefaultsOutputIntoOutputDir(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := env.run(t, "run", env.video, env.subtitle, "-q"); err != nil {
		t.Fatalf("run: %v", err)
	}
	entries, err := os.ReadDir(env.cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	pattern := regexp.MustCompile(`^video01-[0-9a-f]{8}\.mp4$`)
	var found bool
	for _, entry := range entries {
		if pattern.MatchString(entry.Name()) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected generated output name in %s", env.cfg.Paths.OutputDir)
	}
}

func TestRunCommandMalformedSubtitleExitCode(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.subtitle, []byte("1\n00:00:02,000 --> 00:00:01\nhi\n"), 0o644); err != nil {
		t.Fatalf("write subtitle: %v", err)
	}

	_, _, err := env.run(t, "run", env.video, env.subtitle)
	if !errors.Is(err, subtitle.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestBatchCommandCountMismatch(t *testing.T) {
	env := setupCLITestEnv(t)
	videos := filepath.Join(env.baseDir, "videos")
	subs := filepath.Join(env.baseDir, "subs")
	testsupport.WriteFile(t, filepath.Join(videos, "a.mp4"), 8)
	if err := os.MkdirAll(subs, 0o755); err != nil {
		t.Fatalf("mkdir subs: %v", err)
	}

	_, _, err := env.run(t, "batch", videos, subs)
	if !errors.Is(err, pipeline.ErrCountMismatch) {
		t.Fatalf("expected ErrCountMismatch, got %v", err)
	}
	if len(env.media.Calls()) != 0 {
		t.Fatal("expected no external tool calls")
	}
}

func TestBatchCommandPrintsItems(t *testing.T) {
	env := setupCLITestEnv(t)
	videos := filepath.Join(env.baseDir, "videos")
	subs := filepath.Join(env.baseDir, "subs")
	outDir := filepath.Join(env.baseDir, "batch-out")
	testsupport.WriteFile(t, filepath.Join(videos, "a.mp4"), 8)
	testsupport.WriteFile(t, filepath.Join(videos, "b.mp4"), 8)
	testsupport.WriteSubtitle(t, filepath.Join(subs, "a.srt"), testsupport.Cue(1, 0, 1000, "Hello there"))
	testsupport.WriteSubtitle(t, filepath.Join(subs, "b.srt"), testsupport.Cue(1, 500, 1500, "Second line"))

	stdout, _, err := env.run(t, "batch", videos, subs, "-o", outDir)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	requireContains(t, stdout, "a.mp4")
	requireContains(t, stdout, "b.srt")
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(entries))
	}
}

func TestPlanCommandPrintsSegments(t *testing.T) {
	env := setupCLITestEnv(t)
	env.media.FailText = map[string]bool{"Second line": true}

	stdout, _, err := env.run(t, "plan", env.subtitle)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, stdout, "silent (filler)")
	requireContains(t, stdout, "00:00:03,000")
	requireContains(t, stdout, "1 spoken, 2 silent")
	requireContains(t, stdout, "warning: cue 2")
	for _, call := range env.media.Calls() {
		if strings.HasSuffix(call.Name, "ffprobe") {
			t.Fatal("plan should not inspect video")
		}
	}
}

func TestVoicesCommandFiltersLocale(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := env.run(t, "voices", "--locale", "en-US")
	if err != nil {
		t.Fatalf("voices: %v", err)
	}
	requireContains(t, stdout, "en-US-GuyNeural")
	requireContains(t, stdout, "American English")
	if strings.Contains(stdout, "NatashaNeural") {
		t.Fatalf("expected en-AU voice to be filtered out:\n%s", stdout)
	}
}

func TestSayCommandWritesPreview(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "preview.mp3")

	stdout, _, err := env.run(t, "say", "--voice", "en-US-GuyNeural", "-o", target, "Hello", "there")
	if err != nil {
		t.Fatalf("say: %v", err)
	}
	requireContains(t, stdout, target)
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "Hello there" {
		t.Fatalf("unexpected preview %q (%v)", data, err)
	}
}

func TestHistoryCommandListsRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	stdout, _, err := env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, stdout, "No runs recorded")

	output := filepath.Join(env.baseDir, "out", "narrated.mp4")
	runOut, _, err := env.run(t, "run", env.video, env.subtitle, "-o", output)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	id := regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`).FindString(runOut)
	if id == "" {
		t.Fatalf("run id missing from output:\n%s", runOut)
	}

	stdout, _, err = env.run(t, "history", "--status", "succeeded")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, stdout, id[:8])
	requireContains(t, stdout, "video01.mp4")
	requireContains(t, stdout, "2/1")

	stdout, _, err = env.run(t, "history", "show", id[:8])
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, stdout, id)
	requireContains(t, stdout, output)
}

func TestCheckCommandReportsTools(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	stdout, _, err := env.run(t, "check")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, stdout, "FFmpeg")
	requireContains(t, stdout, "edge-tts version test")
	requireContains(t, stdout, "Work directory")
}

func TestCheckCommandFailsWithoutTools(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", t.TempDir())

	stdout, _, err := env.run(t, "check")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	requireContains(t, stdout, "NO")
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "fresh", "config.toml")

	stdout, _, err := env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout, target)

	if _, _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, _, err := env.run(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateReportsPaths(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, stdout, env.configPath)
	requireContains(t, stdout, env.cfg.Paths.WorkDir)
	requireContains(t, stdout, "Configuration valid")
}

func TestInvalidConfigFailsBeforeCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithSpeed(1.2))
	if err := os.WriteFile(env.configPath, []byte("[tempo]\nspeed = 9.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, err := env.run(t, "history")
	if err == nil || !strings.Contains(err.Error(), "tempo.speed") {
		t.Fatalf("expected tempo.speed validation error, got %v", err)
	}
}
