package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"narrasync/internal/config"
	"narrasync/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	media      *testsupport.FakeMedia
	configPath string
	baseDir    string
	video      string
	subtitle   string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("NARRASYNC_VOICE", "")
	t.Chdir(base)

	configPath := filepath.Join(base, "narrasync.toml")
	writeTestConfig(t, configPath, cfg)

	env := &cliTestEnv{
		cfg: cfg,
		media: &testsupport.FakeMedia{
			SampleRate: cfg.Narration.SampleRate,
			Durations: map[string]time.Duration{
				"Hello there": 1500 * time.Millisecond,
				"Second line": 2500 * time.Millisecond,
			},
			Default: time.Second,
		},
		configPath: configPath,
		baseDir:    base,
		video:      filepath.Join(base, "in", "video01.mp4"),
		subtitle:   filepath.Join(base, "in", "video01.srt"),
	}
	testsupport.WriteFile(t, env.video, 1024)
	testsupport.WriteSubtitle(t, env.subtitle,
		testsupport.Cue(1, 0, 2000, "Hello there"),
		testsupport.Cue(2, 3000, 5000, "Second line"),
	)
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWithRunner(e.media.Runner())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
