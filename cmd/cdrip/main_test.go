package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cdrip/internal/config"
	"cdrip/internal/engine"
	"cdrip/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	engine     *testsupport.FakeEngine
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	fake := testsupport.NewFakeEngine()
	previous := engineOpener
	engineOpener = func() (engine.Engine, error) { return fake, nil }
	t.Cleanup(func() { engineOpener = previous })

	return &cliTestEnv{cfg: cfg, engine: fake, configPath: configPath}
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

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestFormatsCommandListsSupport(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "formats")
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	for _, want := range []string{"opus", "Ogg Vorbis", ".m4a", "lossless", "yes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("formats output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatsCommandSkipsSupportCheck(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "formats", "--probe=false")
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	if !strings.Contains(out, "unknown") {
		t.Fatalf("expected unknown support column:\n%s", out)
	}
	if len(env.engine.Elements()) != 0 {
		t.Fatal("engine should not be touched")
	}
}

func TestRipCommandWritesReportAndHistory(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistory())

	out, err := env.run(t, "rip", "--tracks", "2", "--title", "Demo", "--format", "flac")
	if err != nil {
		t.Fatalf("rip: %v\n%s", err, out)
	}
	for _, want := range []string{`Ripping "Demo" (2 tracks)`, "Track 2", "2 of 2 tracks succeeded"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rip output missing %q:\n%s", want, out)
		}
	}
	if got := len(env.engine.Graphs()); got != 2 {
		t.Fatalf("expected 2 encode graphs, got %d", got)
	}

	out, err = env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for _, want := range []string{"Demo", "flac", "Completed", "2/2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("history output missing %q:\n%s", want, out)
		}
	}
}

func TestRipCommandFailsWhenEveryTrackFails(t *testing.T) {
	env := setupCLITestEnv(t)
	env.engine.Script(engine.ErrorMessage{Source: "encoder", Err: os.ErrInvalid})

	out, err := env.run(t, "rip", "--tracks", "2", "--skip-checks")
	if err == nil {
		t.Fatalf("expected rip failure:\n%s", out)
	}
	if !strings.Contains(err.Error(), "0 of 2 tracks succeeded") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRipCommandRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, err := env.run(t, "rip", "--tracks", "1", "--format", "ape"); err == nil {
		t.Fatal("expected unknown format error")
	}
	if len(env.engine.Graphs()) != 0 {
		t.Fatal("no graph should be built for an unknown format")
	}
}

func TestRipCommandStopsOnMissingElements(t *testing.T) {
	env := setupCLITestEnv(t)
	env.engine.MissingFactory("cdparanoiasrc")

	_, err := env.run(t, "rip", "--tracks", "1")
	if err == nil || !strings.Contains(err.Error(), "cdparanoiasrc") {
		t.Fatalf("expected preflight error naming the source element, got %v", err)
	}
	if len(env.engine.Graphs()) != 0 {
		t.Fatal("no graph should be built when preflight fails")
	}
}

func TestFilesCommandListsAudioFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.OutputDir, "01 - A - B - C.flac"), 2048)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.OutputDir, "02 - A - B - D.opus"), 1024)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.OutputDir, "cover.jpg"), 10)

	out, err := env.run(t, "files")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if !strings.Contains(out, "01 - A - B - C.flac") || !strings.Contains(out, "2 files") {
		t.Fatalf("unexpected files output:\n%s", out)
	}
	if strings.Contains(out, "cover.jpg") {
		t.Fatalf("non-audio file listed:\n%s", out)
	}
}

func TestFilesCommandEmptyDirectory(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "files")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if !strings.Contains(out, "No audio files") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestHistoryCommandRequiresHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := env.run(t, "history")
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("expected disabled error, got %v", err)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(out, "Notifications disabled") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPlayCDRejectsInvalidTrack(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, err := env.run(t, "play", "cd", "zero"); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := env.run(t, "play", "cd", "0"); err == nil {
		t.Fatal("expected invalid track error")
	}
}

func TestPlayFilePlaysToEndOfStream(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.cfg.Paths.OutputDir, "song.flac")
	testsupport.WriteFile(t, path, 64)

	out, err := env.run(t, "play", "file", path)
	if err != nil {
		t.Fatalf("play file: %v", err)
	}
	if !strings.Contains(out, "Playing "+path) {
		t.Fatalf("unexpected output:\n%s", out)
	}
	graph := env.engine.LastGraph()
	if graph == nil || graph.Name() != "play-file" {
		t.Fatalf("expected play-file graph, got %v", graph)
	}
	if graph.State() != engine.StateNull {
		t.Fatalf("graph not torn down: %v", graph.State())
	}
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output missing %q:\n%s", want, out)
	}
}

func TestLogsCommandFiltersByBatch(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, "cdrip.log")
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	content := "INFO batch started batch_id=aaa\nINFO batch started batch_id=bbb\nWARN track failed batch_id=aaa\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, err := env.run(t, "logs", "--batch", "aaa")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "track failed batch_id=aaa")
	if strings.Contains(out, "bbb") {
		t.Fatalf("filtered line shown:\n%s", out)
	}
}

func TestManifestThenRip(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHistory())
	manifest := filepath.Join(testsupport.BaseDir(env.cfg), "album.toml")

	out, err := env.run(t, "manifest", manifest, "--tracks", "3", "--title", "Blue", "--artist", "Trio")
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	requireContains(t, out, "Wrote 3-track manifest")
	if _, err := env.run(t, "manifest", manifest, "--tracks", "3"); err == nil {
		t.Fatal("expected refusal to overwrite manifest")
	}

	out, err = env.run(t, "rip", "--manifest", manifest, "--format", "opus")
	if err != nil {
		t.Fatalf("rip: %v\n%s", err, out)
	}
	requireContains(t, out, "3 of 3 tracks succeeded")
	requireContains(t, out, "01 - Trio - Blue - Track 1.opus")
}

func TestDoctorReportsMissingElements(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	out, err := env.run(t, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "All required checks passed")
	requireContains(t, out, "encodebin")

	env.engine.MissingFactory("audioresample")
	out, err = env.run(t, "doctor")
	if err == nil || !strings.Contains(err.Error(), "1 required check(s) failed") {
		t.Fatalf("expected one failed check, got %v\n%s", err, out)
	}
}
