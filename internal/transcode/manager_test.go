package transcode_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"cdrip/internal/audio"
	"cdrip/internal/disc"
	"cdrip/internal/encoding"
	"cdrip/internal/engine"
	"cdrip/internal/history"
	"cdrip/internal/logging"
	"cdrip/internal/metadata"
	"cdrip/internal/services"
	"cdrip/internal/testsupport"
	"cdrip/internal/transcode"
)

func threeTrackAlbum() metadata.AlbumDetails {
	return metadata.AlbumDetails{
		Title:  "X",
		Artist: "Band",
		Tracks: []metadata.TrackDetails{
			{Number: 1, Title: "One", Artist: "Band"},
			{Number: 2, Title: "Two", Artist: "Band"},
			{Number: 3, Title: "A/B"},
		},
	}
}

// writingEngine returns a fake engine whose graphs write their sink location
// on start, except for the listed tracks, which fail with an engine error.
func writingEngine(t *testing.T, failTracks ...int) *testsupport.FakeEngine {
	t.Helper()
	failing := map[string]bool{}
	for _, n := range failTracks {
		failing[graphName(n)] = true
	}
	return testsupport.NewFakeEngine().OnPlaying(func(g *testsupport.FakeGraph) {
		if failing[g.Name()] {
			g.Post(engine.ErrorMessage{Source: "encoder", Err: errors.New("simulated encoder fault")})
			return
		}
		location, _ := g.Element("filesink").Property("location")
		if err := os.WriteFile(location.(string), []byte("encoded"), 0o644); err != nil {
			t.Errorf("write output: %v", err)
		}
	})
}

func graphName(track int) string {
	return fmt.Sprintf("encode-track-%02d", track)
}

func TestTranscodeAlbumIsolatesTrackFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	eng := writingEngine(t, 2)
	mgr := transcode.NewManager(cfg, encoding.NewEncoder(eng, cfg, nil), logging.NewNop())

	report, err := mgr.TranscodeAlbum(context.Background(), threeTrackAlbum(), audio.Opus)
	if err != nil {
		t.Fatalf("TranscodeAlbum returned error for partial batch: %v", err)
	}

	if report.Summary() != "2 of 3 tracks succeeded" {
		t.Fatalf("summary = %q", report.Summary())
	}
	if report.Status() != history.BatchPartial {
		t.Fatalf("status = %q", report.Status())
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Track.Number != 2 || !errors.Is(failed[0].Err, services.ErrRuntime) {
		t.Fatalf("unexpected failures %+v", failed)
	}

	for _, name := range []string{"01 - Band - X - One.opus", "03 - Unknown - X - A_B.opus"} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, name)); err != nil {
			t.Fatalf("expected output %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, "02 - Band - X - Two.opus")); !os.IsNotExist(err) {
		t.Fatalf("failed track should not produce output, stat err %v", err)
	}

	for _, g := range eng.Graphs() {
		if g.State() != engine.StateNull {
			t.Fatalf("graph %s left in %s", g.Name(), g.State())
		}
	}
}

func TestTranscodeAlbumPreservesAlbumOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	eng := writingEngine(t)
	mgr := transcode.NewManager(cfg, encoding.NewEncoder(eng, cfg, nil), nil)

	album := threeTrackAlbum()
	if _, err := mgr.TranscodeAlbum(context.Background(), album, audio.FLAC); err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, g := range eng.Graphs() {
		names = append(names, g.Name())
	}
	want := []string{graphName(1), graphName(2), graphName(3)}
	if !slices.Equal(names, want) {
		t.Fatalf("graph order = %v, want %v", names, want)
	}
}

func TestTranscodeAlbumCreatesOutputDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.OutputDir = filepath.Join(cfg.Paths.OutputDir, "nested", "deeper")
	mgr := transcode.NewManager(cfg, encoding.NewEncoder(writingEngine(t), cfg, nil), nil)

	report, err := mgr.TranscodeAlbum(context.Background(), threeTrackAlbum(), audio.MP3)
	if err != nil {
		t.Fatal(err)
	}
	if report.Succeeded() != 3 || report.Status() != history.BatchCompleted {
		t.Fatalf("unexpected report %s / %s", report.Summary(), report.Status())
	}
}

func TestTranscodeAlbumPreconditionFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocker := filepath.Join(testsupport.BaseDir(cfg), "blocker")
	testsupport.WriteFile(t, blocker, 1)
	cfg.Paths.OutputDir = filepath.Join(blocker, "output")

	eng := testsupport.NewFakeEngine()
	notifier := &recordingNotifier{}
	mgr := transcode.NewManager(cfg, encoding.NewEncoder(eng, cfg, nil), nil, transcode.WithNotifier(notifier))

	_, err := mgr.TranscodeAlbum(context.Background(), threeTrackAlbum(), audio.Opus)
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if len(eng.Graphs()) != 0 {
		t.Fatal("no track should be attempted after a precondition failure")
	}
	if notifier.errors != 1 {
		t.Fatalf("expected one error notification, got %d", notifier.errors)
	}
}

func TestTranscodeAlbumCancellationStopsBetweenTracks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := testsupport.NewFakeEngine().Script().OnPlaying(func(*testsupport.FakeGraph) { cancel() })
	notifier := &recordingNotifier{}
	mgr := transcode.NewManager(cfg, encoding.NewEncoder(eng, cfg, nil), nil, transcode.WithNotifier(notifier))

	report, err := mgr.TranscodeAlbum(ctx, threeTrackAlbum(), audio.Opus)
	if err != nil {
		t.Fatalf("cancellation is not a precondition error: %v", err)
	}
	if len(eng.Graphs()) != 1 {
		t.Fatalf("expected only the first track to start, got %d graphs", len(eng.Graphs()))
	}
	for _, outcome := range report.Tracks {
		if !outcome.Cancelled {
			t.Fatalf("track %d not marked cancelled: %+v", outcome.Track.Number, outcome)
		}
	}
	if report.Status() != history.BatchCancelled {
		t.Fatalf("status = %q", report.Status())
	}
	if notifier.completed != 0 {
		t.Fatal("cancelled batches should not notify completion")
	}
}

func TestTranscodeAlbumRecordsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	store := testsupport.MustOpenHistory(t, cfg)
	mgr := transcode.NewManager(cfg, encoding.NewEncoder(writingEngine(t, 3), cfg, nil), nil, transcode.WithRecorder(store))

	report, err := mgr.TranscodeAlbum(context.Background(), threeTrackAlbum(), audio.Vorbis)
	if err != nil {
		t.Fatal(err)
	}

	batch, err := store.GetBatch(context.Background(), report.BatchID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if batch.Status != history.BatchPartial || batch.Succeeded != 2 || batch.Total != 3 || batch.Format != "vorbis" {
		t.Fatalf("unexpected batch %+v", batch)
	}

	tracks, err := store.Tracks(context.Background(), report.BatchID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 3 {
		t.Fatalf("expected 3 track results, got %d", len(tracks))
	}
	if tracks[2].Status != history.TrackFailed || tracks[2].ErrorKind != "runtime" {
		t.Fatalf("unexpected failed track record %+v", tracks[2])
	}
}

func TestTranscodeAlbumNotifiesAndEjects(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDevice("/dev/sr0"))
	cfg.Drive.EjectAfterRip = true
	notifier := &recordingNotifier{}
	ejector := &recordingEjector{}
	mgr := transcode.NewManager(cfg, encoding.NewEncoder(writingEngine(t), cfg, nil), nil,
		transcode.WithNotifier(notifier),
		transcode.WithEjector(ejector),
	)

	if _, err := mgr.TranscodeAlbum(context.Background(), threeTrackAlbum(), audio.AAC); err != nil {
		t.Fatal(err)
	}
	if notifier.completed != 1 || notifier.lastSucceeded != 3 || notifier.lastTotal != 3 {
		t.Fatalf("unexpected notifications %+v", notifier)
	}
	if !slices.Equal(ejector.devices, []string{"/dev/sr0"}) {
		t.Fatalf("eject calls = %v", ejector.devices)
	}
}

func TestTranscodeAlbumDriveBusy(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Drive.LockTimeout = 0
	holder := disc.NewDriveLock(cfg.DriveLockPath())
	if err := holder.Acquire(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = holder.Release() })

	eng := testsupport.NewFakeEngine()
	mgr := transcode.NewManager(cfg, encoding.NewEncoder(eng, cfg, nil), nil,
		transcode.WithDriveLock(disc.NewDriveLock(cfg.DriveLockPath())),
	)
	_, err := mgr.TranscodeAlbum(context.Background(), threeTrackAlbum(), audio.Opus)
	if !errors.Is(err, services.ErrPrecondition) {
		t.Fatalf("expected busy drive precondition error, got %v", err)
	}
	if len(eng.Graphs()) != 0 {
		t.Fatal("no graph should be built while the drive is busy")
	}
}

func TestTranscodeAlbumReleasesDriveLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	mgr := transcode.NewManager(cfg, encoding.NewEncoder(writingEngine(t), cfg, nil), nil,
		transcode.WithDriveLock(disc.NewDriveLock(cfg.DriveLockPath())),
	)
	if _, err := mgr.TranscodeAlbum(context.Background(), threeTrackAlbum(), audio.Opus); err != nil {
		t.Fatal(err)
	}

	other := disc.NewDriveLock(cfg.DriveLockPath())
	if err := other.Acquire(context.Background(), 0); err != nil {
		t.Fatalf("lock should be free after the batch: %v", err)
	}
	_ = other.Release()
}

func TestTranscodeAlbumRejectsUnknownFormat(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	eng := testsupport.NewFakeEngine()
	store := testsupport.MustOpenHistory(t, cfg)
	notifier := &recordingNotifier{}
	mgr := transcode.NewManager(cfg, encoding.NewEncoder(eng, cfg, nil), nil,
		transcode.WithRecorder(store),
		transcode.WithNotifier(notifier),
	)

	report, err := mgr.TranscodeAlbum(context.Background(), threeTrackAlbum(), audio.Format(42))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(report.Tracks) != 0 || len(eng.Graphs()) != 0 {
		t.Fatalf("no track should be attempted: tracks=%d graphs=%d", len(report.Tracks), len(eng.Graphs()))
	}
	if notifier.errors != 1 {
		t.Fatalf("expected one error notification, got %d", notifier.errors)
	}
	batches, err := store.RecentBatches(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentBatches: %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("rejected batch should not be recorded, got %d", len(batches))
	}
}

type recordingNotifier struct {
	mu            sync.Mutex
	completed     int
	errors        int
	lastSucceeded int
	lastTotal     int
}

func (n *recordingNotifier) NotifyDiscDetected(context.Context, string, int) error { return nil }

func (n *recordingNotifier) NotifyBatchCompleted(_ context.Context, _ string, succeeded, total int, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed++
	n.lastSucceeded = succeeded
	n.lastTotal = total
	return nil
}

func (n *recordingNotifier) NotifyError(context.Context, error, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors++
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

type recordingEjector struct {
	devices []string
}

func (e *recordingEjector) Eject(_ context.Context, device string) error {
	e.devices = append(e.devices, device)
	return nil
}
