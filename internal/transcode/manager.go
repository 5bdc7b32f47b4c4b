package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"cdrip/internal/audio"
	"cdrip/internal/config"
	"cdrip/internal/disc"
	"cdrip/internal/encoding"
	"cdrip/internal/history"
	"cdrip/internal/logging"
	"cdrip/internal/metadata"
	"cdrip/internal/notifications"
	"cdrip/internal/services"
)

const stage = "transcode"

// TrackEncoder encodes a single track.
type TrackEncoder interface {
	EncodeTrack(ctx context.Context, req encoding.Request) error
}

// Recorder persists batch progress. *history.Store satisfies it.
type Recorder interface {
	StartBatch(ctx context.Context, b history.Batch) error
	RecordTrack(ctx context.Context, r history.TrackResult) error
	FinishBatch(ctx context.Context, id, status string, succeeded int) error
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithRecorder records batches and track outcomes.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithNotifier publishes batch completion and failures.
func WithNotifier(n notifications.Service) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithEjector opens the tray after a finished batch when the config asks for it.
func WithEjector(e disc.Ejector) Option {
	return func(m *Manager) { m.ejector = e }
}

// WithDriveLock holds lock for the duration of a batch.
func WithDriveLock(lock *disc.DriveLock) Option {
	return func(m *Manager) { m.lock = lock }
}

// Manager runs album batches.
type Manager struct {
	encoder       TrackEncoder
	logger        *slog.Logger
	outputDir     string
	device        string
	ejectAfterRip bool
	lockTimeout   time.Duration

	recorder Recorder
	notifier notifications.Service
	ejector  disc.Ejector
	lock     *disc.DriveLock
}

// NewManager constructs a manager writing into cfg.Paths.OutputDir.
func NewManager(cfg *config.Config, encoder TrackEncoder, logger *slog.Logger, opts ...Option) *Manager {
	defaults := config.Default()
	if cfg == nil {
		cfg = &defaults
	}
	m := &Manager{
		encoder:       encoder,
		logger:        logging.NewComponentLogger(logger, "transcode"),
		outputDir:     cfg.Paths.OutputDir,
		device:        cfg.Drive.Device,
		ejectAfterRip: cfg.Drive.EjectAfterRip,
		lockTimeout:   time.Duration(cfg.Drive.LockTimeout) * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// OutputDir returns the directory encoded files are written to.
func (m *Manager) OutputDir() string { return m.outputDir }

// TranscodeAlbum encodes every track of album in order. Track failures are
// reported through the Report, never the error.
func (m *Manager) TranscodeAlbum(ctx context.Context, album metadata.AlbumDetails, format audio.Format) (Report, error) {
	report := Report{
		BatchID:   uuid.NewString(),
		Album:     album.Title,
		Format:    format,
		OutputDir: m.outputDir,
		StartedAt: time.Now(),
	}
	ctx = services.WithBatchID(ctx, report.BatchID)
	logger := logging.WithContext(ctx, m.logger)

	if err := m.prepare(ctx, format); err != nil {
		logging.ErrorWithContext(logger, "batch aborted", "batch_precondition_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.output_dir and the drive lock"),
		)
		m.notifyError(ctx, err, album.Title)
		return report, err
	}
	logger = logger.With(logging.String(logging.FieldFormat, format.Key()))
	if m.lock != nil {
		defer func() {
			if err := m.lock.Release(); err != nil {
				logging.WarnWithContext(logger, "drive lock release failed", "drive_lock_release_failed", logging.Error(err))
			}
		}()
	}

	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.String("album", album.Title),
		logging.Int("tracks", len(album.Tracks)),
		logging.String("output_dir", m.outputDir),
	)
	m.startBatch(ctx, logger, album, format, report)

	paths := make(map[string]int, len(album.Tracks))
	for _, track := range album.Tracks {
		outcome := TrackOutcome{Track: track}
		if ctx.Err() != nil {
			outcome.Cancelled = true
			outcome.Err = ctx.Err()
			report.Tracks = append(report.Tracks, outcome)
			m.recordTrack(ctx, logger, report.BatchID, outcome)
			continue
		}

		outcome.Path = filepath.Join(m.outputDir, encoding.OutputFileName(track, album, format))
		if prev, dup := paths[outcome.Path]; dup {
			logging.WarnWithContext(logger, "output file name collides with an earlier track", "output_collision",
				logging.Int(logging.FieldTrack, track.Number),
				logging.Int("earlier_track", prev),
				logging.String("path", outcome.Path),
				logging.String(logging.FieldImpact, "earlier file will be overwritten"),
			)
		}
		paths[outcome.Path] = track.Number

		started := time.Now()
		err := m.encoder.EncodeTrack(ctx, encoding.Request{
			SourceTrack: track.Number,
			Track:       track,
			Album:       album,
			OutputPath:  outcome.Path,
			Format:      format,
		})
		outcome.Duration = time.Since(started)
		outcome.Err = err
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			outcome.Cancelled = true
		}
		report.Tracks = append(report.Tracks, outcome)
		m.recordTrack(ctx, logger, report.BatchID, outcome)

		switch {
		case outcome.Cancelled:
			logger.Info("track cancelled", logging.Int(logging.FieldTrack, track.Number))
		case err != nil:
			logging.WarnWithContext(logger, "track failed; continuing with next track", "track_failed",
				logging.Int(logging.FieldTrack, track.Number),
				logging.String("title", track.Title),
				logging.Error(err),
				logging.ErrorKind(err),
			)
		}
	}

	report.Elapsed = time.Since(report.StartedAt)
	m.finishBatch(ctx, logger, report)
	return report, nil
}

func (m *Manager) prepare(ctx context.Context, format audio.Format) error {
	if !format.Valid() {
		return services.Wrap(services.ErrConfiguration, stage, "validate format", fmt.Sprintf("unknown format %d", int(format)), nil)
	}
	if m.encoder == nil {
		return services.Wrap(services.ErrConfiguration, stage, "validate", "no track encoder configured", nil)
	}
	if strings.TrimSpace(m.outputDir) == "" {
		return services.Wrap(services.ErrPrecondition, stage, "create output directory", "output directory is not configured", nil)
	}
	if err := os.MkdirAll(m.outputDir, 0o755); err != nil {
		return services.Wrap(services.ErrPrecondition, stage, "create output directory", m.outputDir, err)
	}
	if m.lock != nil {
		if err := m.lock.Acquire(ctx, m.lockTimeout); err != nil {
			if errors.Is(err, services.ErrPrecondition) {
				return err
			}
			return services.Wrap(services.ErrPrecondition, stage, "lock drive", m.lock.Path(), err)
		}
	}
	return nil
}

func (m *Manager) startBatch(ctx context.Context, logger *slog.Logger, album metadata.AlbumDetails, format audio.Format, report Report) {
	if m.recorder == nil {
		return
	}
	err := m.recorder.StartBatch(context.WithoutCancel(ctx), history.Batch{
		ID:        report.BatchID,
		Album:     album.Title,
		Artist:    album.Artist,
		Format:    format.Key(),
		OutputDir: m.outputDir,
		Total:     len(album.Tracks),
		StartedAt: report.StartedAt,
	})
	if err != nil {
		logging.WarnWithContext(logger, "history start failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "batch will not appear in history"),
		)
	}
}

func (m *Manager) recordTrack(ctx context.Context, logger *slog.Logger, batchID string, outcome TrackOutcome) {
	if m.recorder == nil {
		return
	}
	result := history.TrackResult{
		BatchID:  batchID,
		Number:   outcome.Track.Number,
		Title:    outcome.Track.Title,
		Path:     outcome.Path,
		Status:   outcome.Status(),
		Duration: outcome.Duration,
	}
	if outcome.Err != nil {
		result.ErrorKind = services.Kind(outcome.Err)
		result.Error = outcome.Err.Error()
	}
	if err := m.recorder.RecordTrack(context.WithoutCancel(ctx), result); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_write_failed",
			logging.Int(logging.FieldTrack, outcome.Track.Number),
			logging.Error(err),
		)
	}
}

func (m *Manager) finishBatch(ctx context.Context, logger *slog.Logger, report Report) {
	status := report.Status()
	succeeded := report.Succeeded()
	bg := context.WithoutCancel(ctx)

	if m.recorder != nil {
		if err := m.recorder.FinishBatch(bg, report.BatchID, status, succeeded); err != nil {
			logging.WarnWithContext(logger, "history finish failed", "history_write_failed", logging.Error(err))
		}
	}

	logger.Info(report.Summary(),
		logging.String(logging.FieldEventType, "batch_"+status),
		logging.Int("succeeded", succeeded),
		logging.Int("total", report.Total()),
		logging.Duration("elapsed", report.Elapsed.Round(time.Millisecond)),
	)

	if status == history.BatchCancelled {
		return
	}
	if m.notifier != nil {
		if err := m.notifier.NotifyBatchCompleted(bg, report.Album, succeeded, report.Total(), report.Elapsed); err != nil {
			logging.WarnWithContext(logger, "notification failed", "notification_failed", logging.Error(err))
		}
	}
	if m.ejectAfterRip && m.ejector != nil {
		if err := m.ejector.Eject(bg, m.device); err != nil {
			logging.WarnWithContext(logger, "eject failed", "eject_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "disc left in drive"),
			)
		}
	}
}

func (m *Manager) notifyError(ctx context.Context, err error, album string) {
	if m.notifier == nil {
		return
	}
	label := "rip"
	if album = strings.TrimSpace(album); album != "" {
		label = "rip of " + album
	}
	if notifyErr := m.notifier.NotifyError(context.WithoutCancel(ctx), err, label); notifyErr != nil {
		m.logger.Warn("error notification failed", logging.Error(notifyErr))
	}
}
