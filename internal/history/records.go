package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Batch statuses.
const (
	BatchRunning   = "running"
	BatchCompleted = "completed"
	BatchPartial   = "partial"
	BatchFailed    = "failed"
	BatchCancelled = "cancelled"
)

// Track statuses.
const (
	TrackSucceeded = "succeeded"
	TrackFailed    = "failed"
	TrackCancelled = "cancelled"
)

// ErrNotFound is returned when a batch id is unknown.
var ErrNotFound = errors.New("batch not found")

// Batch is one album transcode run.
type Batch struct {
	ID         string
	Album      string
	Artist     string
	Format     string
	OutputDir  string
	Status     string
	Total      int
	Succeeded  int
	StartedAt  time.Time
	FinishedAt time.Time
}

// TrackResult is the outcome of a single track within a batch.
type TrackResult struct {
	BatchID    string
	Number     int
	Title      string
	Path       string
	Status     string
	ErrorKind  string
	Error      string
	Duration   time.Duration
	RecordedAt time.Time
}

// StartBatch inserts a batch in the running state.
func (s *Store) StartBatch(ctx context.Context, b Batch) error {
	if b.ID == "" {
		return errors.New("history: batch id is required")
	}
	started := b.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO batches (
            id, album, artist, format, output_dir, status, total_tracks, succeeded_tracks, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		b.ID, b.Album, nullableString(b.Artist), b.Format, b.OutputDir, BatchRunning, b.Total,
		formatTime(started),
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// RecordTrack stores or replaces the outcome of one track.
func (s *Store) RecordTrack(ctx context.Context, r TrackResult) error {
	recorded := r.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT OR REPLACE INTO track_results (
            batch_id, track_number, title, output_path, status, error_kind, error_message, duration_ms, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BatchID, r.Number, r.Title, nullableString(r.Path), r.Status,
		nullableString(r.ErrorKind), nullableString(r.Error), r.Duration.Milliseconds(),
		formatTime(recorded),
	)
	if err != nil {
		return fmt.Errorf("record track %d: %w", r.Number, err)
	}
	return nil
}

// FinishBatch sets the final status and success count of a batch.
func (s *Store) FinishBatch(ctx context.Context, id, status string, succeeded int) error {
	res, err := s.exec(ctx,
		`UPDATE batches SET status = ?, succeeded_tracks = ?, finished_at = ? WHERE id = ?`,
		status, succeeded, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("finish batch: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// RecentBatches lists batches newest first. A limit <= 0 returns all.
func (s *Store) RecentBatches(ctx context.Context, limit int) ([]Batch, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, album, artist, format, output_dir, status, total_tracks, succeeded_tracks, started_at, finished_at
        FROM batches ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// GetBatch returns a single batch.
func (s *Store) GetBatch(ctx context.Context, id string) (Batch, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, album, artist, format, output_dir, status, total_tracks, succeeded_tracks, started_at, finished_at
        FROM batches WHERE id = ?`, id)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Batch{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b, err
}

// Tracks returns the recorded track outcomes of a batch in track order.
func (s *Store) Tracks(ctx context.Context, batchID string) ([]TrackResult, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT batch_id, track_number, title, output_path, status, error_kind, error_message, duration_ms, recorded_at
        FROM track_results WHERE batch_id = ? ORDER BY track_number`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var results []TrackResult
	for rows.Next() {
		var (
			r                   TrackResult
			path, kind, message sql.NullString
			durationMS          int64
			recordedAt          string
		)
		if err := rows.Scan(&r.BatchID, &r.Number, &r.Title, &path, &r.Status, &kind, &message, &durationMS, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		r.Path = path.String
		r.ErrorKind = kind.String
		r.Error = message.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.RecordedAt = parseTime(recordedAt)
		results = append(results, r)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(row rowScanner) (Batch, error) {
	var (
		b          Batch
		artist     sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Album, &artist, &b.Format, &b.OutputDir, &b.Status,
		&b.Total, &b.Succeeded, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Batch{}, err
		}
		return Batch{}, fmt.Errorf("scan batch: %w", err)
	}
	b.Artist = artist.String
	b.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		b.FinishedAt = parseTime(finishedAt.String)
	}
	return b, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
