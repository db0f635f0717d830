// Package history persists completed transcriptions to Postgres and serves
// the "history" command's recent-entries query.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/speakanywhere/speakanywhere/internal/model"
)

// Store persists and queries history records in Postgres via pgx.
type Store struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS transcriptions (
	id              UUID PRIMARY KEY,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	text            TEXT NOT NULL,
	audio_duration  DOUBLE PRECISION NOT NULL,
	processing_time DOUBLE PRECISION NOT NULL,
	app_context     TEXT,
	app_id          TEXT,
	window_class    TEXT,
	window_title    TEXT,
	agent           TEXT,
	working_dir     TEXT,
	backend         TEXT
)`

// OpenDSN connects to Postgres using a libpq connection URL (the shape
// produced by the daemon's history.dsn config key), verifies the
// connection, and ensures the transcriptions table exists.
func OpenDSN(ctx context.Context, dsn string) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse history db dsn: %w", err)
	}

	return open(ctx, poolConfig)
}

func open(ctx context.Context, poolConfig *pgxpool.Config) (*Store, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create history db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// nullable converts an empty string to a nil pointer so it binds as SQL
// NULL rather than the literal empty string.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// orEmpty converts a possibly-NULL scanned column back to "".
func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Insert persists one completed transcription. A fresh UUID is generated
// here rather than left to the database so the id is available to callers
// immediately (and so a future streaming-insert path does not depend on a
// round trip to learn it). Empty window/agent/backend fields are stored as
// NULL rather than "".
func (s *Store) Insert(ctx context.Context, record model.HistoryRecord) error {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transcriptions (
			id, text, audio_duration, processing_time,
			app_context, app_id, window_class, window_title, agent, working_dir, backend
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		id, record.Text, record.AudioDuration, record.ProcessingTime,
		nullable(record.AppContext), nullable(record.AppID), nullable(record.WindowClass), nullable(record.WindowTitle),
		nullable(record.Agent), nullable(record.WorkingDir), nullable(record.Backend),
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	return nil
}

// Recent returns the most recent limit history records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]model.HistoryRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at, text, audio_duration, processing_time,
			app_context, app_id, window_class, window_title, agent, working_dir, backend
		FROM transcriptions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent history: %w", err)
	}
	defer rows.Close()

	var records []model.HistoryRecord
	for rows.Next() {
		var (
			id        uuid.UUID
			createdAt time.Time
			record    model.HistoryRecord

			appContext, appID, windowClass, windowTitle *string
			agent, workingDir, backend                  *string
		)
		if err := rows.Scan(
			&id, &createdAt, &record.Text, &record.AudioDuration, &record.ProcessingTime,
			&appContext, &appID, &windowClass, &windowTitle, &agent, &workingDir, &backend,
		); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		record.ID = id.String()
		record.Timestamp = createdAt
		record.AppContext = orEmpty(appContext)
		record.AppID = orEmpty(appID)
		record.WindowClass = orEmpty(windowClass)
		record.WindowTitle = orEmpty(windowTitle)
		record.Agent = orEmpty(agent)
		record.WorkingDir = orEmpty(workingDir)
		record.Backend = orEmpty(backend)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent history: %w", err)
	}
	return records, nil
}
