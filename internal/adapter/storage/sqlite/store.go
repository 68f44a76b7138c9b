package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/mediaq/internal/domain"
	"github.com/bnema/mediaq/internal/port"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// HistoryStore archives terminal job records in a SQLite database.
type HistoryStore struct {
	db *sql.DB
}

var hookOnce sync.Once

func registerHook() {
	hookOnce.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, dsn string) error {
			pragmas := []string{
				"PRAGMA journal_mode = WAL",
				"PRAGMA busy_timeout = 5000",
				"PRAGMA synchronous = NORMAL",
				"PRAGMA cache_size = -4000", // 4MB
			}
			for _, p := range pragmas {
				if _, err := conn.ExecContext(context.Background(), p, nil); err != nil {
					return fmt.Errorf("execute %s: %w", p, err)
				}
			}
			return nil
		})
	})
}

func NewHistoryStore(dataDir string) (*HistoryStore, error) {
	registerHook()

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "mediaq.db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer at a time; WAL still lets readers through.
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &HistoryStore{db: db}, nil
}

func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// Record inserts an entry, replacing any earlier record of the same job.
func (s *HistoryStore) Record(e domain.JobHistoryEntry) error {
	metadata, err := encodeMetadata(e.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(context.Background(), `
		INSERT INTO job_history (
			job_id, name, status, log_level, started_at, finished_at,
			message, error_message, output_path, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (job_id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			log_level = excluded.log_level,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			message = excluded.message,
			error_message = excluded.error_message,
			output_path = excluded.output_path,
			metadata = excluded.metadata`,
		e.JobID, e.Name, string(e.Status), string(e.LogLevel),
		e.StartedAt.UnixNano(), e.FinishedAt.UnixNano(),
		e.Message, e.ErrorMessage, e.OutputPath, metadata,
	)
	if err != nil {
		return fmt.Errorf("insert history for job %s: %w", e.JobID, err)
	}
	return nil
}

// List returns the most recent limit entries, oldest first. A limit below
// one returns everything.
func (s *HistoryStore) List(limit int) ([]domain.JobHistoryEntry, error) {
	if limit < 1 {
		limit = -1
	}

	rows, err := s.db.QueryContext(context.Background(), `
		SELECT `+historyColumns+` FROM (
			SELECT * FROM job_history ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []domain.JobHistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

func (s *HistoryStore) Get(jobID string) (*domain.JobHistoryEntry, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT `+historyColumns+` FROM job_history WHERE job_id = ?`, jobID)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

const historyColumns = `job_id, name, status, log_level, started_at, finished_at,
	message, error_message, output_path, metadata`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*domain.JobHistoryEntry, error) {
	var (
		e                   domain.JobHistoryEntry
		status, level       string
		startedAt, finished int64
		metadata            string
	)
	err := sc.Scan(&e.JobID, &e.Name, &status, &level, &startedAt, &finished,
		&e.Message, &e.ErrorMessage, &e.OutputPath, &metadata)
	if err != nil {
		return nil, err
	}

	e.Status = domain.JobStatus(status)
	e.LogLevel = domain.LogLevel(level)
	e.StartedAt = time.Unix(0, startedAt)
	e.FinishedAt = time.Unix(0, finished)
	if e.Metadata, err = decodeMetadata(metadata); err != nil {
		return nil, fmt.Errorf("decode metadata for job %s: %w", e.JobID, err)
	}
	return &e, nil
}

func encodeMetadata(m domain.Metadata) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(data), nil
}

func decodeMetadata(raw string) (domain.Metadata, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var m domain.Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return m, nil
}

var _ port.HistoryStore = (*HistoryStore)(nil)
