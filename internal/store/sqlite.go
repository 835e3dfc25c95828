package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/aisim/internal/world"
)

// SQLiteRunStore implements RunStore using SQLite for persistence.
type SQLiteRunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteRunStore opens (or creates) the run database at dbPath.
// The special path ":memory:" opens a private in-memory database.
func NewSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database path.
func (s *SQLiteRunStore) Path() string {
	return s.dbPath
}

// SaveRun stores a run and its events in one transaction.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, run Run, events []world.Event) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	historyJSON, err := json.Marshal(run.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", run.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check run: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrRunExists, run.ID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, label, seed, outcome, reason, ticks, total_events,
			config, summary, history, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, nullString(run.Label), run.Summary.Seed, string(run.Summary.Outcome),
		nullString(run.Summary.Reason), run.Summary.Ticks, run.Summary.TotalEvents,
		string(configJSON), string(summaryJSON), string(historyJSON),
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_events (
			run_id, seq, month, category, severity, agent_id, title, description, effects
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for i, ev := range events {
		var effects sql.NullString
		if len(ev.Effects) > 0 {
			data, err := json.Marshal(ev.Effects)
			if err != nil {
				return fmt.Errorf("failed to marshal effects for event %d: %w", i, err)
			}
			effects = sql.NullString{String: string(data), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			run.ID, i, ev.Month, string(ev.Category), string(ev.Severity),
			nullString(ev.AgentID), ev.Title, nullString(ev.Description), effects,
		)
		if err != nil {
			return fmt.Errorf("failed to insert event %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID. Returns nil, nil if not found.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, config, summary, history, created_at
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if filter.Seed != nil {
		where = append(where, "seed = ?")
		args = append(args, *filter.Seed)
	}

	query := "SELECT id, label, config, summary, history, created_at FROM runs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// RunEvents returns a run's events in emission order.
func (s *SQLiteRunStore) RunEvents(ctx context.Context, id string) ([]world.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT month, category, severity, agent_id, title, description, effects
		FROM run_events WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []world.Event
	for rows.Next() {
		var (
			ev                           world.Event
			category, severity           string
			agentID, description, effect sql.NullString
		)
		if err := rows.Scan(&ev.Month, &category, &severity, &agentID, &ev.Title, &description, &effect); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Category = world.Category(category)
		ev.Severity = world.Severity(severity)
		ev.AgentID = agentID.String
		ev.Description = description.String
		if effect.Valid {
			if err := json.Unmarshal([]byte(effect.String), &ev.Effects); err != nil {
				return nil, fmt.Errorf("failed to unmarshal effects: %w", err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// DeleteRun removes a run and, through the foreign key cascade, its events.
func (s *SQLiteRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	return nil
}

// ValidateIntegrity checks the underlying database.
func (s *SQLiteRunStore) ValidateIntegrity(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ValidateIntegrity(ctx, s.db)
}

// Close releases the database.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run                     Run
		label, history          sql.NullString
		configJSON, summaryJSON string
		createdAt               string
	)
	if err := row.Scan(&run.ID, &label, &configJSON, &summaryJSON, &history, &createdAt); err != nil {
		return nil, err
	}
	run.Label = label.String
	if err := json.Unmarshal([]byte(configJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &run.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	if history.Valid && history.String != "null" {
		if err := json.Unmarshal([]byte(history.String), &run.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history: %w", err)
		}
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	run.CreatedAt = t
	return &run, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
