// Package sqlite persists completed training sessions and their rep logs.
// The engine itself never touches the database; the replay tool and any
// host application write through SessionStore after a session ends.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/barbell-data/velocity.coach/internal/engine/reps"
)

// Session is a persisted training session header.
type Session struct {
	SessionID   string  `json:"session_id"`
	Exercise    string  `json:"exercise"`
	LoadKg      float64 `json:"load_kg"`
	CreatedAtNs int64   `json:"created_at_ns"`
}

// Rep is a persisted per-rep row. Velocities are stored in m/s.
type Rep struct {
	RecordID            string  `json:"record_id"`
	SessionID           string  `json:"session_id"`
	RepNumber           int     `json:"rep_number"`
	MeanVelocityMps     float64 `json:"mean_velocity_mps"`
	PeakVelocityMps     float64 `json:"peak_velocity_mps"`
	EccentricMps        float64 `json:"eccentric_mps"`
	EccentricMs         int64   `json:"eccentric_ms"`
	ConcentricMs        int64   `json:"concentric_ms"`
	TotalMs             int64   `json:"total_ms"`
	VelocityDropPercent float64 `json:"velocity_drop_percent"`
	TSUnixNanos         int64   `json:"ts_unix_nanos"`
}

// SessionStore provides persistence for sessions and rep logs.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a SessionStore backed by the given database.
// The schema is created if missing.
func NewSessionStore(db *sql.DB) (*SessionStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create session schema: %w", err)
	}
	return &SessionStore{db: db}, nil
}

// Open opens (or creates) a session database at path with the essential
// PRAGMAs applied.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	return db, nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS vbt_sessions (
		session_id         TEXT PRIMARY KEY,
		exercise           TEXT NOT NULL,
		load_kg            DOUBLE NOT NULL,
		created_at_ns      BIGINT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS vbt_reps (
		record_id             TEXT PRIMARY KEY,
		session_id            TEXT NOT NULL,
		rep_number            BIGINT NOT NULL,
		mean_velocity_mps     DOUBLE NOT NULL,
		peak_velocity_mps     DOUBLE NOT NULL,
		eccentric_mps         DOUBLE NOT NULL,
		eccentric_ms          BIGINT NOT NULL,
		concentric_ms         BIGINT NOT NULL,
		total_ms              BIGINT NOT NULL,
		velocity_drop_percent DOUBLE NOT NULL,
		ts_unix_nanos         BIGINT NOT NULL,
		FOREIGN KEY(session_id) REFERENCES vbt_sessions(session_id)
	);
	CREATE INDEX IF NOT EXISTS idx_vbt_reps_session
		ON vbt_reps(session_id, rep_number);
`

// InsertSession creates a session header row.
func (s *SessionStore) InsertSession(session *Session) error {
	if session.CreatedAtNs == 0 {
		session.CreatedAtNs = time.Now().UnixNano()
	}
	_, err := s.db.Exec(`
		INSERT INTO vbt_sessions (session_id, exercise, load_kg, created_at_ns)
		VALUES (?, ?, ?, ?)
	`, session.SessionID, session.Exercise, session.LoadKg, session.CreatedAtNs)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// InsertRep persists one completed rep for a session.
func (s *SessionStore) InsertRep(sessionID string, rec reps.Record) error {
	_, err := s.db.Exec(`
		INSERT INTO vbt_reps (
			record_id, session_id, rep_number,
			mean_velocity_mps, peak_velocity_mps, eccentric_mps,
			eccentric_ms, concentric_ms, total_ms,
			velocity_drop_percent, ts_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.RecordID,
		sessionID,
		rec.RepNumber,
		rec.MeanVelocity,
		rec.PeakVelocity,
		rec.EccentricVelocity,
		rec.EccentricDuration.Milliseconds(),
		rec.ConcentricDuration.Milliseconds(),
		rec.TotalDuration.Milliseconds(),
		rec.VelocityDropPercent,
		rec.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert rep %s: %w", rec.RecordID, err)
	}
	return nil
}

// SaveSession persists a session header and its full rep log in one
// transaction.
func (s *SessionStore) SaveSession(session *Session, records []reps.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save session: %w", err)
	}
	defer tx.Rollback()

	if session.CreatedAtNs == 0 {
		session.CreatedAtNs = time.Now().UnixNano()
	}
	if _, err := tx.Exec(`
		INSERT INTO vbt_sessions (session_id, exercise, load_kg, created_at_ns)
		VALUES (?, ?, ?, ?)
	`, session.SessionID, session.Exercise, session.LoadKg, session.CreatedAtNs); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for _, rec := range records {
		if _, err := tx.Exec(`
			INSERT INTO vbt_reps (
				record_id, session_id, rep_number,
				mean_velocity_mps, peak_velocity_mps, eccentric_mps,
				eccentric_ms, concentric_ms, total_ms,
				velocity_drop_percent, ts_unix_nanos
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			rec.RecordID,
			session.SessionID,
			rec.RepNumber,
			rec.MeanVelocity,
			rec.PeakVelocity,
			rec.EccentricVelocity,
			rec.EccentricDuration.Milliseconds(),
			rec.ConcentricDuration.Milliseconds(),
			rec.TotalDuration.Milliseconds(),
			rec.VelocityDropPercent,
			rec.Timestamp.UnixNano(),
		); err != nil {
			return fmt.Errorf("insert rep %s: %w", rec.RecordID, err)
		}
	}

	return tx.Commit()
}

// GetSession returns a session header by ID.
func (s *SessionStore) GetSession(sessionID string) (*Session, error) {
	var session Session
	err := s.db.QueryRow(`
		SELECT session_id, exercise, load_kg, created_at_ns
		FROM vbt_sessions WHERE session_id = ?
	`, sessionID).Scan(&session.SessionID, &session.Exercise, &session.LoadKg, &session.CreatedAtNs)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

// GetSessionReps returns a session's rep log ordered by rep number.
func (s *SessionStore) GetSessionReps(sessionID string) ([]Rep, error) {
	rows, err := s.db.Query(`
		SELECT record_id, session_id, rep_number,
			mean_velocity_mps, peak_velocity_mps, eccentric_mps,
			eccentric_ms, concentric_ms, total_ms,
			velocity_drop_percent, ts_unix_nanos
		FROM vbt_reps WHERE session_id = ?
		ORDER BY rep_number ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query reps: %w", err)
	}
	defer rows.Close()

	var result []Rep
	for rows.Next() {
		var r Rep
		if err := rows.Scan(
			&r.RecordID, &r.SessionID, &r.RepNumber,
			&r.MeanVelocityMps, &r.PeakVelocityMps, &r.EccentricMps,
			&r.EccentricMs, &r.ConcentricMs, &r.TotalMs,
			&r.VelocityDropPercent, &r.TSUnixNanos,
		); err != nil {
			return nil, fmt.Errorf("scan rep: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// ListSessions returns the most recent session headers, newest first.
func (s *SessionStore) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT session_id, exercise, load_kg, created_at_ns
		FROM vbt_sessions ORDER BY created_at_ns DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var result []Session
	for rows.Next() {
		var session Session
		if err := rows.Scan(&session.SessionID, &session.Exercise, &session.LoadKg, &session.CreatedAtNs); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		result = append(result, session)
	}
	return result, rows.Err()
}
