package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tbxark/apptagent/patch"
)

// SQLite persists appointments in a single-file database opened in WAL mode.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLite{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLite) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS appointments (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		date TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments(date);
	CREATE INDEX IF NOT EXISTS idx_appointments_email ON appointments(email);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Store(ctx context.Context, appt *Appointment) error {
	if appt != nil && appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if err := validateStored(appt); err != nil {
		return err
	}

	query := `
	INSERT INTO appointments (id, session_id, name, email, phone, date, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		phone = excluded.phone,
		date = excluded.date,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		appt.ID, appt.SessionID, appt.Name, appt.Email, appt.Phone, appt.Date,
		appt.CreatedAt.Unix(), appt.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("store appointment: %w", err)
	}
	slog.Info("appointment stored", "id", appt.ID, "date", appt.Date)
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (*Appointment, error) {
	query := `
		SELECT id, session_id, name, email, phone, date, created_at, updated_at
		FROM appointments WHERE id = ?`

	appt, err := scanAppointment(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan appointment row: %w", err)
	}
	return appt, nil
}

func (s *SQLite) List(ctx context.Context) ([]*Appointment, error) {
	query := `
		SELECT id, session_id, name, email, phone, date, created_at, updated_at
		FROM appointments ORDER BY date, created_at`
	return s.queryAppointments(ctx, query)
}

func (s *SQLite) Search(ctx context.Context, q string) ([]*Appointment, error) {
	if q == "" {
		return s.List(ctx)
	}
	query := `
		SELECT id, session_id, name, email, phone, date, created_at, updated_at
		FROM appointments
		WHERE name LIKE ? OR email LIKE ? OR phone LIKE ? OR date LIKE ?
		ORDER BY date, created_at`
	like := "%" + q + "%"
	return s.queryAppointments(ctx, query, like, like, like, like)
}

func (s *SQLite) Amend(ctx context.Context, id string, ops []patch.Operation) (*Appointment, error) {
	if err := patch.ValidateOperations(ops, AmendablePaths()); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}

	amended, err := patch.Apply(*current, ops)
	if err != nil {
		return nil, err
	}
	amended.ID = current.ID
	amended.SessionID = current.SessionID
	amended.CreatedAt = current.CreatedAt
	if err := normalizeAmended(&amended); err != nil {
		return nil, err
	}
	amended.UpdatedAt = time.Now()

	query := `
		UPDATE appointments SET name = ?, email = ?, phone = ?, date = ?, updated_at = ?
		WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query,
		amended.Name, amended.Email, amended.Phone, amended.Date,
		amended.UpdatedAt.Unix(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	slog.Info("appointment amended", "id", id, "ops", len(ops))
	return &amended, nil
}

func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func (s *SQLite) queryAppointments(ctx context.Context, query string, args ...any) ([]*Appointment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close appointment rows", "error", closeErr)
		}
	}()

	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment row: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var appt Appointment
	var sessionID sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&appt.ID, &sessionID, &appt.Name, &appt.Email, &appt.Phone, &appt.Date,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	appt.SessionID = sessionID.String
	appt.CreatedAt = time.Unix(createdAt, 0)
	appt.UpdatedAt = time.Unix(updatedAt, 0)
	return &appt, nil
}

var _ Store = (*SQLite)(nil)
