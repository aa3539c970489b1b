// Package store persists specialists, availability rules and appointments
// in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSlotTaken is returned when an active appointment already holds
	// the requested (specialist, date, time) slot.
	ErrSlotTaken = errors.New("slot already taken")
	// ErrStatusConflict is returned when a guarded update observes a
	// status different from the expected one.
	ErrStatusConflict = errors.New("appointment status changed concurrently")
)

// Store wraps sql.DB for the clinic service.
type Store struct {
	*sql.DB
}

// New opens the database at path and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS specialists (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS availability_rules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			specialist_id TEXT NOT NULL,
			specialty TEXT NOT NULL,
			days TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			slot_duration INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (specialist_id, specialty),
			FOREIGN KEY (specialist_id) REFERENCES specialists(id)
		)`,

		`CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL,
			patient_name TEXT NOT NULL,
			specialist_id TEXT NOT NULL,
			specialist_name TEXT NOT NULL,
			specialty TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			patient_comment TEXT NOT NULL DEFAULT '',
			specialist_comment TEXT NOT NULL DEFAULT '',
			admin_comment TEXT NOT NULL DEFAULT '',
			review TEXT NOT NULL DEFAULT '',
			rating INTEGER NOT NULL DEFAULT 0,
			survey_done BOOLEAN NOT NULL DEFAULT 0,
			history TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// One active appointment per slot. Terminal statuses fall out of
		// the index so the slot can be booked again.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_active_slot
			ON appointments(specialist_id, date, time)
			WHERE status IN ('pending', 'accepted')`,

		`CREATE INDEX IF NOT EXISTS idx_appointments_patient
			ON appointments(patient_id)`,

		`CREATE INDEX IF NOT EXISTS idx_appointments_specialist
			ON appointments(specialist_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}
