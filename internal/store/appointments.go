package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tomasperezponisio/tp2-clinica-online/internal/model"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/planner"
)

const appointmentColumns = `id, patient_id, patient_name, specialist_id, specialist_name,
	specialty, date, time, status, patient_comment, specialist_comment, admin_comment,
	review, rating, survey_done, history, created_at, updated_at`

// CreateAppointment inserts a new appointment if no active appointment holds
// the same (specialist, date, time) slot. Returns ErrSlotTaken otherwise.
//
// The insert is conditional in a single statement, and the partial unique
// index on active slots backs it up, so two concurrent bookings of the same
// slot cannot both succeed.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	history, err := encodeHistory(a.History)
	if err != nil {
		return err
	}

	res, err := s.ExecContext(ctx, `
		INSERT INTO appointments
			(id, patient_id, patient_name, specialist_id, specialist_name,
			 specialty, date, time, status, patient_comment, history)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM appointments
			WHERE specialist_id = ? AND date = ? AND time = ?
			  AND status IN ('pending', 'accepted')
		)`,
		a.ID, a.PatientID, a.PatientName, a.SpecialistID, a.SpecialistName,
		a.Specialty, a.Date, a.Time, a.Status, a.PatientComment, history,
		a.SpecialistID, a.Date, a.Time,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("create appointment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	if affected == 0 {
		return ErrSlotTaken
	}
	return nil
}

// GetAppointment returns an appointment by id.
func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	row := s.QueryRowContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE id = ?", id)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// commentColumns maps a comment kind to its column. Guarded updates only
// accept these names.
var commentColumns = map[string]string{
	"patient":    "patient_comment",
	"specialist": "specialist_comment",
	"admin":      "admin_comment",
	"review":     "review",
}

// UpdateStatus moves an appointment from an expected status to a new one,
// optionally recording a comment. The WHERE clause on the expected status
// makes the update a compare-and-swap: if another writer got there first the
// update affects zero rows and ErrStatusConflict is returned.
func (s *Store) UpdateStatus(ctx context.Context, id string, expect, to model.AppointmentStatus, commentKind, comment string) error {
	set := "status = ?, updated_at = CURRENT_TIMESTAMP"
	args := []any{to}

	if comment != "" {
		col, ok := commentColumns[commentKind]
		if !ok {
			return fmt.Errorf("unknown comment kind: %q", commentKind)
		}
		set += ", " + col + " = ?"
		args = append(args, comment)
	}

	args = append(args, id, expect)
	res, err := s.ExecContext(ctx,
		"UPDATE appointments SET "+set+" WHERE id = ? AND status = ?", args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetAppointment(ctx, id); err != nil {
			return err
		}
		return ErrStatusConflict
	}
	return nil
}

// AttachHistory stores the clinical history of a completed appointment.
func (s *Store) AttachHistory(ctx context.Context, id string, h *model.ClinicalHistory) error {
	history, err := encodeHistory(h)
	if err != nil {
		return err
	}

	res, err := s.ExecContext(ctx, `
		UPDATE appointments SET history = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, history, id)
	if err != nil {
		return fmt.Errorf("attach history: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveFeedback records the patient's rating and survey completion.
func (s *Store) SaveFeedback(ctx context.Context, id string, rating int, surveyDone bool) error {
	res, err := s.ExecContext(ctx, `
		UPDATE appointments SET rating = ?, survey_done = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, rating, surveyDone, id)
	if err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReservedSlots returns the slots held by active appointments of a
// specialist, keyed for the planner.
func (s *Store) ReservedSlots(ctx context.Context, specialistID string) (planner.ReservedSet, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT date, time FROM appointments
		WHERE specialist_id = ? AND status IN ('pending', 'accepted')`,
		specialistID,
	)
	if err != nil {
		return nil, fmt.Errorf("reserved slots: %w", err)
	}
	defer rows.Close()

	reserved := make(planner.ReservedSet)
	for rows.Next() {
		var date, timeOfDay string
		if err := rows.Scan(&date, &timeOfDay); err != nil {
			return nil, fmt.Errorf("scan reserved slot: %w", err)
		}
		reserved.Add(date, timeOfDay)
	}
	return reserved, rows.Err()
}

// ListByPatient returns a patient's appointments, newest first.
func (s *Store) ListByPatient(ctx context.Context, patientID string) ([]model.Appointment, error) {
	return s.listAppointments(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE patient_id = ? ORDER BY date DESC, time DESC",
		patientID)
}

// ListBySpecialist returns a specialist's appointments, newest first.
func (s *Store) ListBySpecialist(ctx context.Context, specialistID string) ([]model.Appointment, error) {
	return s.listAppointments(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE specialist_id = ? ORDER BY date DESC, time DESC",
		specialistID)
}

// ListAll returns every appointment, newest first.
func (s *Store) ListAll(ctx context.Context) ([]model.Appointment, error) {
	return s.listAppointments(ctx,
		"SELECT "+appointmentColumns+" FROM appointments ORDER BY date DESC, time DESC")
}

func (s *Store) listAppointments(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*model.Appointment, error) {
	var a model.Appointment
	var history sql.NullString

	err := row.Scan(
		&a.ID, &a.PatientID, &a.PatientName, &a.SpecialistID, &a.SpecialistName,
		&a.Specialty, &a.Date, &a.Time, &a.Status, &a.PatientComment,
		&a.SpecialistComment, &a.AdminComment, &a.Review, &a.Rating,
		&a.SurveyDone, &history, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan appointment: %w", err)
	}

	if history.Valid && history.String != "" {
		var h model.ClinicalHistory
		if err := json.Unmarshal([]byte(history.String), &h); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		a.History = &h
	}
	return &a, nil
}

func encodeHistory(h *model.ClinicalHistory) (sql.NullString, error) {
	if h == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(h)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode history: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
