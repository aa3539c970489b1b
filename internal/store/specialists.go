package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tomasperezponisio/tp2-clinica-online/internal/model"
)

// UpsertSpecialist inserts or updates a specialist profile.
func (s *Store) UpsertSpecialist(ctx context.Context, sp *model.Specialist) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO specialists (id, first_name, last_name, email)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			updated_at = CURRENT_TIMESTAMP`,
		sp.ID, sp.FirstName, sp.LastName, sp.Email,
	)
	if err != nil {
		return fmt.Errorf("upsert specialist: %w", err)
	}
	return nil
}

// GetSpecialist returns a specialist profile without rules.
func (s *Store) GetSpecialist(ctx context.Context, id string) (*model.Specialist, error) {
	var sp model.Specialist
	err := s.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, email FROM specialists WHERE id = ?", id,
	).Scan(&sp.ID, &sp.FirstName, &sp.LastName, &sp.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get specialist: %w", err)
	}
	return &sp, nil
}

// ReplaceRules swaps the full availability rule set of a specialist.
// Rules are validated by the caller before they get here.
func (s *Store) ReplaceRules(ctx context.Context, specialistID string, rules []model.AvailabilityRule) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM availability_rules WHERE specialist_id = ?", specialistID,
	); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}

	for _, r := range rules {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO availability_rules
				(specialist_id, specialty, days, start_time, end_time, slot_duration)
			VALUES (?, ?, ?, ?, ?, ?)`,
			specialistID, r.Specialty, encodeDays(r.Days), r.StartTime, r.EndTime, r.SlotDuration,
		); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("specialist %s: %w", specialistID, ErrNotFound)
			}
			return fmt.Errorf("insert rule for %s: %w", r.Specialty, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rules: %w", err)
	}
	return nil
}

// GetRules returns all availability rules of a specialist in insertion order.
func (s *Store) GetRules(ctx context.Context, specialistID string) ([]model.AvailabilityRule, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT specialty, days, start_time, end_time, slot_duration
		FROM availability_rules
		WHERE specialist_id = ?
		ORDER BY id`,
		specialistID,
	)
	if err != nil {
		return nil, fmt.Errorf("get rules: %w", err)
	}
	defer rows.Close()

	var rules []model.AvailabilityRule
	for rows.Next() {
		var r model.AvailabilityRule
		var days string
		if err := rows.Scan(&r.Specialty, &days, &r.StartTime, &r.EndTime, &r.SlotDuration); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.Days, err = decodeDays(days)
		if err != nil {
			return nil, fmt.Errorf("rule for %s: %w", r.Specialty, err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// encodeDays stores weekdays as a comma separated list of ints, e.g. "1,3,5".
func encodeDays(days []model.Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func decodeDays(s string) ([]model.Weekday, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]model.Weekday, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("decode days %q: %w", s, err)
		}
		days = append(days, model.Weekday(n))
	}
	return days, nil
}
