// Package planner computes bookable time slots from a specialist's weekly
// recurring availability. It is pure: no I/O, no clock reads, no shared state.
package planner

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomasperezponisio/tp2-clinica-online/internal/model"
)

// DefaultHorizonDays is the forward scheduling window. The end date is
// included, so the default scan covers 16 calendar days.
const DefaultHorizonDays = 15

var (
	// ErrInvalidHorizon is returned for a negative horizon.
	ErrInvalidHorizon = errors.New("horizon days must not be negative")
	// ErrMalformedRule is returned when the matched rule carries an
	// unparseable time string.
	ErrMalformedRule = errors.New("malformed availability rule")
)

// Slot is a single bookable (date, time) pair. Two slots are equal iff both
// fields match.
type Slot struct {
	Date string `json:"date"` // YYYY-MM-DD
	Time string `json:"time"` // HH:MM
}

// Key returns the reservation key for a (date, time) pair.
func Key(date, timeOfDay string) string {
	return date + "_" + timeOfDay
}

// ReservedSet holds the slots already claimed by active appointments,
// keyed by Key(date, time).
type ReservedSet map[string]struct{}

// Add marks a (date, time) pair as reserved.
func (r ReservedSet) Add(date, timeOfDay string) {
	r[Key(date, timeOfDay)] = struct{}{}
}

// Contains reports whether a (date, time) pair is reserved.
func (r ReservedSet) Contains(date, timeOfDay string) bool {
	_, ok := r[Key(date, timeOfDay)]
	return ok
}

// Generate returns the open slots for one specialty over the inclusive
// window [now, now+horizonDays], in day-then-time order.
//
// The first rule matching the specialty wins (byte-exact comparison); no
// matching rule yields an empty result, not an error. A rule whose start
// time is not before its end time yields zero slots. On the current day,
// slots whose start time has already passed are skipped; a slot starting
// exactly at now is kept.
func Generate(rules []model.AvailabilityRule, specialty string, reserved ReservedSet, horizonDays int, now time.Time) ([]Slot, error) {
	if horizonDays < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizonDays)
	}

	slots := make([]Slot, 0)

	var rule *model.AvailabilityRule
	for i := range rules {
		if rules[i].Specialty == specialty {
			rule = &rules[i]
			break
		}
	}
	if rule == nil {
		return slots, nil
	}

	startMinutes, err := model.ParseClockTime(rule.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRule, err)
	}
	endMinutes, err := model.ParseClockTime(rule.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRule, err)
	}
	if rule.SlotDuration <= 0 {
		return nil, fmt.Errorf("%w: slot duration %d", ErrMalformedRule, rule.SlotDuration)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	nowMinutes := now.Hour()*60 + now.Minute()

	for i := 0; i <= horizonDays; i++ {
		day := today.AddDate(0, 0, i)

		if !ruleCoversWeekday(rule, model.Weekday(day.Weekday())) {
			continue
		}

		date := day.Format("2006-01-02")

		for t := startMinutes; t+rule.SlotDuration <= endMinutes; t += rule.SlotDuration {
			// Skip slots that already started today.
			if i == 0 && t < nowMinutes {
				continue
			}

			timeOfDay := model.FormatClockTime(t)
			if reserved.Contains(date, timeOfDay) {
				continue
			}

			slots = append(slots, Slot{Date: date, Time: timeOfDay})
		}
	}

	return slots, nil
}

func ruleCoversWeekday(rule *model.AvailabilityRule, day model.Weekday) bool {
	for _, d := range rule.Days {
		if d == day {
			return true
		}
	}
	return false
}
