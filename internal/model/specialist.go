package model

import "fmt"

// Weekday numbering follows time.Weekday: Sunday = 0 .. Saturday = 6.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [7]string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

func (w Weekday) String() string {
	if w < Sunday || w > Saturday {
		return fmt.Sprintf("weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// ParseWeekday parses a lowercase weekday name.
func ParseWeekday(s string) (Weekday, error) {
	for i, name := range weekdayNames {
		if name == s {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday: %q", s)
}

// MinSlotDuration is the shortest bookable slot in minutes.
const MinSlotDuration = 30

// AvailabilityRule is a specialist's recurring weekly availability for one
// specialty. Validation happens when the rule is saved; the planner assumes
// rules are well formed and degrades to zero slots otherwise.
type AvailabilityRule struct {
	Specialty    string    `json:"specialty"`
	Days         []Weekday `json:"days"`
	StartTime    string    `json:"start_time"` // HH:MM, 24h
	EndTime      string    `json:"end_time"`   // HH:MM, exclusive
	SlotDuration int       `json:"slot_duration"` // minutes
}

// Validate checks rule invariants at the edit boundary.
func (r *AvailabilityRule) Validate() error {
	if r.Specialty == "" {
		return fmt.Errorf("specialty is required")
	}
	if len(r.Days) == 0 {
		return fmt.Errorf("at least one weekday is required")
	}
	for _, d := range r.Days {
		if d < Sunday || d > Saturday {
			return fmt.Errorf("invalid weekday: %d", int(d))
		}
	}
	start, err := ParseClockTime(r.StartTime)
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	end, err := ParseClockTime(r.EndTime)
	if err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if start >= end {
		return fmt.Errorf("start_time %s must be before end_time %s", r.StartTime, r.EndTime)
	}
	if r.SlotDuration < MinSlotDuration {
		return fmt.Errorf("slot_duration must be at least %d minutes", MinSlotDuration)
	}
	return nil
}

// Specialist is referenced by the planner but owned by the user-profile side
// of the system.
type Specialist struct {
	ID          string             `json:"id"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	Email       string             `json:"email"`
	Specialties []string           `json:"specialties"`
	Rules       []AvailabilityRule `json:"rules,omitempty"`
}
