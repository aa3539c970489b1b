package model

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    AppointmentStatus
		to      AppointmentStatus
		allowed bool
	}{
		{StatusPending, StatusAccepted, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusAccepted, StatusCancelled, true},
		{StatusAccepted, StatusCompleted, true},
		{StatusAccepted, StatusRejected, false},
		{StatusAccepted, StatusPending, false},
		{StatusRejected, StatusPending, false},
		{StatusCancelled, StatusAccepted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestStatusIsActive(t *testing.T) {
	active := []AppointmentStatus{StatusPending, StatusAccepted}
	inactive := []AppointmentStatus{StatusRejected, StatusCancelled, StatusCompleted}

	for _, s := range active {
		if !s.IsActive() {
			t.Errorf("%s should occupy its slot", s)
		}
	}
	for _, s := range inactive {
		if s.IsActive() {
			t.Errorf("%s should free its slot", s)
		}
	}
}

func TestAvailabilityRuleValidate(t *testing.T) {
	valid := AvailabilityRule{
		Specialty:    "cardiology",
		Days:         []Weekday{Monday, Wednesday},
		StartTime:    "09:00",
		EndTime:      "17:00",
		SlotDuration: 30,
	}

	tests := []struct {
		name    string
		mutate  func(r *AvailabilityRule)
		wantErr bool
	}{
		{"valid rule", func(r *AvailabilityRule) {}, false},
		{"missing specialty", func(r *AvailabilityRule) { r.Specialty = "" }, true},
		{"no days", func(r *AvailabilityRule) { r.Days = nil }, true},
		{"invalid weekday", func(r *AvailabilityRule) { r.Days = []Weekday{Weekday(7)} }, true},
		{"bad start time", func(r *AvailabilityRule) { r.StartTime = "9am" }, true},
		{"bad end time", func(r *AvailabilityRule) { r.EndTime = "25:00" }, true},
		{"start equals end", func(r *AvailabilityRule) { r.EndTime = r.StartTime }, true},
		{"start after end", func(r *AvailabilityRule) { r.StartTime = "18:00" }, true},
		{"duration below minimum", func(r *AvailabilityRule) { r.SlotDuration = 15 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := valid
			rule.Days = append([]Weekday(nil), valid.Days...)
			tt.mutate(&rule)

			err := rule.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		input   string
		minutes int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"12", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClockTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseClockTime(%q): expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClockTime(%q): %v", tt.input, err)
			}
			if got != tt.minutes {
				t.Errorf("ParseClockTime(%q) = %d, want %d", tt.input, got, tt.minutes)
			}
		})
	}
}

func TestFormatClockTime(t *testing.T) {
	tests := []struct {
		minutes  int
		expected string
	}{
		{0, "00:00"},
		{570, "09:30"},
		{605, "10:05"},
		{1439, "23:59"},
	}

	for _, tt := range tests {
		if got := FormatClockTime(tt.minutes); got != tt.expected {
			t.Errorf("FormatClockTime(%d) = %q, want %q", tt.minutes, got, tt.expected)
		}
	}
}

func TestParseWeekday(t *testing.T) {
	for i, name := range []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"} {
		got, err := ParseWeekday(name)
		if err != nil {
			t.Fatalf("ParseWeekday(%q): %v", name, err)
		}
		if int(got) != i {
			t.Errorf("ParseWeekday(%q) = %d, want %d", name, got, i)
		}
	}

	if _, err := ParseWeekday("Lunes"); err == nil {
		t.Error("expected error for unknown weekday name")
	}
}
