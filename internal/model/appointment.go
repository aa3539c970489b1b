package model

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusAccepted  AppointmentStatus = "accepted"
	StatusRejected  AppointmentStatus = "rejected"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// statusTransitions lists allowed status changes. Rejected, cancelled and
// completed are terminal.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:  {StatusAccepted, StatusRejected, StatusCancelled},
	StatusAccepted: {StatusCancelled, StatusCompleted},
}

// CanTransition checks if a status change is allowed.
func CanTransition(from, to AppointmentStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether s is part of the status vocabulary.
func IsValidStatus(s AppointmentStatus) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// IsActive reports whether the status still occupies its time slot.
// Rejected, cancelled and completed appointments free the slot.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusPending || s == StatusAccepted
}

// ClinicalHistory is the visit record a specialist attaches to a completed
// appointment.
type ClinicalHistory struct {
	Height      float64           `json:"height"`      // cm
	Weight      float64           `json:"weight"`      // kg
	Temperature float64           `json:"temperature"` // °C
	Pressure    string            `json:"pressure"`    // e.g. "120/80"
	Extras      map[string]string `json:"extras,omitempty"`
}

// Appointment is a booked slot between a patient and a specialist.
type Appointment struct {
	ID                 string            `json:"id"`
	PatientID          string            `json:"patient_id"`
	PatientName        string            `json:"patient_name"`
	SpecialistID       string            `json:"specialist_id"`
	SpecialistName     string            `json:"specialist_name"`
	Specialty          string            `json:"specialty"`
	Date               string            `json:"date"` // YYYY-MM-DD
	Time               string            `json:"time"` // HH:MM
	Status             AppointmentStatus `json:"status"`
	PatientComment     string            `json:"patient_comment,omitempty"`
	SpecialistComment  string            `json:"specialist_comment,omitempty"`
	AdminComment       string            `json:"admin_comment,omitempty"`
	Review             string            `json:"review,omitempty"`
	Rating             int               `json:"rating,omitempty"` // 1-5, 0 = not rated
	SurveyDone         bool              `json:"survey_done"`
	History            *ClinicalHistory  `json:"history,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}
