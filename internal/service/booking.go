// Package service orchestrates the slot planner and the appointment store.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomasperezponisio/tp2-clinica-online/internal/events"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/metrics"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/model"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/planner"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/store"
)

var (
	// ErrInvalidRequest marks structurally invalid caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSlotUnavailable is returned when the requested slot is not one the
	// planner currently offers.
	ErrSlotUnavailable = errors.New("slot is not available")
	// ErrInvalidTransition is returned for a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// AppointmentStore is the persistence boundary of the service.
type AppointmentStore interface {
	GetRules(ctx context.Context, specialistID string) ([]model.AvailabilityRule, error)
	UpsertSpecialist(ctx context.Context, sp *model.Specialist) error
	ReplaceRules(ctx context.Context, specialistID string, rules []model.AvailabilityRule) error
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, expect, to model.AppointmentStatus, commentKind, comment string) error
	AttachHistory(ctx context.Context, id string, h *model.ClinicalHistory) error
	SaveFeedback(ctx context.Context, id string, rating int, surveyDone bool) error
	ListByPatient(ctx context.Context, patientID string) ([]model.Appointment, error)
	ListBySpecialist(ctx context.Context, specialistID string) ([]model.Appointment, error)
	ListAll(ctx context.Context) ([]model.Appointment, error)
}

// ReservedProvider supplies reserved-slot snapshots and drops stale ones
// after writes.
type ReservedProvider interface {
	ReservedSlots(ctx context.Context, specialistID string) (planner.ReservedSet, error)
	Invalidate(ctx context.Context, specialistID string)
}

// EventPublisher publishes appointment lifecycle events.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Clock supplies the current time; injectable so past-time filtering is
// testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewRealClock returns a Clock backed by time.Now.
func NewRealClock() Clock { return realClock{} }

// BookingService implements the appointment operations on top of the pure
// planner.
type BookingService struct {
	store       AppointmentStore
	reserved    ReservedProvider
	clock       Clock
	bus         EventPublisher
	logger      *zerolog.Logger
	horizonDays int
}

// NewBookingService wires the service. A non-positive horizon falls back to
// the planner default.
func NewBookingService(st AppointmentStore, reserved ReservedProvider, clock Clock, bus EventPublisher, logger *zerolog.Logger, horizonDays int) *BookingService {
	if horizonDays <= 0 {
		horizonDays = planner.DefaultHorizonDays
	}
	return &BookingService{
		store:       st,
		reserved:    reserved,
		clock:       clock,
		bus:         bus,
		logger:      logger,
		horizonDays: horizonDays,
	}
}

// AvailableSlots returns the open slots for a specialist and specialty.
// horizonDays 0 uses the configured default; negative values are rejected
// by the planner.
func (s *BookingService) AvailableSlots(ctx context.Context, specialistID, specialty string, horizonDays int) ([]planner.Slot, error) {
	if specialistID == "" || specialty == "" {
		return nil, fmt.Errorf("%w: specialist and specialty are required", ErrInvalidRequest)
	}
	if horizonDays == 0 {
		horizonDays = s.horizonDays
	}

	rules, err := s.store.GetRules(ctx, specialistID)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	reserved, err := s.reserved.ReservedSlots(ctx, specialistID)
	if err != nil {
		return nil, fmt.Errorf("load reserved slots: %w", err)
	}

	slots, err := planner.Generate(rules, specialty, reserved, horizonDays, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("specialist_id", specialistID).
		Str("specialty", specialty).
		Int("slots", len(slots)).
		Msg("generated available slots")

	return slots, nil
}

// BookingRequest carries the data needed to request an appointment.
type BookingRequest struct {
	PatientID      string `json:"patient_id"`
	PatientName    string `json:"patient_name"`
	SpecialistID   string `json:"specialist_id"`
	SpecialistName string `json:"specialist_name"`
	Specialty      string `json:"specialty"`
	Date           string `json:"date"`
	Time           string `json:"time"`
}

func (r *BookingRequest) validate() error {
	switch {
	case r.PatientID == "":
		return fmt.Errorf("%w: patient_id is required", ErrInvalidRequest)
	case r.SpecialistID == "":
		return fmt.Errorf("%w: specialist_id is required", ErrInvalidRequest)
	case r.Specialty == "":
		return fmt.Errorf("%w: specialty is required", ErrInvalidRequest)
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return fmt.Errorf("%w: invalid date %q", ErrInvalidRequest, r.Date)
	}
	if _, err := model.ParseClockTime(r.Time); err != nil {
		return fmt.Errorf("%w: invalid time %q", ErrInvalidRequest, r.Time)
	}
	return nil
}

// RequestAppointment books a slot for a patient. The requested slot must be
// one the planner currently offers; the conditional insert in the store
// settles races between concurrent requests for the same slot.
func (s *BookingService) RequestAppointment(ctx context.Context, req BookingRequest) (*model.Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	slots, err := s.AvailableSlots(ctx, req.SpecialistID, req.Specialty, 0)
	if err != nil {
		return nil, err
	}

	requested := planner.Slot{Date: req.Date, Time: req.Time}
	offered := false
	for _, slot := range slots {
		if slot == requested {
			offered = true
			break
		}
	}
	if !offered {
		return nil, fmt.Errorf("%w: %s %s", ErrSlotUnavailable, req.Date, req.Time)
	}

	appointment := &model.Appointment{
		ID:             uuid.NewString(),
		PatientID:      req.PatientID,
		PatientName:    req.PatientName,
		SpecialistID:   req.SpecialistID,
		SpecialistName: req.SpecialistName,
		Specialty:      req.Specialty,
		Date:           req.Date,
		Time:           req.Time,
		Status:         model.StatusPending,
	}

	if err := s.store.CreateAppointment(ctx, appointment); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			metrics.IncSlotConflict()
			s.logger.Info().
				Str("specialist_id", req.SpecialistID).
				Str("date", req.Date).
				Str("time", req.Time).
				Msg("booking lost the race for a slot")
		}
		return nil, err
	}

	s.reserved.Invalidate(ctx, req.SpecialistID)
	metrics.IncAppointmentRequested()

	if err := s.bus.PublishJSON(events.TypeAppointmentRequested, appointment); err != nil {
		s.logger.Error().Err(err).Msg("publish appointment event")
	}

	s.logger.Info().
		Str("appointment_id", appointment.ID).
		Str("specialist_id", req.SpecialistID).
		Str("date", req.Date).
		Str("time", req.Time).
		Msg("appointment requested")

	return appointment, nil
}

// StatusChange describes a requested transition. Actor routes the optional
// comment to the right column: patient, specialist or admin. Completing an
// appointment records the comment as the specialist's review.
type StatusChange struct {
	To      model.AppointmentStatus `json:"to"`
	Comment string                  `json:"comment,omitempty"`
	Actor   string                  `json:"actor,omitempty"`
}

var validActors = map[string]bool{"": true, "patient": true, "specialist": true, "admin": true}

// ChangeStatus applies a guarded status transition.
func (s *BookingService) ChangeStatus(ctx context.Context, id string, change StatusChange) (*model.Appointment, error) {
	if !model.IsValidStatus(change.To) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, change.To)
	}
	if !validActors[change.Actor] {
		return nil, fmt.Errorf("%w: unknown actor %q", ErrInvalidRequest, change.Actor)
	}

	appointment, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	if !model.CanTransition(appointment.Status, change.To) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appointment.Status, change.To)
	}

	commentKind := change.Actor
	if change.To == model.StatusCompleted {
		commentKind = "review"
	}
	if change.Comment != "" && commentKind == "" {
		return nil, fmt.Errorf("%w: actor is required with a comment", ErrInvalidRequest)
	}

	if err := s.store.UpdateStatus(ctx, id, appointment.Status, change.To, commentKind, change.Comment); err != nil {
		return nil, err
	}

	// A transition out of an active status frees the slot.
	s.reserved.Invalidate(ctx, appointment.SpecialistID)
	metrics.IncStatusChanged(string(change.To))

	if err := s.bus.PublishJSON(events.TypeStatusChanged, map[string]string{
		"appointment_id": id,
		"from":           string(appointment.Status),
		"to":             string(change.To),
	}); err != nil {
		s.logger.Error().Err(err).Msg("publish status event")
	}

	return s.store.GetAppointment(ctx, id)
}

// AttachHistory records the clinical history of a completed appointment.
func (s *BookingService) AttachHistory(ctx context.Context, id string, h *model.ClinicalHistory) error {
	if h == nil {
		return fmt.Errorf("%w: history is required", ErrInvalidRequest)
	}

	appointment, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if appointment.Status != model.StatusCompleted {
		return fmt.Errorf("%w: history requires a completed appointment, got %s", ErrInvalidRequest, appointment.Status)
	}

	return s.store.AttachHistory(ctx, id, h)
}

// SubmitFeedback records the patient's rating and survey for a completed
// appointment.
func (s *BookingService) SubmitFeedback(ctx context.Context, id string, rating int, surveyDone bool) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be 1-5", ErrInvalidRequest)
	}

	appointment, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if appointment.Status != model.StatusCompleted {
		return fmt.Errorf("%w: feedback requires a completed appointment, got %s", ErrInvalidRequest, appointment.Status)
	}

	return s.store.SaveFeedback(ctx, id, rating, surveyDone)
}

// ReplaceRules provisions the specialist profile and stores their
// availability rule set, validating both first.
func (s *BookingService) ReplaceRules(ctx context.Context, sp *model.Specialist, rules []model.AvailabilityRule) error {
	switch {
	case sp == nil || sp.ID == "":
		return fmt.Errorf("%w: specialist id is required", ErrInvalidRequest)
	case sp.Email == "":
		return fmt.Errorf("%w: specialist email is required", ErrInvalidRequest)
	}

	seen := make(map[string]bool, len(rules))
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return fmt.Errorf("%w: rule %d: %v", ErrInvalidRequest, i, err)
		}
		if seen[rules[i].Specialty] {
			return fmt.Errorf("%w: duplicate rule for specialty %q", ErrInvalidRequest, rules[i].Specialty)
		}
		seen[rules[i].Specialty] = true
	}

	if err := s.store.UpsertSpecialist(ctx, sp); err != nil {
		return err
	}
	return s.store.ReplaceRules(ctx, sp.ID, rules)
}

// Appointments lists appointments filtered by patient or specialist; both
// empty lists everything.
func (s *BookingService) Appointments(ctx context.Context, patientID, specialistID string) ([]model.Appointment, error) {
	switch {
	case patientID != "" && specialistID != "":
		return nil, fmt.Errorf("%w: filter by patient or specialist, not both", ErrInvalidRequest)
	case patientID != "":
		return s.store.ListByPatient(ctx, patientID)
	case specialistID != "":
		return s.store.ListBySpecialist(ctx, specialistID)
	default:
		return s.store.ListAll(ctx)
	}
}
