package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasperezponisio/tp2-clinica-online/internal/model"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/planner"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testAppointment(id, date, timeOfDay string) *model.Appointment {
	return &model.Appointment{
		ID:             id,
		PatientID:      "patient-1",
		PatientName:    "Ana Gomez",
		SpecialistID:   "spec-1",
		SpecialistName: "Dr. Perez",
		Specialty:      "cardiology",
		Date:           date,
		Time:           timeOfDay,
		Status:         model.StatusPending,
	}
}

func TestCreateAppointmentConditionalInsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAppointment(ctx, testAppointment("a1", "2026-09-07", "09:00")))

	// Same slot, different patient: rejected while the first is active.
	dup := testAppointment("a2", "2026-09-07", "09:00")
	dup.PatientID = "patient-2"
	assert.ErrorIs(t, s.CreateAppointment(ctx, dup), ErrSlotTaken)

	// A different time on the same day is fine.
	require.NoError(t, s.CreateAppointment(ctx, testAppointment("a3", "2026-09-07", "09:30")))

	// Cancelling the first frees the slot for rebooking.
	require.NoError(t, s.UpdateStatus(ctx, "a1", model.StatusPending, model.StatusCancelled, "patient", "cannot make it"))
	require.NoError(t, s.CreateAppointment(ctx, dup))
}

func TestUpdateStatusGuard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAppointment(ctx, testAppointment("a1", "2026-09-07", "09:00")))

	// Wrong expected status: the compare-and-swap fails.
	err := s.UpdateStatus(ctx, "a1", model.StatusAccepted, model.StatusCompleted, "", "")
	assert.ErrorIs(t, err, ErrStatusConflict)

	// Unknown appointment.
	err = s.UpdateStatus(ctx, "missing", model.StatusPending, model.StatusAccepted, "", "")
	assert.ErrorIs(t, err, ErrNotFound)

	// Correct expected status with a specialist comment.
	require.NoError(t, s.UpdateStatus(ctx, "a1", model.StatusPending, model.StatusRejected, "specialist", "schedule conflict"))

	a, err := s.GetAppointment(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, a.Status)
	assert.Equal(t, "schedule conflict", a.SpecialistComment)
}

func TestReservedSlots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAppointment(ctx, testAppointment("a1", "2026-09-07", "09:00")))
	require.NoError(t, s.CreateAppointment(ctx, testAppointment("a2", "2026-09-07", "09:30")))
	require.NoError(t, s.UpdateStatus(ctx, "a2", model.StatusPending, model.StatusAccepted, "", ""))

	// Cancelled appointments do not occupy slots.
	require.NoError(t, s.CreateAppointment(ctx, testAppointment("a3", "2026-09-08", "10:00")))
	require.NoError(t, s.UpdateStatus(ctx, "a3", model.StatusPending, model.StatusCancelled, "", ""))

	reserved, err := s.ReservedSlots(ctx, "spec-1")
	require.NoError(t, err)

	assert.Len(t, reserved, 2)
	assert.True(t, reserved.Contains("2026-09-07", "09:00"))
	assert.True(t, reserved.Contains("2026-09-07", "09:30"))
	assert.False(t, reserved.Contains("2026-09-08", "10:00"))
}

func TestAttachHistoryAndFeedback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAppointment(ctx, testAppointment("a1", "2026-09-07", "09:00")))

	h := &model.ClinicalHistory{
		Height:      178,
		Weight:      75.5,
		Temperature: 36.6,
		Pressure:    "120/80",
		Extras:      map[string]string{"smoker": "no"},
	}
	require.NoError(t, s.AttachHistory(ctx, "a1", h))
	require.NoError(t, s.SaveFeedback(ctx, "a1", 5, true))

	a, err := s.GetAppointment(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, a.History)
	assert.Equal(t, 178.0, a.History.Height)
	assert.Equal(t, "no", a.History.Extras["smoker"])
	assert.Equal(t, 5, a.Rating)
	assert.True(t, a.SurveyDone)

	assert.ErrorIs(t, s.AttachHistory(ctx, "missing", h), ErrNotFound)
}

func TestSpecialistRules(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := &model.Specialist{ID: "spec-1", FirstName: "Juan", LastName: "Perez", Email: "jp@clinic.test"}
	require.NoError(t, s.UpsertSpecialist(ctx, sp))

	rules := []model.AvailabilityRule{
		{
			Specialty:    "cardiology",
			Days:         []model.Weekday{model.Monday, model.Wednesday},
			StartTime:    "09:00",
			EndTime:      "13:00",
			SlotDuration: 30,
		},
		{
			Specialty:    "clinical",
			Days:         []model.Weekday{model.Friday},
			StartTime:    "14:00",
			EndTime:      "18:00",
			SlotDuration: 60,
		},
	}
	require.NoError(t, s.ReplaceRules(ctx, "spec-1", rules))

	got, err := s.GetRules(ctx, "spec-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rules[0].Specialty, got[0].Specialty)
	assert.Equal(t, []model.Weekday{model.Monday, model.Wednesday}, got[0].Days)
	assert.Equal(t, 60, got[1].SlotDuration)

	// Replace drops the old set.
	require.NoError(t, s.ReplaceRules(ctx, "spec-1", rules[:1]))
	got, err = s.GetRules(ctx, "spec-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReplaceRulesUnknownSpecialist(t *testing.T) {
	s := newTestStore(t)

	rules := []model.AvailabilityRule{{
		Specialty:    "cardiology",
		Days:         []model.Weekday{model.Monday},
		StartTime:    "09:00",
		EndTime:      "10:00",
		SlotDuration: 30,
	}}

	err := s.ReplaceRules(context.Background(), "spec-missing", rules)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAppointments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAppointment(ctx, testAppointment("a1", "2026-09-07", "09:00")))

	other := testAppointment("a2", "2026-09-08", "10:00")
	other.PatientID = "patient-2"
	other.SpecialistID = "spec-2"
	require.NoError(t, s.CreateAppointment(ctx, other))

	byPatient, err := s.ListByPatient(ctx, "patient-1")
	require.NoError(t, err)
	assert.Len(t, byPatient, 1)
	assert.Equal(t, "a1", byPatient[0].ID)

	bySpecialist, err := s.ListBySpecialist(ctx, "spec-2")
	require.NoError(t, err)
	assert.Len(t, bySpecialist, 1)
	assert.Equal(t, "a2", bySpecialist[0].ID)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// Reserved sets from the store must plug straight into the planner.
func TestReservedSlotsFeedPlanner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAppointment(ctx, testAppointment("a1", "2026-09-07", "09:00")))

	reserved, err := s.ReservedSlots(ctx, "spec-1")
	require.NoError(t, err)

	_, ok := reserved[planner.Key("2026-09-07", "09:00")]
	assert.True(t, ok)
}
