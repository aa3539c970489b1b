package api

import (
	"net/http"
	"strings"

	"github.com/tomasperezponisio/tp2-clinica-online/internal/metrics"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/model"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/service"
)

// handleAppointments creates or lists appointments.
// POST /api/appointments, GET /api/appointments?patient=|specialist=
func (s *HTTPServer) handleAppointments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateAppointment(w, r)
	case http.MethodGet:
		s.handleListAppointments(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("appointments_create")

	var req service.BookingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appointment, err := s.svc.RequestAppointment(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, appointment)
}

func (s *HTTPServer) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("appointments_list")

	appointments, err := s.svc.Appointments(r.Context(), r.URL.Query().Get("patient"), r.URL.Query().Get("specialist"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	if appointments == nil {
		appointments = []model.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appointments})
}

// StatusRequest is the body for POST /api/appointments/{id}/status.
type StatusRequest struct {
	To      string `json:"to"`
	Comment string `json:"comment,omitempty"`
	Actor   string `json:"actor,omitempty"`
}

// HistoryRequest is the body for POST /api/appointments/{id}/history.
type HistoryRequest struct {
	Height      float64           `json:"height"`
	Weight      float64           `json:"weight"`
	Temperature float64           `json:"temperature"`
	Pressure    string            `json:"pressure"`
	Extras      map[string]string `json:"extras,omitempty"`
}

// FeedbackRequest is the body for POST /api/appointments/{id}/feedback.
type FeedbackRequest struct {
	Rating     int  `json:"rating"`
	SurveyDone bool `json:"survey_done"`
}

// handleAppointmentAction routes /api/appointments/{id}/{action}.
func (s *HTTPServer) handleAppointmentAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/appointments/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "invalid path; expected /api/appointments/{id}/{action}")
		return
	}
	id, action := parts[0], parts[1]

	switch action {
	case "status":
		s.handleStatusChange(w, r, id)
	case "history":
		s.handleAttachHistory(w, r, id)
	case "feedback":
		s.handleFeedback(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "unknown action: "+action)
	}
}

func (s *HTTPServer) handleStatusChange(w http.ResponseWriter, r *http.Request, id string) {
	metrics.IncHTTP("appointments_status")

	var req StatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	appointment, err := s.svc.ChangeStatus(r.Context(), id, service.StatusChange{
		To:      model.AppointmentStatus(req.To),
		Comment: req.Comment,
		Actor:   req.Actor,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, appointment)
}

func (s *HTTPServer) handleAttachHistory(w http.ResponseWriter, r *http.Request, id string) {
	metrics.IncHTTP("appointments_history")

	var req HistoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := s.svc.AttachHistory(r.Context(), id, &model.ClinicalHistory{
		Height:      req.Height,
		Weight:      req.Weight,
		Temperature: req.Temperature,
		Pressure:    req.Pressure,
		Extras:      req.Extras,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleFeedback(w http.ResponseWriter, r *http.Request, id string) {
	metrics.IncHTTP("appointments_feedback")

	var req FeedbackRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.svc.SubmitFeedback(r.Context(), id, req.Rating, req.SurveyDone); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
