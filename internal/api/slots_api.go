package api

import (
	"net/http"

	"github.com/tomasperezponisio/tp2-clinica-online/internal/metrics"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/planner"
)

// SlotsRequest is the request body for POST /api/slots.
type SlotsRequest struct {
	SpecialistID string `json:"specialist_id"`
	Specialty    string `json:"specialty"`
	HorizonDays  int    `json:"horizon_days,omitempty"` // 0 = default window
}

// SlotsResponse is the response for POST /api/slots.
type SlotsResponse struct {
	Slots []planner.Slot `json:"slots"`
}

// handleSlots returns the open slots for a specialist and specialty.
// POST /api/slots
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req SlotsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	slots, err := s.svc.AvailableSlots(r.Context(), req.SpecialistID, req.Specialty, req.HorizonDays)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SlotsResponse{Slots: slots})
}
