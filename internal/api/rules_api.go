package api

import (
	"net/http"
	"strings"

	"github.com/tomasperezponisio/tp2-clinica-online/internal/metrics"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/model"
)

// RuleInput is one availability rule in a PUT /api/specialists/{id}/rules
// body. Weekdays come in by name to keep payloads readable.
type RuleInput struct {
	Specialty    string   `json:"specialty"`
	Days         []string `json:"days"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	SlotDuration int      `json:"slot_duration"`
}

// SpecialistInput is the profile part of a PUT /api/specialists/{id}/rules
// body. The specialist row is created or updated together with the rules.
type SpecialistInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// RulesRequest is the body for PUT /api/specialists/{id}/rules.
type RulesRequest struct {
	Specialist SpecialistInput `json:"specialist"`
	Rules      []RuleInput     `json:"rules"`
}

// handleSpecialistRules upserts the specialist profile and replaces their
// availability rule set.
// PUT /api/specialists/{id}/rules
func (s *HTTPServer) handleSpecialistRules(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("specialist_rules")

	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use PUT")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/specialists/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "rules" {
		writeError(w, http.StatusBadRequest, "invalid path; expected /api/specialists/{id}/rules")
		return
	}
	specialistID := parts[0]

	var req RulesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rules := make([]model.AvailabilityRule, 0, len(req.Rules))
	for _, in := range req.Rules {
		days := make([]model.Weekday, 0, len(in.Days))
		for _, name := range in.Days {
			day, err := model.ParseWeekday(name)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			days = append(days, day)
		}
		rules = append(rules, model.AvailabilityRule{
			Specialty:    in.Specialty,
			Days:         days,
			StartTime:    in.StartTime,
			EndTime:      in.EndTime,
			SlotDuration: in.SlotDuration,
		})
	}

	sp := &model.Specialist{
		ID:        specialistID,
		FirstName: req.Specialist.FirstName,
		LastName:  req.Specialist.LastName,
		Email:     req.Specialist.Email,
	}

	if err := s.svc.ReplaceRules(r.Context(), sp, rules); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "rules": len(rules)})
}
