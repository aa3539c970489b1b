// Package api exposes the booking service over a JSON HTTP interface.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomasperezponisio/tp2-clinica-online/internal/planner"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/service"
	"github.com/tomasperezponisio/tp2-clinica-online/internal/store"
)

// HTTPServer serves the clinic booking API.
type HTTPServer struct {
	svc    *service.BookingService
	logger *zerolog.Logger

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
	limit     rate.Limit
	burst     int
}

// NewHTTPServer creates the API server. ratePerSec/burst configure the
// per-client limiter; non-positive values disable limiting.
func NewHTTPServer(svc *service.BookingService, logger *zerolog.Logger, ratePerSec float64, burst int) *HTTPServer {
	return &HTTPServer{
		svc:      svc,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(ratePerSec),
		burst:    burst,
	}
}

// Handler returns the routed HTTP handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/slots", s.handleSlots)
	mux.HandleFunc("/api/appointments", s.handleAppointments)
	mux.HandleFunc("/api/appointments/", s.handleAppointmentAction)
	mux.HandleFunc("/api/specialists/", s.handleSpecialistRules)
	mux.HandleFunc("/health", s.handleHealth)

	return s.rateLimit(mux)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// rateLimit applies a per-client token bucket.
func (s *HTTPServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		if !s.limiterFor(clientIP(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) limiterFor(ip string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()

	limiter, ok := s.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(s.limit, s.burst)
		s.limiters[ip] = limiter
	}
	return limiter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto HTTP statuses.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, planner.ErrInvalidHorizon),
		errors.Is(err, planner.ErrMalformedRule):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrSlotTaken),
		errors.Is(err, store.ErrStatusConflict),
		errors.Is(err, service.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}
