package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/graniteflow/crm-backend/internal/entity"
	"github.com/graniteflow/crm-backend/internal/infra/http/middleware"
	"github.com/graniteflow/crm-backend/internal/usecase"
)

type LeadHandler struct {
	Capture     *usecase.CaptureLeadUseCase
	Advance     *usecase.AdvanceStageUseCase
	Route       *usecase.RouteLeadUseCase
	Sequences   *usecase.SequenceScheduler
	Leads       entity.LeadRepositoryInterface
	rateLimiter *RateLimiter
}

func NewLeadHandler(
	capture *usecase.CaptureLeadUseCase,
	advance *usecase.AdvanceStageUseCase,
	route *usecase.RouteLeadUseCase,
	sequences *usecase.SequenceScheduler,
	leads entity.LeadRepositoryInterface,
) *LeadHandler {
	return &LeadHandler{
		Capture:     capture,
		Advance:     advance,
		Route:       route,
		Sequences:   sequences,
		Leads:       leads,
		rateLimiter: NewRateLimiter(10, time.Minute), // 10 req/min per IP
	}
}

func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	clientIP := getClientIP(r)
	if !h.rateLimiter.Allow(clientIP) {
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
		return
	}

	var input usecase.CaptureLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return
	}

	lead, err := h.Capture.Execute(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	middleware.RecordLeadCaptured(string(lead.Source))
	writeJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadId")

	lead, err := h.Leads.FindByID(r.Context(), leadID)
	if err != nil {
		if err == entity.ErrLeadNotFound {
			writeError(w, http.StatusNotFound, "LEAD_NOT_FOUND", "lead not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to load lead")
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) AdvanceStage(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadId")

	var input struct {
		Stage entity.PipelineStage `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON")
		return
	}

	lead, err := h.Advance.Execute(r.Context(), leadID, input.Stage)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	middleware.RecordStageTransition(string(input.Stage))
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) RouteLead(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadId")

	lead, err := h.Leads.FindByID(r.Context(), leadID)
	if err != nil {
		if err == entity.ErrLeadNotFound {
			writeError(w, http.StatusNotFound, "LEAD_NOT_FOUND", "lead not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to load lead")
		return
	}

	rep, err := h.Route.Execute(r.Context(), lead)
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	// No rep with spare capacity is a normal outcome, not an error.
	if rep == nil {
		writeJSON(w, http.StatusOK, map[string]any{"assigned": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"assigned": true, "rep": rep})
}

func (h *LeadHandler) StartSequence(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadId")

	lead, err := h.Leads.FindByID(r.Context(), leadID)
	if err != nil {
		if err == entity.ErrLeadNotFound {
			writeError(w, http.StatusNotFound, "LEAD_NOT_FOUND", "lead not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to load lead")
		return
	}

	if err := h.Sequences.StartEmailSequence(r.Context(), lead); err != nil {
		writeUseCaseError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"started": true})
}

func (h *LeadHandler) StartRetention(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")

	if err := h.Sequences.StartRetentionSequence(r.Context(), customerID); err != nil {
		writeUseCaseError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"started": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "error": message})
}

func writeUseCaseError(w http.ResponseWriter, err error) {
	if de, ok := err.(*usecase.DomainError); ok {
		status := http.StatusBadRequest
		switch de.Code {
		case "LEAD_NOT_FOUND", "CUSTOMER_NOT_FOUND":
			status = http.StatusNotFound
		case "STAGE_CONFLICT":
			status = http.StatusConflict
		}
		writeError(w, status, de.Code, de.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
