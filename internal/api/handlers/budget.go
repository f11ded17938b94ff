package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/starcontent/adpulse/internal/budget"
	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/pkg/logger"
)

// BudgetHandler exposes the budget hierarchy over HTTP
type BudgetHandler struct {
	store     contracts.BudgetStore
	generator *budget.Generator
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(store contracts.BudgetStore, generator *budget.Generator, log *logger.Logger) *BudgetHandler {
	return &BudgetHandler{
		store:     store,
		generator: generator,
		validate:  validator.New(),
		logger:    log,
	}
}

// ListPlans returns the active plans covering a date (default today)
// GET /api/plans?date=2026-03-10
func (h *BudgetHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r, "date")
	if !ok {
		return
	}

	plans, err := h.store.ListActivePlans(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list plans")
		writeError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":  date.Format("2006-01-02"),
		"plans": plans,
	})
}

// ListAllocations returns the allocations under one plan
// GET /api/plans/{planID}/allocations
func (h *BudgetHandler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	planID, err := strconv.ParseInt(mux.Vars(r)["planID"], 10, 64)
	if err != nil || planID <= 0 {
		writeError(w, http.StatusBadRequest, "planID must be a positive integer")
		return
	}

	allocations, err := h.store.ListAllocations(r.Context(), planID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list allocations")
		writeError(w, http.StatusInternalServerError, "failed to list allocations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"plan_id":     planID,
		"allocations": allocations,
	})
}

// GetDailyBudget returns one allocation's daily slice and target rows
// GET /api/allocations/{allocationID}/daily?date=2026-03-10
func (h *BudgetHandler) GetDailyBudget(w http.ResponseWriter, r *http.Request) {
	allocationID, err := strconv.ParseInt(mux.Vars(r)["allocationID"], 10, 64)
	if err != nil || allocationID <= 0 {
		writeError(w, http.StatusBadRequest, "allocationID must be a positive integer")
		return
	}
	date, ok := dateParam(w, r, "date")
	if !ok {
		return
	}
	date = budget.Midnight(date)

	daily, err := h.store.GetDailyBudget(r.Context(), allocationID, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load daily budget")
		writeError(w, http.StatusInternalServerError, "failed to load daily budget")
		return
	}
	if daily == nil {
		writeError(w, http.StatusNotFound, "no daily budget for this date")
		return
	}

	targets, err := h.store.ListTargetBudgets(r.Context(), allocationID, date)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load target budgets")
		writeError(w, http.StatusInternalServerError, "failed to load target budgets")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"daily_budget": daily,
		"targets":      targets,
	})
}

// GenerateRequest is the daily budget generation payload
type GenerateRequest struct {
	Date string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Generate materializes daily budgets for one date
// POST /api/budgets/generate
func (h *BudgetHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	date := time.Now().UTC()
	if req.Date != "" {
		date, _ = time.Parse("2006-01-02", req.Date)
	}

	created, err := h.generator.GenerateForDate(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Daily budget generation failed")
		writeError(w, http.StatusInternalServerError, "generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":    budget.Midnight(date).Format("2006-01-02"),
		"created": created,
	})
}

// dateParam parses an optional YYYY-MM-DD query parameter, default now
func dateParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Now().UTC(), true
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, name+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}
