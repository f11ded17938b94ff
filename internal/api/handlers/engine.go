package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/internal/realloc"
	"github.com/starcontent/adpulse/pkg/logger"
	"github.com/starcontent/adpulse/pkg/redis"
)

// ScoreHistoryReader reads the append-only score history
type ScoreHistoryReader interface {
	GetByIDs(ctx context.Context, ids []int64) ([]*contracts.ContentItem, error)
	ListSnapshots(ctx context.Context, contentID int64, limit int) ([]*contracts.ScoreSnapshot, error)
}

// EngineHandler exposes the reallocation engine over HTTP
type EngineHandler struct {
	engine   *realloc.Engine
	runs     contracts.RunStore
	scores   ScoreHistoryReader
	limiter  *redis.RateLimiter
	validate *validator.Validate
	logger   *logger.Logger
}

// NewEngineHandler creates a new engine handler
func NewEngineHandler(engine *realloc.Engine, runs contracts.RunStore, scores ScoreHistoryReader, limiter *redis.RateLimiter, log *logger.Logger) *EngineHandler {
	return &EngineHandler{
		engine:   engine,
		runs:     runs,
		scores:   scores,
		limiter:  limiter,
		validate: validator.New(),
		logger:   log,
	}
}

// OptimizeRequest is the manual reallocation trigger payload
type OptimizeRequest struct {
	AllocationID int64  `json:"allocation_id" validate:"required,gt=0"`
	Date         string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DryRun       bool   `json:"dry_run"`
}

// Optimize triggers one reallocation run
// POST /api/optimize
func (h *EngineHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	// Live runs are rate-limited per allocation; previews are free
	if !req.DryRun {
		limit := redis.OptimizeTriggerLimit
		limit.Key = fmt.Sprintf("%s:%d", limit.Key, req.AllocationID)
		allowed, _, err := h.limiter.Allow(ctx, limit)
		if err != nil {
			h.logger.WithError(err).Warn("Rate limit check failed, allowing request")
		} else if !allowed {
			writeError(w, http.StatusTooManyRequests, "reallocation recently triggered for this allocation, try again later")
			return
		}
	}

	run, err := h.engine.Reallocate(ctx, req.AllocationID, date, req.DryRun)
	if err != nil {
		var verr *contracts.ValidationError
		var conflict *contracts.ConflictError
		var noTargets *contracts.NoEligibleTargetsError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.As(err, &conflict):
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error": conflict.Error(),
				"run":   run,
			})
		case errors.As(err, &noTargets):
			// Recorded as a failed run; not an HTTP error
			writeJSON(w, http.StatusOK, map[string]interface{}{"run": run})
		default:
			h.logger.WithError(err).Error("Reallocation failed")
			writeError(w, http.StatusInternalServerError, "reallocation failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"run": run})
}

// ListRuns returns recent optimization runs for one allocation
// GET /api/runs?allocation_id=1&limit=20
func (h *EngineHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	allocationID, err := strconv.ParseInt(r.URL.Query().Get("allocation_id"), 10, 64)
	if err != nil || allocationID <= 0 {
		writeError(w, http.StatusBadRequest, "allocation_id query parameter required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := h.runs.ListByAllocation(r.Context(), allocationID, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"allocation_id": allocationID,
		"runs":          runs,
	})
}

// GetScores returns one content item's current scores and recent history
// GET /api/scores/{contentID}?limit=20
func (h *EngineHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	contentID, err := strconv.ParseInt(mux.Vars(r)["contentID"], 10, 64)
	if err != nil || contentID <= 0 {
		writeError(w, http.StatusBadRequest, "contentID must be a positive integer")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}

	items, err := h.scores.GetByIDs(r.Context(), []int64{contentID})
	if err != nil {
		h.logger.WithError(err).Error("Failed to load content")
		writeError(w, http.StatusInternalServerError, "failed to load content")
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusNotFound, "content not found")
		return
	}

	history, err := h.scores.ListSnapshots(r.Context(), contentID, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load score history")
		writeError(w, http.StatusInternalServerError, "failed to load score history")
		return
	}

	item := items[0]
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content_id":      item.ID,
		"unified_score":   item.UnifiedScore,
		"platform_scores": item.PlatformScores,
		"score_details":   item.ScoreDetails,
		"scored_at":       item.ScoredAt,
		"history":         history,
	})
}
