package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/starcontent/adpulse/internal/api/handlers"
	"github.com/starcontent/adpulse/pkg/logger"
)

// NewRouter creates and configures the HTTP router
func NewRouter(engineHandler *handlers.EngineHandler, budgetHandler *handlers.BudgetHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Engine endpoints
	api.HandleFunc("/optimize", engineHandler.Optimize).Methods("POST")
	api.HandleFunc("/runs", engineHandler.ListRuns).Methods("GET")
	api.HandleFunc("/scores/{contentID}", engineHandler.GetScores).Methods("GET")

	// Budget endpoints
	api.HandleFunc("/plans", budgetHandler.ListPlans).Methods("GET")
	api.HandleFunc("/plans/{planID}/allocations", budgetHandler.ListAllocations).Methods("GET")
	api.HandleFunc("/allocations/{allocationID}/daily", budgetHandler.GetDailyBudget).Methods("GET")
	api.HandleFunc("/budgets/generate", budgetHandler.Generate).Methods("POST")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "adpulse-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
