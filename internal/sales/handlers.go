// sales/handlers.go
package sales

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vendadia/blingserver/internal/auth"
)

// Handler provides HTTP handlers for the sales dashboard API.
type Handler struct {
	retriever *Retriever
	logger    *zap.Logger
}

// NewHandler creates a new sales handler.
func NewHandler(retriever *Retriever, logger *zap.Logger) *Handler {
	return &Handler{
		retriever: retriever,
		logger:    logger,
	}
}

// TodayHandler returns the aggregated sales for the current day, served
// from cache when a fresh entry exists.
func (h *Handler) TodayHandler(w http.ResponseWriter, r *http.Request) {
	h.serveDaySales(w, r, false)
}

// RefreshHandler is the manual force-refresh trigger: it invalidates the
// cache entry for today and refetches from Bling.
func (h *Handler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	h.serveDaySales(w, r, true)
}

func (h *Handler) serveDaySales(w http.ResponseWriter, r *http.Request, force bool) {
	cred := auth.GetCredential(r.Context())
	if cred == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	epoch := auth.GetEpoch(r.Context())

	day := time.Now()
	orders, err := h.retriever.FetchDaySales(r.Context(), cred, epoch, day, force)
	if err != nil {
		// A fetch failure is transient; authentication state is untouched.
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			h.logger.Warn("day sales fetch failed",
				zap.Int("status", fetchErr.StatusCode), zap.Error(err))
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": err.Error(),
		})
		return
	}

	summary := Aggregate(orders)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":    day.Format("2006-01-02"),
		"total":   summary.Total,
		"count":   summary.Count,
		"rows":    summary.Rows,
		"refresh": force,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
