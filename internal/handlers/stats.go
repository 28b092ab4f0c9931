package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tempohq/tempo/internal/request"
	"github.com/tempohq/tempo/internal/stats"
)

// MaxTrendDays caps the productivity trend series length.
const MaxTrendDays = 90

// MaxTagPeriodDays caps the tag statistics window.
const MaxTagPeriodDays = 365

// StatsHandler handles statistics requests
type StatsHandler struct {
	aggregator *stats.Aggregator
}

// NewStatsHandler creates a new statistics handler
func NewStatsHandler(aggregator *stats.Aggregator) *StatsHandler {
	return &StatsHandler{aggregator: aggregator}
}

// RegisterRoutes registers statistics routes on the given router.
// The router should already have the /stats prefix.
func (h *StatsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/daily", h.GetDailyStats).Methods("GET")
	r.HandleFunc("/weekly", h.GetWeeklyStats).Methods("GET")
	r.HandleFunc("/tags", h.GetTagStats).Methods("GET")
	r.HandleFunc("/trends", h.GetProductivityTrends).Methods("GET")
}

// GetDailyStats returns aggregates for one UTC calendar day. The date query
// parameter (YYYY-MM-DD) defaults to today.
func (h *StatsHandler) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	date := time.Now().UTC()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse(stats.DateFormat, v)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "date must be formatted YYYY-MM-DD")
			return
		}
		date = parsed
	}

	daily, err := h.aggregator.DailyStats(r.Context(), user.ID, date)
	if err != nil {
		respondRepoError(w, err, "Stats")
		return
	}

	respondJSON(w, http.StatusOK, daily)
}

// GetWeeklyStats returns aggregates for the current Monday-to-Sunday week
func (h *StatsHandler) GetWeeklyStats(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	weekly, err := h.aggregator.WeeklyStats(r.Context(), user.ID)
	if err != nil {
		respondRepoError(w, err, "Stats")
		return
	}

	respondJSON(w, http.StatusOK, weekly)
}

// GetTagStats returns per-tag time figures. tag_ids narrows the result;
// period selects the trailing window in days.
func (h *StatsHandler) GetTagStats(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	q := r.URL.Query()

	var tagIDs []uuid.UUID
	if v := q.Get("tag_ids"); v != "" {
		for _, part := range strings.Split(v, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", "tag_ids must be a comma-separated list of UUIDs")
				return
			}
			tagIDs = append(tagIDs, id)
		}
	}

	period := 0
	if v := q.Get("period"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > MaxTagPeriodDays {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "period must be between 1 and 365 days")
			return
		}
		period = parsed
	}

	tagStats, err := h.aggregator.TagStats(r.Context(), user.ID, tagIDs, period)
	if err != nil {
		respondRepoError(w, err, "Stats")
		return
	}

	respondJSON(w, http.StatusOK, tagStats)
}

// GetProductivityTrends returns the trailing daily productivity series
func (h *StatsHandler) GetProductivityTrends(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > MaxTrendDays {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "days must be between 1 and 90")
			return
		}
		days = parsed
	}

	trends, err := h.aggregator.ProductivityTrends(r.Context(), user.ID, days)
	if err != nil {
		respondRepoError(w, err, "Stats")
		return
	}

	respondJSON(w, http.StatusOK, trends)
}
