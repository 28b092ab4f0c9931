package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/request"
	"github.com/tempohq/tempo/internal/timer"
)

// TimerHandler handles timer session requests
type TimerHandler struct {
	engine *timer.Engine
}

// NewTimerHandler creates a new timer handler
func NewTimerHandler(engine *timer.Engine) *TimerHandler {
	return &TimerHandler{engine: engine}
}

// RegisterRoutes registers timer routes on the given router.
// The router should already have the /timer prefix.
func (h *TimerHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/start", h.StartTimer).Methods("POST")
	r.HandleFunc("/stop", h.StopTimer).Methods("POST")
	r.HandleFunc("/active", h.GetActiveTimer).Methods("GET")
	r.HandleFunc("/{id}/pause", h.PauseTimer).Methods("POST")
}

// StartTimerRequest represents a start timer request
type StartTimerRequest struct {
	TaskID uuid.UUID `json:"task_id" validate:"required"`
}

// StopTimerRequest represents a stop timer request
type StopTimerRequest struct {
	TimerID uuid.UUID `json:"timer_id" validate:"required"`
}

// StartTimer starts a timer on a task. A running timer on any other task is
// stopped first.
func (h *TimerHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req StartTimerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TaskID == uuid.Nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "task_id is required")
		return
	}

	session, err := h.engine.StartTimer(r.Context(), user.ID, req.TaskID)
	if err != nil {
		respondRepoError(w, err, "Task")
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

// StopTimer stops a running timer session
func (h *TimerHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req StopTimerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TimerID == uuid.Nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "timer_id is required")
		return
	}

	session, err := h.engine.StopTimer(r.Context(), user.ID, req.TimerID)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			respondJSONError(w, http.StatusConflict, "Conflict", "Timer is already stopped")
			return
		}
		respondRepoError(w, err, "Timer")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// GetActiveTimer returns the user's running timer session, or null data
// when no timer is running.
func (h *TimerHandler) GetActiveTimer(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	session, err := h.engine.GetActiveTimer(r.Context(), user.ID)
	if err != nil {
		respondRepoError(w, err, "Timer")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// PauseTimer returns the session unchanged; pausing is a read-only surface.
func (h *TimerHandler) PauseTimer(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid timer ID")
		return
	}

	session, err := h.engine.PauseTimer(r.Context(), user.ID, id)
	if err != nil {
		respondRepoError(w, err, "Timer")
		return
	}

	respondJSON(w, http.StatusOK, session)
}
