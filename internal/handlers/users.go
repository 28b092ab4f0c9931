package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/request"
	"github.com/tempohq/tempo/internal/validation"
)

// UserHandler handles user registration and profile requests
type UserHandler struct {
	userRepo database.UserRepositoryInterface
}

// NewUserHandler creates a new user handler
func NewUserHandler(userRepo database.UserRepositoryInterface) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// RegisterPublicRoutes registers the routes that must work before the caller
// has a user record. The router should already have the /users prefix.
func (h *UserHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("", h.RegisterUser).Methods("POST")
}

// RegisterRoutes registers the authenticated user routes.
func (h *UserHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetCurrentUser).Methods("GET")
}

// RegisterUserRequest represents a user registration request
type RegisterUserRequest struct {
	TelegramID string  `json:"telegram_id" validate:"required"`
	Username   *string `json:"username,omitempty"`
}

// RegisterUser registers the caller, or returns the existing user for the
// same telegram id. Registration is idempotent.
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}
	if err := validation.ValidateTelegramID(req.TelegramID); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if req.Username != nil {
		sanitized := validation.SanitizeText(*req.Username)
		req.Username = &sanitized
	}

	user, err := h.userRepo.GetOrCreate(r.Context(), req.TelegramID, req.Username)
	if err != nil {
		respondRepoError(w, err, "User")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// GetCurrentUser returns the authenticated user
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
