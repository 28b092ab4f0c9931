package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/models"
	"github.com/tempohq/tempo/internal/request"
	"github.com/tempohq/tempo/internal/validation"
)

// TagHandler handles tag-related requests
type TagHandler struct {
	tagRepo database.TagRepositoryInterface
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tagRepo database.TagRepositoryInterface) *TagHandler {
	return &TagHandler{tagRepo: tagRepo}
}

// RegisterRoutes registers tag routes on the given router.
// The router should already have the /tags prefix.
func (h *TagHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTags).Methods("GET")
	r.HandleFunc("", h.CreateTag).Methods("POST")
	r.HandleFunc("/{id}", h.UpdateTag).Methods("PUT")
	r.HandleFunc("/{id}", h.DeleteTag).Methods("DELETE")
}

// CreateTagRequest represents a create tag request
type CreateTagRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=50"`
	Color *string `json:"color,omitempty" validate:"omitempty,max=20"`
}

// UpdateTagRequest represents a tag update request
type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// CreateTag creates a tag for the authenticated user. Tag names are unique
// per user; a duplicate returns 409.
func (h *TagHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if err := validation.ValidateTagName(req.Name); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	tag := &models.Tag{
		ID:     uuid.New(),
		UserID: user.ID,
		Name:   req.Name,
		Color:  req.Color,
	}

	if err := h.tagRepo.Create(r.Context(), tag); err != nil {
		if errors.Is(err, database.ErrConflict) {
			respondJSONError(w, http.StatusConflict, "Conflict", "A tag with this name already exists")
			return
		}
		respondRepoError(w, err, "Tag")
		return
	}

	respondJSON(w, http.StatusCreated, tag)
}

// ListTags lists the authenticated user's tags
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	tags, err := h.tagRepo.ListByUser(r.Context(), user.ID)
	if err != nil {
		respondRepoError(w, err, "Tag")
		return
	}
	if tags == nil {
		tags = []*models.Tag{}
	}

	respondJSON(w, http.StatusOK, tags)
}

// UpdateTag updates a tag's name or color
func (h *TagHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid tag ID")
		return
	}

	var req UpdateTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag, err := h.tagRepo.GetByIDForUser(r.Context(), id, user.ID)
	if err != nil {
		respondRepoError(w, err, "Tag")
		return
	}

	if req.Name != nil {
		name := validation.SanitizeText(*req.Name)
		if err := validation.ValidateTagName(name); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		tag.Name = name
	}
	if req.Color != nil {
		tag.Color = req.Color
	}

	if err := h.tagRepo.Update(r.Context(), tag); err != nil {
		if errors.Is(err, database.ErrConflict) {
			respondJSONError(w, http.StatusConflict, "Conflict", "A tag with this name already exists")
			return
		}
		respondRepoError(w, err, "Tag")
		return
	}

	respondJSON(w, http.StatusOK, tag)
}

// DeleteTag deletes a tag and its task associations
func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid tag ID")
		return
	}

	if err := h.tagRepo.Delete(r.Context(), id, user.ID); err != nil {
		respondRepoError(w, err, "Tag")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Tag deleted"})
}
