package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/models"
	"github.com/tempohq/tempo/internal/notify"
	"github.com/tempohq/tempo/internal/queue"
	"github.com/tempohq/tempo/internal/request"
	"github.com/tempohq/tempo/internal/validation"
)

const (
	// DefaultPageSize is the default page size for task listing
	DefaultPageSize = 100
	// MaxPageSize is the maximum page size for task listing
	MaxPageSize = 500
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskRepo database.TaskRepositoryInterface
	queue    queue.NotificationQueue
	logger   *zap.Logger
}

// TaskHandlerOption configures optional TaskHandler dependencies
type TaskHandlerOption func(*TaskHandler)

// WithTaskQueue enables completion notifications through the given queue
func WithTaskQueue(q queue.NotificationQueue) TaskHandlerOption {
	return func(h *TaskHandler) {
		h.queue = q
	}
}

// WithTaskLogger sets the logger used for notification failures
func WithTaskLogger(logger *zap.Logger) TaskHandlerOption {
	return func(h *TaskHandler) {
		h.logger = logger
	}
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskRepo database.TaskRepositoryInterface, opts ...TaskHandlerOption) *TaskHandler {
	h := &TaskHandler{taskRepo: taskRepo, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers task routes on the given router.
// The router should already have the /tasks prefix.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PUT")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/{id}/complete", h.CompleteTask).Methods("POST")
}

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title         string      `json:"title" validate:"required,min=1,max=200"`
	Description   *string     `json:"description,omitempty" validate:"omitempty,max=1000"`
	EstimatedTime int         `json:"estimated_time" validate:"required,min=1,max=9999"`
	Priority      int         `json:"priority" validate:"required,min=1,max=5"`
	TagIDs        []uuid.UUID `json:"tag_ids,omitempty"`
}

// UpdateTaskRequest represents a partial task update. Nil fields are left
// unchanged; a non-nil TagIDs replaces the task's tag set.
type UpdateTaskRequest struct {
	Title         *string      `json:"title,omitempty"`
	Description   *string      `json:"description,omitempty"`
	EstimatedTime *int         `json:"estimated_time,omitempty"`
	Priority      *int         `json:"priority,omitempty"`
	Completed     *bool        `json:"completed,omitempty"`
	TagIDs        *[]uuid.UUID `json:"tag_ids,omitempty"`
}

// CreateTask creates a task for the authenticated user
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	req.Title = validation.SanitizeText(req.Title)
	if err := validation.ValidateTitle(req.Title); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if req.Description != nil {
		sanitized := validation.SanitizeText(*req.Description)
		req.Description = &sanitized
		if err := validation.ValidateDescription(req.Description); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	task := &models.Task{
		ID:            uuid.New(),
		UserID:        user.ID,
		Title:         req.Title,
		Description:   req.Description,
		EstimatedTime: req.EstimatedTime,
		Priority:      req.Priority,
	}

	if err := h.taskRepo.Create(r.Context(), task, req.TagIDs); err != nil {
		respondRepoError(w, err, "Task")
		return
	}

	created, err := h.taskRepo.GetByIDForUser(r.Context(), task.ID, user.ID)
	if err != nil {
		respondRepoError(w, err, "Task")
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	task, err := h.taskRepo.GetByIDForUser(r.Context(), id, user.ID)
	if err != nil {
		respondRepoError(w, err, "Task")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// ListTasks lists the authenticated user's tasks with optional filters
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	filter, err := parseTaskFilter(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	tasks, err := h.taskRepo.List(r.Context(), user.ID, filter)
	if err != nil {
		respondRepoError(w, err, "Task")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	respondJSON(w, http.StatusOK, tasks)
}

// UpdateTask applies a partial update to a task
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	var req UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.taskRepo.GetByIDForUser(r.Context(), id, user.ID)
	if err != nil {
		respondRepoError(w, err, "Task")
		return
	}

	if req.Title != nil {
		title := validation.SanitizeText(*req.Title)
		if err := validation.ValidateTitle(title); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.Title = title
	}
	if req.Description != nil {
		description := validation.SanitizeText(*req.Description)
		if err := validation.ValidateDescription(&description); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.Description = &description
	}
	if req.EstimatedTime != nil {
		if err := validation.ValidateEstimatedTime(*req.EstimatedTime); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.EstimatedTime = *req.EstimatedTime
	}
	if req.Priority != nil {
		if err := validation.ValidatePriority(*req.Priority); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		task.Priority = *req.Priority
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
		if task.Completed && task.CompletedAt == nil {
			now := time.Now().UTC()
			task.CompletedAt = &now
		}
		if !task.Completed {
			task.CompletedAt = nil
		}
	}

	var tagIDs []uuid.UUID
	if req.TagIDs != nil {
		tagIDs = *req.TagIDs
		if tagIDs == nil {
			tagIDs = []uuid.UUID{}
		}
	}

	if err := h.taskRepo.Update(r.Context(), task, tagIDs); err != nil {
		respondRepoError(w, err, "Task")
		return
	}

	updated, err := h.taskRepo.GetByIDForUser(r.Context(), id, user.ID)
	if err != nil {
		respondRepoError(w, err, "Task")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// DeleteTask deletes a task, its timer sessions and tag associations
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	if err := h.taskRepo.Delete(r.Context(), id, user.ID); err != nil {
		respondRepoError(w, err, "Task")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}

// CompleteTask marks a task completed, fixing its completion time
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	task, err := h.taskRepo.GetByIDForUser(r.Context(), id, user.ID)
	if err != nil {
		respondRepoError(w, err, "Task")
		return
	}

	// Completing twice keeps the original completion time.
	if !task.Completed {
		now := time.Now().UTC()
		task.Completed = true
		task.CompletedAt = &now
		if err := h.taskRepo.Update(r.Context(), task, nil); err != nil {
			respondRepoError(w, err, "Task")
			return
		}
		h.notifyCompletion(r.Context(), user, task)
	}

	respondJSON(w, http.StatusOK, task)
}

// notifyCompletion enqueues a completion notification. Delivery is best
// effort; a queue failure never fails the request.
func (h *TaskHandler) notifyCompletion(ctx context.Context, user *models.User, task *models.Task) {
	if h.queue == nil {
		return
	}
	job := queue.NewJob(queue.JobTypeCompletion, user.ID, user.TelegramID, notify.CompletionText(task.Title))
	if err := h.queue.Enqueue(ctx, job); err != nil {
		h.logger.Warn("completion_enqueue_failed",
			zap.String("task_id", task.ID.String()),
			zap.Error(err),
		)
	}
}

// parseTaskFilter parses list query parameters into a TaskFilter
func parseTaskFilter(r *http.Request) (models.TaskFilter, error) {
	filter := models.TaskFilter{Limit: DefaultPageSize}
	q := r.URL.Query()

	if v := q.Get("completed"); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("completed must be a boolean")
		}
		filter.Completed = &completed
	}
	if v := q.Get("priority"); v != "" {
		priority, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("priority must be an integer")
		}
		if err := validation.ValidatePriority(priority); err != nil {
			return filter, err
		}
		filter.Priority = &priority
	}
	if v := q.Get("tag_ids"); v != "" {
		for _, part := range strings.Split(v, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				return filter, fmt.Errorf("tag_ids must be a comma-separated list of UUIDs")
			}
			filter.TagIDs = append(filter.TagIDs, id)
		}
	}
	if v := q.Get("title_contains"); v != "" {
		filter.TitleContains = validation.SanitizeText(v)
	}
	if v := q.Get("estimated_time_min"); v != "" {
		minTime, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("estimated_time_min must be an integer")
		}
		filter.EstimatedTimeMin = &minTime
	}
	if v := q.Get("estimated_time_max"); v != "" {
		maxTime, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("estimated_time_max must be an integer")
		}
		filter.EstimatedTimeMax = &maxTime
	}
	if v := q.Get("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			return filter, fmt.Errorf("skip must be a non-negative integer")
		}
		filter.Skip = skip
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return filter, fmt.Errorf("limit must be a positive integer")
		}
		if limit > MaxPageSize {
			limit = MaxPageSize
		}
		filter.Limit = limit
	}

	return filter, nil
}
