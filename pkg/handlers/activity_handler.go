// Package handlers exposes the activity engine's read surface as JSON
// endpoints and receives no mutations: entries are appended by the
// mutation handlers through the service layer, never over HTTP.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/natty6418/task-flow-sub000/pkg/apperrors"
	"github.com/natty6418/task-flow-sub000/pkg/models"
	"github.com/natty6418/task-flow-sub000/pkg/services"
)

// ActivityHandler handles activity history HTTP requests.
type ActivityHandler struct {
	service services.ActivityService
	logger  *zap.Logger
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(service services.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.Named("activity-handler"),
	}
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *ActivityHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/projects/{pid}/activity", h.ListProjectActivity)
	mux.HandleFunc("GET /api/projects/{pid}/activity/stats", h.GetProjectStats)
	mux.HandleFunc("GET /api/boards/{bid}/activity", h.ListBoardActivity)
	mux.HandleFunc("GET /api/tasks/{tid}/activity", h.ListTaskActivity)
	mux.HandleFunc("GET /api/users/{uid}/activity", h.ListUserActivity)
	mux.HandleFunc("GET /api/users/{uid}/activity/recent", h.ListRecentForUser)
	mux.HandleFunc("GET /api/activity/{id}/diff", h.GetEntryDiff)
	mux.HandleFunc("GET /api/activity/{id}/diff/{field}", h.GetEntryFieldDiff)
}

// PaginatedResponse wraps paginated results with the applied page window.
type PaginatedResponse struct {
	Items  any `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListProjectActivity handles GET /api/projects/{pid}/activity
func (h *ActivityHandler) ListProjectActivity(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.pathID(w, r, "pid")
	if !ok {
		return
	}
	limit, offset := parsePage(r)

	entries, err := h.service.ProjectActivity(r.Context(), projectID, limit, offset)
	if err != nil {
		h.serverError(w, "list_project_activity_failed", err)
		return
	}
	h.writePage(w, entries, limit, offset)
}

// GetProjectStats handles GET /api/projects/{pid}/activity/stats?days=30
func (h *ActivityHandler) GetProjectStats(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.pathID(w, r, "pid")
	if !ok {
		return
	}

	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			h.badRequest(w, "invalid_days", "days must be a positive integer")
			return
		}
		days = parsed
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	stats, err := h.service.ProjectStats(r.Context(), projectID, since)
	if err != nil {
		h.serverError(w, "project_stats_failed", err)
		return
	}
	h.writeOK(w, stats)
}

// ListBoardActivity handles GET /api/boards/{bid}/activity
func (h *ActivityHandler) ListBoardActivity(w http.ResponseWriter, r *http.Request) {
	boardID, ok := h.pathID(w, r, "bid")
	if !ok {
		return
	}
	entries, err := h.service.BoardActivity(r.Context(), boardID)
	if err != nil {
		h.serverError(w, "list_board_activity_failed", err)
		return
	}
	h.writeOK(w, emptyIfNil(entries))
}

// ListTaskActivity handles GET /api/tasks/{tid}/activity
func (h *ActivityHandler) ListTaskActivity(w http.ResponseWriter, r *http.Request) {
	taskID, ok := h.pathID(w, r, "tid")
	if !ok {
		return
	}
	entries, err := h.service.TaskActivity(r.Context(), taskID)
	if err != nil {
		h.serverError(w, "list_task_activity_failed", err)
		return
	}
	h.writeOK(w, emptyIfNil(entries))
}

// ListUserActivity handles GET /api/users/{uid}/activity
func (h *ActivityHandler) ListUserActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "uid")
	if !ok {
		return
	}
	limit, offset := parsePage(r)

	entries, err := h.service.UserActivity(r.Context(), userID, limit, offset)
	if err != nil {
		h.serverError(w, "list_user_activity_failed", err)
		return
	}
	h.writePage(w, entries, limit, offset)
}

// ListRecentForUser handles GET /api/users/{uid}/activity/recent
func (h *ActivityHandler) ListRecentForUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "uid")
	if !ok {
		return
	}
	limit, _ := parsePage(r)

	entries, err := h.service.RecentForUser(r.Context(), userID, limit)
	if err != nil {
		h.serverError(w, "list_recent_activity_failed", err)
		return
	}
	h.writeOK(w, emptyIfNil(entries))
}

// entryDiffResponse is the detail payload for one entry's stored diff.
// Details is null when the entry has no usable diff; the message tells
// clients to render reduced detail instead of treating it as an error.
type entryDiffResponse struct {
	Details any    `json:"details"`
	Message string `json:"message,omitempty"`
}

// GetEntryDiff handles GET /api/activity/{id}/diff
func (h *ActivityHandler) GetEntryDiff(w http.ResponseWriter, r *http.Request) {
	entryID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	details, err := h.service.EntryDiff(r.Context(), entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.notFound(w, "entry_not_found")
			return
		}
		h.serverError(w, "entry_diff_failed", err)
		return
	}

	resp := entryDiffResponse{}
	if details != nil {
		resp.Details = details
	} else {
		resp.Message = "No detailed changes available"
	}
	h.writeOK(w, resp)
}

// GetEntryFieldDiff handles GET /api/activity/{id}/diff/{field}
func (h *ActivityHandler) GetEntryFieldDiff(w http.ResponseWriter, r *http.Request) {
	entryID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	field := r.PathValue("field")

	parts, err := h.service.EntryFieldDiff(r.Context(), entryID, field)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.notFound(w, "entry_not_found")
			return
		}
		h.serverError(w, "entry_field_diff_failed", err)
		return
	}
	if parts == nil {
		parts = []models.TextDiffPart{}
	}
	h.writeOK(w, map[string]any{"field": field, "parts": parts})
}

func (h *ActivityHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		h.badRequest(w, "invalid_id", "path id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parsePage(r *http.Request) (limit, offset int) {
	limit = services.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func (h *ActivityHandler) writePage(w http.ResponseWriter, entries []*models.ActivityLogEntry, limit, offset int) {
	h.writeOK(w, PaginatedResponse{
		Items:  emptyIfNil(entries),
		Limit:  limit,
		Offset: offset,
	})
}

func (h *ActivityHandler) writeOK(w http.ResponseWriter, data any) {
	if err := WriteJSON(w, http.StatusOK, data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *ActivityHandler) badRequest(w http.ResponseWriter, code, message string) {
	if err := ErrorResponse(w, http.StatusBadRequest, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *ActivityHandler) notFound(w http.ResponseWriter, code string) {
	if err := ErrorResponse(w, http.StatusNotFound, code, "activity entry not found"); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *ActivityHandler) serverError(w http.ResponseWriter, code string, err error) {
	h.logger.Error("Request failed", zap.String("code", code), zap.Error(err))
	if werr := ErrorResponse(w, http.StatusInternalServerError, code, err.Error()); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}

func emptyIfNil(entries []*models.ActivityLogEntry) []*models.ActivityLogEntry {
	if entries == nil {
		return []*models.ActivityLogEntry{}
	}
	return entries
}
