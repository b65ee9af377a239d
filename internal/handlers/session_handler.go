package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyloop/quiz-service/internal/repositories"
	"github.com/studyloop/quiz-service/internal/services"
	"github.com/studyloop/quiz-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	validator      *utils.Validator
}

func NewSessionHandler(
	sessionService services.SessionService,
	validator *utils.Validator,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		validator:      validator,
	}
}

// GenerateSession generates a new quiz session from an active content pack
func (h *SessionHandler) GenerateSession(c *gin.Context) {
	var req services.GenerateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Generating quiz session", "content_pack_id", req.ContentPackID)

	session, err := h.sessionService.Generate(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession retrieves a session with its questions and options
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	session, err := h.sessionService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ListSessions lists the authenticated user's sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := repositories.SessionFilters{
		Limit:     h.parseIntQuery(c, "limit", 20),
		Offset:    h.parseIntQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	sessions, total, err := h.sessionService.List(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"total":    total,
		"limit":    filters.Limit,
		"offset":   filters.Offset,
	})
}

// SubmitSession submits the learner's selections and returns the score.
// Submitting an already-completed session yields 409.
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SubmitSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Submitting quiz session", "session_id", id)

	result, err := h.sessionService.Submit(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Quiz session not found",
		})
	case errors.Is(err, services.ErrPackNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Content pack not found",
		})
	case errors.Is(err, services.ErrPackNotActive):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Content pack is not active",
		})
	case errors.Is(err, services.ErrNoValidPairs):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Content pack has no category/attribute pair with facts",
		})
	case errors.Is(err, services.ErrInvalidSelection):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Selection references options outside this session",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrSessionAlreadyCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Quiz session already completed",
		})
	case errors.Is(err, services.ErrSessionAccessDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied to quiz session",
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
