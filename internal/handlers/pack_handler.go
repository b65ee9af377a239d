package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/repositories"
	"github.com/studyloop/quiz-service/internal/services"
	"github.com/studyloop/quiz-service/internal/utils"
)

type PackHandler struct {
	BaseHandler
	packService services.ContentPackService
	validator   *utils.Validator
}

func NewPackHandler(
	packService services.ContentPackService,
	validator *utils.Validator,
	logger utils.Logger,
) *PackHandler {
	return &PackHandler{
		BaseHandler: NewBaseHandler(logger),
		packService: packService,
		validator:   validator,
	}
}

// CreatePack creates a new draft content pack
func (h *PackHandler) CreatePack(c *gin.Context) {
	var req services.CreatePackRequest
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

	pack, err := h.packService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pack)
}

// GetPack retrieves a content pack by ID
func (h *PackHandler) GetPack(c *gin.Context) {
	id := h.parseIDParam(c, "pack_id")
	if id == 0 {
		return
	}

	pack, err := h.packService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pack)
}

// ListPacks lists content packs, optionally filtered by status
func (h *PackHandler) ListPacks(c *gin.Context) {
	filters := repositories.PackFilters{
		Limit:  h.parseIntQuery(c, "limit", 20),
		Offset: h.parseIntQuery(c, "offset", 0),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.PackStatus(statusStr)
		filters.Status = &status
	}

	packs, total, err := h.packService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"packs":  packs,
		"total":  total,
		"limit":  filters.Limit,
		"offset": filters.Offset,
	})
}

// PublishPack moves a draft pack to active
func (h *PackHandler) PublishPack(c *gin.Context) {
	id := h.parseIDParam(c, "pack_id")
	if id == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Publishing content pack", "pack_id", id)

	pack, err := h.packService.Publish(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pack)
}

// ArchivePack archives a content pack
func (h *PackHandler) ArchivePack(c *gin.Context) {
	id := h.parseIDParam(c, "pack_id")
	if id == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	pack, err := h.packService.Archive(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pack)
}

func (h *PackHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
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
	case errors.Is(err, services.ErrPackNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Content pack not found",
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
