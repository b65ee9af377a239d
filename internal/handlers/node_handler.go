package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyloop/quiz-service/internal/services"
	"github.com/studyloop/quiz-service/internal/utils"
)

type NodeHandler struct {
	BaseHandler
	nodeService   services.NodeService
	importService services.ImportService
	validator     *utils.Validator
}

func NewNodeHandler(
	nodeService services.NodeService,
	importService services.ImportService,
	validator *utils.Validator,
	logger utils.Logger,
) *NodeHandler {
	return &NodeHandler{
		BaseHandler:   NewBaseHandler(logger),
		nodeService:   nodeService,
		importService: importService,
		validator:     validator,
	}
}

// CreateNode creates a knowledge node under the given parent. The parent/child
// type combination is checked against the hierarchy rules before anything is
// stored; violations come back as 422.
func (h *NodeHandler) CreateNode(c *gin.Context) {
	var req services.CreateNodeRequest
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

	node, err := h.nodeService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, node)
}

// GetNode retrieves a node by ID
func (h *NodeHandler) GetNode(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	node, err := h.nodeService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, node)
}

// UpdateNode updates a node's label or display order
func (h *NodeHandler) UpdateNode(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateNodeRequest
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

	node, err := h.nodeService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, node)
}

// DeleteNode deletes a node and its whole subtree
func (h *NodeHandler) DeleteNode(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting node subtree", "node_id", id)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	if err := h.nodeService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Node deleted successfully",
	})
}

// GetChildren lists the direct children of a node
func (h *NodeHandler) GetChildren(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	children, err := h.nodeService.GetChildren(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Children retrieved successfully",
		Data:    children,
	})
}

// GetPath returns the node's context path from its root
func (h *NodeHandler) GetPath(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	path, err := h.nodeService.GetPath(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"node_id": id,
		"path":    path,
	})
}

// GetSubtree returns the node and all of its descendants
func (h *NodeHandler) GetSubtree(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	nodes, err := h.nodeService.GetSubtree(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Subtree retrieved successfully",
		Data:    nodes,
	})
}

// ImportNodes bulk-imports nodes into a pack from an uploaded workbook
func (h *NodeHandler) ImportNodes(c *gin.Context) {
	packID := h.parseIDParam(c, "pack_id")
	if packID == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "No file uploaded",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing nodes", "pack_id", packID, "filename", header.Filename)

	summary, err := h.importService.ImportNodesFromFile(c.Request.Context(), file, header.Filename, packID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Import completed",
		Data:    summary,
	})
}

// ExportNodes streams a pack's tree as an XLSX workbook
func (h *NodeHandler) ExportNodes(c *gin.Context) {
	packID := h.parseIDParam(c, "pack_id")
	if packID == 0 {
		return
	}

	data, err := h.importService.ExportNodesToExcel(c.Request.Context(), packID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=nodes.xlsx")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *NodeHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var violation *services.HierarchyViolationError
	if errors.As(err, &violation) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Hierarchy rule violation",
			Details: violation.Error(),
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
	case errors.Is(err, services.ErrNodeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Node not found",
		})
	case errors.Is(err, services.ErrPackNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Content pack not found",
		})
	case errors.Is(err, services.ErrInvalidRelationship):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Nodes are not related as category and attribute",
		})
	case errors.Is(err, services.ErrNodeNotDeletable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Node cannot be deleted",
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
