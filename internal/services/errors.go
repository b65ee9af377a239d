package services

import (
	"errors"
	"fmt"

	apperrors "github.com/studyloop/quiz-service/internal/errors"
	"github.com/studyloop/quiz-service/internal/hierarchy"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Node specific errors (resolver errors are re-exported so callers can
	// match them without importing the hierarchy package)
	ErrNodeNotFound        = hierarchy.ErrNodeNotFound
	ErrInvalidRelationship = hierarchy.ErrInvalidRelationship
	ErrNodeNotDeletable    = errors.New("node cannot be deleted - referenced by generated questions")

	// Content pack specific errors
	ErrPackNotFound  = errors.New("content pack not found")
	ErrPackNotActive = errors.New("content pack is not active")

	// Session specific errors
	ErrSessionNotFound         = errors.New("quiz session not found")
	ErrSessionAccessDenied     = errors.New("access denied to quiz session")
	ErrSessionAlreadyCompleted = errors.New("quiz session already completed")
	ErrInvalidSelection        = errors.New("selected option does not belong to the session")
	ErrNoValidPairs            = errors.New("no category/attribute pair has eligible facts")

	// User errors
	ErrUserNotFound = errors.New("user not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// HierarchyViolationError re-exports the typed rule table violation.
type HierarchyViolationError = hierarchy.ViolationError

// NewValidationError builds a single-field validation failure.
var NewValidationError = apperrors.NewValidationError

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrPackNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsHierarchyViolation checks if error is a rule table violation
func IsHierarchyViolation(err error) bool {
	var hve *HierarchyViolationError
	return errors.As(err, &hve)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSessionAlreadyCompleted) ||
		errors.Is(err, ErrNodeNotDeletable)
}
