package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/studyloop/quiz-service/internal/errors"
	"github.com/studyloop/quiz-service/internal/models"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Validator wraps go-playground struct validation with the project's custom
// rules and error type.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with all custom rules registered.
func NewValidator() *Validator {
	validate := validator.New()
	registerCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate runs struct tag validation and converts failures into the shared
// ValidationErrors type.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("node_type", validateNodeType)
	validate.RegisterValidation("question_direction", validateQuestionDirection)
	validate.RegisterValidation("pack_status", validatePackStatus)
	validate.RegisterValidation("user_role", validateUserRole)
	validate.RegisterValidation("node_slug", validateNodeSlug)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateNodeType(fl validator.FieldLevel) bool {
	validTypes := []models.NodeType{
		models.NodeTopic,
		models.NodeCategory,
		models.NodeAttribute,
		models.NodeFact,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateQuestionDirection(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == string(models.DirectionDownward) || value == string(models.DirectionUpward)
}

func validatePackStatus(fl validator.FieldLevel) bool {
	validStatuses := []models.PackStatus{
		models.PackDraft,
		models.PackActive,
		models.PackArchived,
	}

	value := fl.Field().String()
	for _, validStatus := range validStatuses {
		if string(validStatus) == value {
			return true
		}
	}
	return false
}

func validateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleLearner,
		models.RoleAuthor,
		models.RoleAdmin,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

func validateNodeSlug(fl validator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}
