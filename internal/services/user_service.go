package services

import (
	"context"
	"fmt"
	"time"

	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/repositories"
	"github.com/studyloop/quiz-service/internal/utils"
)

// UserService maintains the local records backing gateway-forwarded
// identities. The gateway authenticates; this service only keeps the
// profile and role attached to the forwarded user id.
type UserService interface {
	EnsureIdentity(ctx context.Context, userID string) (*models.User, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error)
}

type UpdateProfileRequest struct {
	FullName *string          `json:"full_name" validate:"omitempty,max=100"`
	Email    *string          `json:"email" validate:"omitempty,email,max=255"`
	Role     *models.UserRole `json:"role" validate:"omitempty,user_role"`
}

type userService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *utils.Validator
}

func NewUserService(
	repo repositories.Repository,
	logger utils.Logger,
	validator *utils.Validator,
) UserService {
	return &userService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// EnsureIdentity resolves the stored record for a forwarded identity,
// creating a learner record on first sight and stamping the login time.
func (s *userService) EnsureIdentity(ctx context.Context, userID string) (*models.User, error) {
	now := time.Now()

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		user = &models.User{
			ID:       userID,
			Role:     models.RoleLearner,
			IsActive: true,
		}
		s.logger.Info("Registering first-seen identity", "user_id", userID)
	}

	user.LastLoginAt = &now
	if err := s.repo.User().Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile mutates the caller-editable fields.
func (s *userService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = *req.Role
	}

	if err := s.repo.User().Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	s.logger.Info("User profile updated", "user_id", userID)
	return user, nil
}
