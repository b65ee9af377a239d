package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/studyloop/quiz-service/internal/events"
	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/repositories"
	"github.com/studyloop/quiz-service/internal/utils"
)

// ContentPackService owns the pack lifecycle: packs start as drafts, get
// published once their tree is ready, and can be archived afterwards. Only
// active packs are eligible for quiz generation.
type ContentPackService interface {
	Create(ctx context.Context, req *CreatePackRequest, creatorID string) (*models.ContentPack, error)
	GetByID(ctx context.Context, id uint) (*models.ContentPack, error)
	List(ctx context.Context, filters repositories.PackFilters) ([]*models.ContentPack, int64, error)
	Publish(ctx context.Context, id uint, userID string) (*models.ContentPack, error)
	Archive(ctx context.Context, id uint, userID string) (*models.ContentPack, error)
}

type CreatePackRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

type contentPackService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    utils.Logger
	validator *utils.Validator
}

func NewContentPackService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger utils.Logger,
	validator *utils.Validator,
) ContentPackService {
	return &contentPackService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

func (s *contentPackService) Create(ctx context.Context, req *CreatePackRequest, creatorID string) (*models.ContentPack, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	pack := &models.ContentPack{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.PackDraft,
		CreatedBy:   creatorID,
	}
	if err := s.repo.ContentPack().Create(ctx, pack); err != nil {
		return nil, fmt.Errorf("failed to create content pack: %w", err)
	}

	s.logger.Info("Content pack created", "pack_id", pack.ID, "creator_id", creatorID)
	return pack, nil
}

func (s *contentPackService) GetByID(ctx context.Context, id uint) (*models.ContentPack, error) {
	pack, err := s.repo.ContentPack().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPackNotFound
		}
		return nil, fmt.Errorf("failed to get content pack: %w", err)
	}
	return pack, nil
}

func (s *contentPackService) List(ctx context.Context, filters repositories.PackFilters) ([]*models.ContentPack, int64, error) {
	packs, total, err := s.repo.ContentPack().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list content packs: %w", err)
	}
	return packs, total, nil
}

// Publish moves a draft to active. A pack with no roots has nothing to quiz
// on, so publishing it is rejected as a business rule violation.
func (s *contentPackService) Publish(ctx context.Context, id uint, userID string) (*models.ContentPack, error) {
	pack, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pack.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "content_pack", "publish", "not owner")
	}
	if pack.Status != models.PackDraft {
		return nil, NewBusinessRuleError("pack_status_transition",
			fmt.Sprintf("cannot publish pack in status %s", pack.Status),
			map[string]interface{}{"pack_id": id, "status": pack.Status})
	}

	roots, err := s.repo.Node().GetRoots(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pack roots: %w", err)
	}
	if len(roots) == 0 {
		return nil, NewBusinessRuleError("pack_empty",
			"cannot publish a pack with no knowledge nodes",
			map[string]interface{}{"pack_id": id})
	}

	if err := s.repo.ContentPack().UpdateStatus(ctx, id, models.PackActive); err != nil {
		return nil, fmt.Errorf("failed to update pack status: %w", err)
	}
	pack.Status = models.PackActive

	event := &events.QuizEvent{
		ID:        watermill.NewUUID(),
		Type:      events.EventPackPublished,
		Timestamp: time.Now(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data: events.PackPublishedEvent{
			ContentPackID: pack.ID,
			Title:         pack.Title,
			PublishedBy:   userID,
		},
	}
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", events.EventPackPublished, "error", err)
	}

	s.logger.Info("Content pack published", "pack_id", pack.ID)
	return pack, nil
}

func (s *contentPackService) Archive(ctx context.Context, id uint, userID string) (*models.ContentPack, error) {
	pack, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pack.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "content_pack", "archive", "not owner")
	}
	if pack.Status == models.PackArchived {
		return pack, nil
	}

	if err := s.repo.ContentPack().UpdateStatus(ctx, id, models.PackArchived); err != nil {
		return nil, fmt.Errorf("failed to update pack status: %w", err)
	}
	pack.Status = models.PackArchived

	s.logger.Info("Content pack archived", "pack_id", pack.ID)
	return pack, nil
}
