package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/studyloop/quiz-service/internal/cache"
	"github.com/studyloop/quiz-service/internal/events"
	"github.com/studyloop/quiz-service/internal/hierarchy"
	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/repositories"
	"github.com/studyloop/quiz-service/internal/utils"
)

const (
	pathCacheTTL     = 15 * time.Minute
	pathCacheKey     = "node:path:%d"
	subtreeCacheKey  = "node:subtree:%d"
	nodeCachePattern = "node:*"
)

// NodeService manages the knowledge tree on behalf of content authors.
type NodeService interface {
	Create(ctx context.Context, req *CreateNodeRequest, authorID string) (*models.KnowledgeNode, error)
	Update(ctx context.Context, id uint, req *UpdateNodeRequest, authorID string) (*models.KnowledgeNode, error)
	Delete(ctx context.Context, id uint, authorID string) error
	GetByID(ctx context.Context, id uint) (*models.KnowledgeNode, error)
	GetChildren(ctx context.Context, id uint) ([]*models.KnowledgeNode, error)
	GetPath(ctx context.Context, id uint) (string, error)
	GetSubtree(ctx context.Context, id uint) ([]*models.KnowledgeNode, error)
}

type CreateNodeRequest struct {
	ParentID      *uint           `json:"parent_id"`
	Name          string          `json:"name" validate:"required,min=1,max=100,node_slug"`
	Label         string          `json:"label" validate:"required,min=1,max=200"`
	Type          models.NodeType `json:"type" validate:"required,node_type"`
	ContentPackID uint            `json:"content_pack_id" validate:"required"`
	OrderIndex    int             `json:"order_index" validate:"min=0"`
}

type UpdateNodeRequest struct {
	Label      *string `json:"label" validate:"omitempty,min=1,max=200"`
	OrderIndex *int    `json:"order_index" validate:"omitempty,min=0"`
}

type nodeService struct {
	repo      repositories.Repository
	resolver  *hierarchy.PathResolver
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    utils.Logger
	validator *utils.Validator
}

func NewNodeService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger utils.Logger,
	validator *utils.Validator,
) NodeService {
	return &nodeService{
		repo:      repo,
		resolver:  hierarchy.NewPathResolver(&repoNodeLookup{repo: repo.Node()}),
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// repoNodeLookup adapts NodeRepository to the resolver's lookup capability:
// a record miss becomes (nil, nil) instead of an error.
type repoNodeLookup struct {
	repo repositories.NodeRepository
}

func (l *repoNodeLookup) GetNode(ctx context.Context, id uint) (*models.KnowledgeNode, error) {
	node, err := l.repo.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return node, nil
}

func (l *repoNodeLookup) GetChildren(ctx context.Context, parentID uint) ([]*models.KnowledgeNode, error) {
	return l.repo.GetChildren(ctx, parentID)
}

// Create inserts a new node. The hierarchy rule table is consulted before
// anything touches storage; a disallowed parent/child pair fails with a
// HierarchyViolationError.
func (s *nodeService) Create(ctx context.Context, req *CreateNodeRequest, authorID string) (*models.KnowledgeNode, error) {
	s.logger.Info("Creating knowledge node",
		"type", req.Type,
		"content_pack_id", req.ContentPackID,
		"author_id", authorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var parentType *models.NodeType
	if req.ParentID != nil {
		parent, err := s.repo.Node().GetByID(ctx, *req.ParentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrNodeNotFound
			}
			return nil, fmt.Errorf("failed to get parent node: %w", err)
		}
		if parent.ContentPackID != req.ContentPackID {
			return nil, NewBusinessRuleError("node_pack_mismatch",
				"parent node belongs to a different content pack",
				map[string]interface{}{"parent_id": *req.ParentID})
		}
		parentType = &parent.Type
	}

	if !hierarchy.Validate(parentType, req.Type) {
		return nil, hierarchy.NewViolationError(parentType, req.Type)
	}

	node := &models.KnowledgeNode{
		ParentID:      req.ParentID,
		Name:          req.Name,
		Label:         req.Label,
		Type:          req.Type,
		ContentPackID: req.ContentPackID,
		OrderIndex:    req.OrderIndex,
		CreatedBy:     authorID,
	}

	if err := s.repo.Node().Create(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to create node: %w", err)
	}

	s.invalidateTreeCache(ctx)
	s.publishEvent(ctx, events.EventNodeCreated, events.NodeCreatedEvent{
		NodeID:        node.ID,
		NodeType:      string(node.Type),
		Label:         node.Label,
		ContentPackID: node.ContentPackID,
		CreatedBy:     authorID,
	})

	s.logger.Info("Knowledge node created", "node_id", node.ID, "type", node.Type)
	return node, nil
}

// Update mutates the author-editable fields (label, order index).
func (s *nodeService) Update(ctx context.Context, id uint, req *UpdateNodeRequest, authorID string) (*models.KnowledgeNode, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	node, err := s.repo.Node().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	if req.Label != nil {
		node.Label = *req.Label
	}
	if req.OrderIndex != nil {
		node.OrderIndex = *req.OrderIndex
	}

	if err := s.repo.Node().Update(ctx, node); err != nil {
		return nil, fmt.Errorf("failed to update node: %w", err)
	}

	s.invalidateTreeCache(ctx)

	s.logger.Info("Knowledge node updated", "node_id", id, "author_id", authorID)
	return node, nil
}

// Delete removes the node and cascades to its whole subtree. Nodes that
// generated questions still point at stay in place so session history keeps
// resolving.
func (s *nodeService) Delete(ctx context.Context, id uint, authorID string) error {
	node, err := s.repo.Node().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNodeNotFound
		}
		return fmt.Errorf("failed to get node: %w", err)
	}

	subtree, err := s.repo.Node().GetSubtree(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load subtree: %w", err)
	}
	subtreeIDs := make([]uint, 0, len(subtree))
	for _, n := range subtree {
		subtreeIDs = append(subtreeIDs, n.ID)
	}
	referenced, err := s.repo.Session().CountQuestionsReferencing(ctx, subtreeIDs)
	if err != nil {
		return fmt.Errorf("failed to check question references: %w", err)
	}
	if referenced > 0 {
		return ErrNodeNotDeletable
	}

	if err := s.repo.Node().DeleteSubtree(ctx, id); err != nil {
		return fmt.Errorf("failed to delete subtree: %w", err)
	}

	s.invalidateTreeCache(ctx)
	s.publishEvent(ctx, events.EventNodeDeleted, events.NodeDeletedEvent{
		NodeID:        id,
		ContentPackID: node.ContentPackID,
		DeletedBy:     authorID,
	})

	s.logger.Info("Knowledge node deleted with subtree", "node_id", id, "author_id", authorID)
	return nil
}

func (s *nodeService) GetByID(ctx context.Context, id uint) (*models.KnowledgeNode, error) {
	node, err := s.repo.Node().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return node, nil
}

func (s *nodeService) GetChildren(ctx context.Context, id uint) ([]*models.KnowledgeNode, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Node().GetChildren(ctx, id)
}

// GetPath returns the " | "-joined Category/Attribute path of a node,
// served from cache when possible.
func (s *nodeService) GetPath(ctx context.Context, id uint) (string, error) {
	key := fmt.Sprintf(pathCacheKey, id)

	var cached string
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return "", err
	}

	path, err := s.resolver.BuildPath(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to build path: %w", err)
	}

	if err := s.cache.Set(ctx, key, path, pathCacheTTL); err != nil {
		s.logger.Warn("Failed to cache node path", "node_id", id, "error", err)
	}
	return path, nil
}

func (s *nodeService) GetSubtree(ctx context.Context, id uint) ([]*models.KnowledgeNode, error) {
	key := fmt.Sprintf(subtreeCacheKey, id)

	var cached []*models.KnowledgeNode
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	subtree, err := s.repo.Node().GetSubtree(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("failed to get subtree: %w", err)
	}

	if err := s.cache.Set(ctx, key, subtree, pathCacheTTL); err != nil {
		s.logger.Warn("Failed to cache subtree", "node_id", id, "error", err)
	}
	return subtree, nil
}

func (s *nodeService) invalidateTreeCache(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, nodeCachePattern); err != nil {
		s.logger.Warn("Failed to invalidate node cache", "error", err)
	}
}

func (s *nodeService) publishEvent(ctx context.Context, eventType events.EventType, data interface{}) {
	event := &events.QuizEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data:      data,
	}
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", eventType, "error", err)
	}
}
