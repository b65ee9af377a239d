package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/studyloop/quiz-service/internal/models"
)

// ===== REPOSITORY INTERFACES =====

// NodeRepository persists the knowledge tree.
type NodeRepository interface {
	Create(ctx context.Context, node *models.KnowledgeNode) error
	GetByID(ctx context.Context, id uint) (*models.KnowledgeNode, error)
	Update(ctx context.Context, node *models.KnowledgeNode) error

	// DeleteSubtree soft-deletes the node and its whole subtree; deletion
	// cascades by policy.
	DeleteSubtree(ctx context.Context, rootID uint) error

	// GetChildren returns direct children ordered by (order_index, id).
	GetChildren(ctx context.Context, parentID uint) ([]*models.KnowledgeNode, error)
	GetRoots(ctx context.Context, packID uint) ([]*models.KnowledgeNode, error)
	GetByType(ctx context.Context, packID uint, nodeType models.NodeType) ([]*models.KnowledgeNode, error)

	// GetSubtree returns the node plus every descendant in one recursive
	// query, ordered by (order_index, id).
	GetSubtree(ctx context.Context, rootID uint) ([]*models.KnowledgeNode, error)

	List(ctx context.Context, filters NodeFilters) ([]*models.KnowledgeNode, int64, error)
}

// SessionRepository persists quiz sessions with their generated questions
// and options.
type SessionRepository interface {
	Create(ctx context.Context, session *models.QuizSession) error
	GetByID(ctx context.Context, id uint) (*models.QuizSession, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.QuizSession, error) // Include questions, options
	GetByUser(ctx context.Context, userID string, filters SessionFilters) ([]*models.QuizSession, int64, error)

	// MarkSelections sets WasSelected on the given options of the session.
	MarkSelections(ctx context.Context, sessionID uint, optionIDs []uint) error

	// CountQuestionsReferencing reports how many generated questions point
	// at any of the given nodes as their category, attribute, or fact.
	CountQuestionsReferencing(ctx context.Context, nodeIDs []uint) (int64, error)

	// CompleteIfOpen writes the final score and completion time with a
	// conditional update gated on completed_at IS NULL. Returns false when
	// the session was already completed; this is the single-writer guard
	// against double scoring.
	CompleteIfOpen(ctx context.Context, sessionID uint, correctAnswers int, score float64, completedAt time.Time) (bool, error)
}

// ContentPackRepository persists authoring units.
type ContentPackRepository interface {
	Create(ctx context.Context, pack *models.ContentPack) error
	GetByID(ctx context.Context, id uint) (*models.ContentPack, error)
	Update(ctx context.Context, pack *models.ContentPack) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters PackFilters) ([]*models.ContentPack, int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.PackStatus) error
}

// UserRepository resolves learners and authors.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

// Repository is the aggregate storage entry point.
type Repository interface {
	Node() NodeRepository
	Session() SessionRepository
	ContentPack() ContentPackRepository
	User() UserRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// ===== SHARED FILTER STRUCTS =====

type NodeFilters struct {
	ContentPackID *uint            `json:"content_pack_id"`
	Type          *models.NodeType `json:"type"`
	ParentID      *uint            `json:"parent_id"`
	Limit         int              `json:"limit"`
	Offset        int              `json:"offset"`
}

type SessionFilters struct {
	ContentPackID *uint      `json:"content_pack_id"`
	Completed     *bool      `json:"completed"`
	DateFrom      *time.Time `json:"date_from"`
	DateTo        *time.Time `json:"date_to"`
	Limit         int        `json:"limit"`
	Offset        int        `json:"offset"`
	SortBy        string     `json:"sort_by"`    // "started_at", "completed_at", "score"
	SortOrder     string     `json:"sort_order"` // "asc", "desc"
}

type PackFilters struct {
	Status    *models.PackStatus `json:"status"`
	CreatedBy *string            `json:"created_by"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// ===== HELPERS =====

// IsNotFoundError checks whether err is the storage layer's record-miss.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
