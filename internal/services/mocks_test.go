package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/studyloop/quiz-service/internal/cache"
	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/repositories"
)

// ===== REPOSITORY MOCKS =====

type MockNodeRepository struct {
	mock.Mock
}

func (m *MockNodeRepository) Create(ctx context.Context, node *models.KnowledgeNode) error {
	args := m.Called(ctx, node)
	return args.Error(0)
}

func (m *MockNodeRepository) GetByID(ctx context.Context, id uint) (*models.KnowledgeNode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeNode), args.Error(1)
}

func (m *MockNodeRepository) Update(ctx context.Context, node *models.KnowledgeNode) error {
	args := m.Called(ctx, node)
	return args.Error(0)
}

func (m *MockNodeRepository) DeleteSubtree(ctx context.Context, rootID uint) error {
	args := m.Called(ctx, rootID)
	return args.Error(0)
}

func (m *MockNodeRepository) GetChildren(ctx context.Context, parentID uint) ([]*models.KnowledgeNode, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.KnowledgeNode), args.Error(1)
}

func (m *MockNodeRepository) GetRoots(ctx context.Context, packID uint) ([]*models.KnowledgeNode, error) {
	args := m.Called(ctx, packID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.KnowledgeNode), args.Error(1)
}

func (m *MockNodeRepository) GetByType(ctx context.Context, packID uint, nodeType models.NodeType) ([]*models.KnowledgeNode, error) {
	args := m.Called(ctx, packID, nodeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.KnowledgeNode), args.Error(1)
}

func (m *MockNodeRepository) GetSubtree(ctx context.Context, rootID uint) ([]*models.KnowledgeNode, error) {
	args := m.Called(ctx, rootID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.KnowledgeNode), args.Error(1)
}

func (m *MockNodeRepository) List(ctx context.Context, filters repositories.NodeFilters) ([]*models.KnowledgeNode, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.KnowledgeNode), args.Get(1).(int64), args.Error(2)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.QuizSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uint) (*models.QuizSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizSession), args.Error(1)
}

func (m *MockSessionRepository) GetByIDWithDetails(ctx context.Context, id uint) (*models.QuizSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizSession), args.Error(1)
}

func (m *MockSessionRepository) GetByUser(ctx context.Context, userID string, filters repositories.SessionFilters) ([]*models.QuizSession, int64, error) {
	args := m.Called(ctx, userID, filters)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.QuizSession), args.Get(1).(int64), args.Error(2)
}

func (m *MockSessionRepository) MarkSelections(ctx context.Context, sessionID uint, optionIDs []uint) error {
	args := m.Called(ctx, sessionID, optionIDs)
	return args.Error(0)
}

func (m *MockSessionRepository) CountQuestionsReferencing(ctx context.Context, nodeIDs []uint) (int64, error) {
	args := m.Called(ctx, nodeIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) CompleteIfOpen(ctx context.Context, sessionID uint, correctAnswers int, score float64, completedAt time.Time) (bool, error) {
	args := m.Called(ctx, sessionID, correctAnswers, score, completedAt)
	return args.Bool(0), args.Error(1)
}

type MockContentPackRepository struct {
	mock.Mock
}

func (m *MockContentPackRepository) Create(ctx context.Context, pack *models.ContentPack) error {
	args := m.Called(ctx, pack)
	return args.Error(0)
}

func (m *MockContentPackRepository) GetByID(ctx context.Context, id uint) (*models.ContentPack, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContentPack), args.Error(1)
}

func (m *MockContentPackRepository) Update(ctx context.Context, pack *models.ContentPack) error {
	args := m.Called(ctx, pack)
	return args.Error(0)
}

func (m *MockContentPackRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockContentPackRepository) List(ctx context.Context, filters repositories.PackFilters) ([]*models.ContentPack, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.ContentPack), args.Get(1).(int64), args.Error(2)
}

func (m *MockContentPackRepository) UpdateStatus(ctx context.Context, id uint, status models.PackStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockRepository aggregates the per-entity mocks. WithTransaction runs the
// callback against the same mock set, which is enough for service tests.
type MockRepository struct {
	nodeRepo    *MockNodeRepository
	sessionRepo *MockSessionRepository
	packRepo    *MockContentPackRepository
	userRepo    *MockUserRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		nodeRepo:    &MockNodeRepository{},
		sessionRepo: &MockSessionRepository{},
		packRepo:    &MockContentPackRepository{},
		userRepo:    &MockUserRepository{},
	}
}

func (m *MockRepository) Node() repositories.NodeRepository               { return m.nodeRepo }
func (m *MockRepository) Session() repositories.SessionRepository         { return m.sessionRepo }
func (m *MockRepository) ContentPack() repositories.ContentPackRepository { return m.packRepo }
func (m *MockRepository) User() repositories.UserRepository               { return m.userRepo }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

// ===== CACHE MOCK =====

// noopCache satisfies cache.CacheService; every Get is a miss.
type noopCache struct{}

func (noopCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (noopCache) Get(ctx context.Context, key string, dest interface{}) error {
	return cache.ErrCacheMiss
}

func (noopCache) Delete(ctx context.Context, key string) error            { return nil }
func (noopCache) DeletePattern(ctx context.Context, pattern string) error { return nil }
