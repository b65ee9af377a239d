package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/repositories"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s *SessionPostgreSQL) Create(ctx context.Context, session *models.QuizSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *SessionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizSession, error) {
	var session models.QuizSession
	if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionPostgreSQL) GetByIDWithDetails(ctx context.Context, id uint) (*models.QuizSession, error) {
	var session models.QuizSession
	if err := s.db.WithContext(ctx).
		Preload("ContentPack").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("answer_options.display_order ASC")
		}).
		First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionPostgreSQL) GetByUser(ctx context.Context, userID string, filters repositories.SessionFilters) ([]*models.QuizSession, int64, error) {
	var sessions []*models.QuizSession
	var total int64

	query := s.db.WithContext(ctx).Model(&models.QuizSession{}).Where("user_id = ?", userID)
	if filters.ContentPackID != nil {
		query = query.Where("content_pack_id = ?", *filters.ContentPackID)
	}
	if filters.Completed != nil {
		if *filters.Completed {
			query = query.Where("completed_at IS NOT NULL")
		} else {
			query = query.Where("completed_at IS NULL")
		}
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applySessionSort(query, filters)
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("ContentPack").Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (s *SessionPostgreSQL) MarkSelections(ctx context.Context, sessionID uint, optionIDs []uint) error {
	if len(optionIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.AnswerOption{}).
		Where("id IN ? AND question_id IN (SELECT id FROM questions WHERE session_id = ?)", optionIDs, sessionID).
		Update("was_selected", true).Error
}

func (s *SessionPostgreSQL) CountQuestionsReferencing(ctx context.Context, nodeIDs []uint) (int64, error) {
	if len(nodeIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("attribute_id IN ? OR category_id IN ? OR fact_id IN ?", nodeIDs, nodeIDs, nodeIDs).
		Count(&count).Error
	return count, err
}

// CompleteIfOpen is the single-writer guard: the update only lands while
// completed_at is still NULL, so two concurrent submissions cannot both
// score the same session.
func (s *SessionPostgreSQL) CompleteIfOpen(ctx context.Context, sessionID uint, correctAnswers int, score float64, completedAt time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.QuizSession{}).
		Where("id = ? AND completed_at IS NULL", sessionID).
		Updates(map[string]interface{}{
			"correct_answers": correctAnswers,
			"score":           score,
			"completed_at":    completedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func applySessionSort(query *gorm.DB, filters repositories.SessionFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "started_at", "completed_at", "score":
	default:
		sortBy = "started_at"
	}
	order := "DESC"
	if filters.SortOrder == "asc" {
		order = "ASC"
	}
	return query.Order(sortBy + " " + order)
}
