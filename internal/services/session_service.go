package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"gorm.io/datatypes"

	"github.com/studyloop/quiz-service/internal/events"
	"github.com/studyloop/quiz-service/internal/hierarchy"
	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/quizgen"
	"github.com/studyloop/quiz-service/internal/repositories"
	"github.com/studyloop/quiz-service/internal/scoring"
	"github.com/studyloop/quiz-service/internal/utils"
)

// SessionService generates quizzes from a content pack's knowledge tree and
// scores submitted selections.
type SessionService interface {
	Generate(ctx context.Context, req *GenerateSessionRequest, userID string) (*models.QuizSession, error)
	GetByID(ctx context.Context, id uint, userID string) (*models.QuizSession, error)
	List(ctx context.Context, userID string, filters repositories.SessionFilters) ([]*models.QuizSession, int64, error)
	Submit(ctx context.Context, sessionID uint, req *SubmitSessionRequest, userID string) (*SubmitResult, error)
}

type GenerateSessionRequest struct {
	ContentPackID  uint                     `json:"content_pack_id" validate:"required"`
	Direction      models.QuestionDirection `json:"direction" validate:"omitempty,question_direction"`
	MaxQuestions int `json:"max_questions" validate:"min=0,max=100"`

	// NumDistractors defaults to 2 when nil; an explicit zero is honored.
	NumDistractors *int `json:"num_distractors" validate:"omitempty,min=0,max=10"`

	// Seed pins the generated questions for reproducibility; when nil a
	// time-derived seed is used.
	Seed *int64 `json:"seed"`
}

type SubmitSessionRequest struct {
	SelectedOptionIDs []uint `json:"selected_option_ids"`
}

// SubmitResult is what the scorer hands back to the caller.
type SubmitResult struct {
	SessionID      uint    `json:"session_id"`
	TotalQuestions int     `json:"total_questions"`
	CorrectCount   int     `json:"correct_count"`
	Score          float64 `json:"score"`
}

// questionPair is one eligible category/attribute pair with its facts.
type questionPair struct {
	category  *models.KnowledgeNode
	attribute *models.KnowledgeNode
	facts     []*models.KnowledgeNode
}

type sessionService struct {
	repo      repositories.Repository
	resolver  *hierarchy.PathResolver
	publisher events.EventPublisher
	logger    utils.Logger
	validator *utils.Validator
}

func NewSessionService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger utils.Logger,
	validator *utils.Validator,
) SessionService {
	return &sessionService{
		repo:      repo,
		resolver:  hierarchy.NewPathResolver(&repoNodeLookup{repo: repo.Node()}),
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== GENERATION =====

func (s *sessionService) Generate(ctx context.Context, req *GenerateSessionRequest, userID string) (*models.QuizSession, error) {
	s.logger.Info("Generating quiz session",
		"content_pack_id", req.ContentPackID,
		"user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	pack, err := s.repo.ContentPack().GetByID(ctx, req.ContentPackID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPackNotFound
		}
		return nil, fmt.Errorf("failed to get content pack: %w", err)
	}
	if pack.Status != models.PackActive {
		return nil, ErrPackNotActive
	}

	pairs, err := s.collectPairs(ctx, req.ContentPackID)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, ErrNoValidPairs
	}

	direction := req.Direction
	if direction == "" {
		direction = models.DirectionDownward
	}
	numDistractors := 2
	if req.NumDistractors != nil {
		numDistractors = *req.NumDistractors
	}

	baseSeed := time.Now().UnixNano()
	if req.Seed != nil {
		baseSeed = *req.Seed
	}

	var generated []*quizgen.Question
	for _, pair := range pairs {
		questions, err := s.generateForPair(ctx, pair, direction, numDistractors, baseSeed+int64(len(generated)))
		if err != nil {
			return nil, err
		}
		generated = append(generated, questions...)
		if req.MaxQuestions > 0 && len(generated) >= req.MaxQuestions {
			generated = generated[:req.MaxQuestions]
			break
		}
	}
	if len(generated) == 0 {
		return nil, ErrNoValidPairs
	}

	session := &models.QuizSession{
		UserID:         userID,
		ContentPackID:  req.ContentPackID,
		TotalQuestions: len(generated),
		StartedAt:      time.Now(),
	}
	for i, gq := range generated {
		question := models.Question{
			PromptText:  gq.PromptText,
			Direction:   gq.Direction,
			CategoryID:  gq.CategoryID,
			AttributeID: gq.AttributeID,
			FactID:      gq.FactID,
			Position:    i + 1,
		}
		for _, opt := range gq.Options {
			question.Options = append(question.Options, models.AnswerOption{
				DisplayText:  opt.DisplayText,
				IsCorrect:    opt.IsCorrect,
				Components:   datatypes.JSONSlice[uint](opt.Components),
				DisplayOrder: opt.DisplayOrder,
			})
		}
		session.Questions = append(session.Questions, question)
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Session().Create(ctx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.publishEvent(ctx, events.EventSessionGenerated, events.SessionGeneratedEvent{
		SessionID:      session.ID,
		UserID:         userID,
		ContentPackID:  req.ContentPackID,
		TotalQuestions: session.TotalQuestions,
		StartedAt:      session.StartedAt,
	})

	s.logger.Info("Quiz session generated",
		"session_id", session.ID,
		"questions", session.TotalQuestions)
	return session, nil
}

// collectPairs walks the pack's attributes and keeps every category/attribute
// pair that has at least one eligible fact.
func (s *sessionService) collectPairs(ctx context.Context, packID uint) ([]*questionPair, error) {
	attributes, err := s.repo.Node().GetByType(ctx, packID, models.NodeAttribute)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}

	var pairs []*questionPair
	for _, attr := range attributes {
		if attr.ParentID == nil {
			continue
		}
		category, err := s.repo.Node().GetByID(ctx, *attr.ParentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue
			}
			return nil, fmt.Errorf("failed to get category: %w", err)
		}
		if category.Type != models.NodeCategory {
			continue
		}

		facts, err := s.resolver.FindFactsForPair(ctx, category.ID, attr.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to find facts for pair: %w", err)
		}
		if len(facts) == 0 {
			continue
		}

		pairs = append(pairs, &questionPair{
			category:  category,
			attribute: attr,
			facts:     facts,
		})
	}
	return pairs, nil
}

// generateForPair builds the question(s) for one pair. Downward yields one
// question per pair; upward yields one question per fact of the pair.
func (s *sessionService) generateForPair(ctx context.Context, pair *questionPair, direction models.QuestionDirection, numDistractors int, seed int64) ([]*quizgen.Question, error) {
	if direction == models.DirectionUpward {
		return s.generateUpwardForPair(ctx, pair, numDistractors, seed)
	}

	pool, err := s.siblingFacts(ctx, pair)
	if err != nil {
		return nil, err
	}

	question, err := quizgen.Generate(quizgen.DownwardInput{
		Category:       toItem(pair.category),
		Attribute:      toItem(pair.attribute),
		CorrectFacts:   toItems(pair.facts),
		DistractorPool: pool,
		NumDistractors: numDistractors,
	}, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to generate question: %w", err)
	}
	return []*quizgen.Question{question}, nil
}

// generateUpwardForPair emits one upward question per fact: which sibling
// categories carry the same fact along the same-named attribute.
func (s *sessionService) generateUpwardForPair(ctx context.Context, pair *questionPair, numDistractors int, seed int64) ([]*quizgen.Question, error) {
	siblings, err := s.siblingCategories(ctx, pair.category)
	if err != nil {
		return nil, err
	}

	var questions []*quizgen.Question
	for i, fact := range pair.facts {
		correct := []quizgen.Item{toItem(pair.category)}
		var pool []quizgen.Item
		for _, sibling := range siblings {
			has, err := s.categoryHasFact(ctx, sibling, pair.attribute.Name, fact.Name)
			if err != nil {
				return nil, err
			}
			if has {
				correct = append(correct, toItem(sibling))
			} else {
				pool = append(pool, toItem(sibling))
			}
		}

		question, err := quizgen.Generate(quizgen.UpwardInput{
			Attribute:         toItem(pair.attribute),
			Fact:              toItem(fact),
			CorrectCategories: correct,
			DistractorPool:    pool,
			NumDistractors:    numDistractors,
		}, seed+int64(i))
		if err != nil {
			return nil, fmt.Errorf("failed to generate question: %w", err)
		}
		questions = append(questions, question)
	}
	return questions, nil
}

// siblingFacts collects the distractor pool for a downward question: facts
// carried by sibling categories along the same-named attribute.
func (s *sessionService) siblingFacts(ctx context.Context, pair *questionPair) ([]quizgen.Item, error) {
	siblings, err := s.siblingCategories(ctx, pair.category)
	if err != nil {
		return nil, err
	}

	correctIDs := make(map[uint]bool, len(pair.facts))
	for _, fact := range pair.facts {
		correctIDs[fact.ID] = true
	}

	var pool []quizgen.Item
	for _, sibling := range siblings {
		attr, err := s.findAttributeByName(ctx, sibling.ID, pair.attribute.Name)
		if err != nil {
			return nil, err
		}
		if attr == nil {
			continue
		}
		facts, err := s.resolver.FindFactsForPair(ctx, sibling.ID, attr.ID)
		if err != nil {
			return nil, err
		}
		for _, fact := range facts {
			if !correctIDs[fact.ID] {
				pool = append(pool, toItem(fact))
			}
		}
	}
	return pool, nil
}

func (s *sessionService) siblingCategories(ctx context.Context, category *models.KnowledgeNode) ([]*models.KnowledgeNode, error) {
	if category.ParentID == nil {
		return nil, nil
	}
	children, err := s.repo.Node().GetChildren(ctx, *category.ParentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sibling categories: %w", err)
	}

	var siblings []*models.KnowledgeNode
	for _, child := range children {
		if child.Type == models.NodeCategory && child.ID != category.ID {
			siblings = append(siblings, child)
		}
	}
	return siblings, nil
}

func (s *sessionService) findAttributeByName(ctx context.Context, categoryID uint, name string) (*models.KnowledgeNode, error) {
	children, err := s.repo.Node().GetChildren(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attributes: %w", err)
	}
	for _, child := range children {
		if child.Type == models.NodeAttribute && child.Name == name {
			return child, nil
		}
	}
	return nil, nil
}

func (s *sessionService) categoryHasFact(ctx context.Context, category *models.KnowledgeNode, attributeName, factName string) (bool, error) {
	attr, err := s.findAttributeByName(ctx, category.ID, attributeName)
	if err != nil || attr == nil {
		return false, err
	}
	facts, err := s.resolver.FindFactsForPair(ctx, category.ID, attr.ID)
	if err != nil {
		return false, err
	}
	for _, fact := range facts {
		if fact.Name == factName {
			return true, nil
		}
	}
	return false, nil
}

// ===== READ =====

func (s *sessionService) GetByID(ctx context.Context, id uint, userID string) (*models.QuizSession, error) {
	session, err := s.repo.Session().GetByIDWithDetails(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrSessionAccessDenied
	}
	return session, nil
}

func (s *sessionService) List(ctx context.Context, userID string, filters repositories.SessionFilters) ([]*models.QuizSession, int64, error) {
	sessions, total, err := s.repo.Session().GetByUser(ctx, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, total, nil
}

// ===== SUBMISSION =====

// Submit records the learner's selections and scores the session with the
// strict-match rule. The completion write is gated on completed_at IS NULL
// at the persistence boundary so a concurrent duplicate submission fails
// with ErrSessionAlreadyCompleted instead of double scoring.
func (s *sessionService) Submit(ctx context.Context, sessionID uint, req *SubmitSessionRequest, userID string) (*SubmitResult, error) {
	s.logger.Info("Submitting quiz session",
		"session_id", sessionID,
		"user_id", userID,
		"selections", len(req.SelectedOptionIDs))

	session, err := s.repo.Session().GetByIDWithDetails(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.UserID != userID {
		return nil, NewPermissionError(userID, sessionID, "session", "submit", "not owned by user")
	}
	if session.IsCompleted() {
		return nil, ErrSessionAlreadyCompleted
	}

	// Every selected id must belong to this session before any mutation.
	valid := make(map[uint]bool)
	for _, q := range session.Questions {
		for _, opt := range q.Options {
			valid[opt.ID] = true
		}
	}
	selected := make(map[uint]bool, len(req.SelectedOptionIDs))
	for _, id := range req.SelectedOptionIDs {
		if !valid[id] {
			return nil, fmt.Errorf("%w: option %d", ErrInvalidSelection, id)
		}
		selected[id] = true
	}

	for qi := range session.Questions {
		for oi := range session.Questions[qi].Options {
			opt := &session.Questions[qi].Options[oi]
			opt.WasSelected = selected[opt.ID]
		}
	}

	summary := scoring.ScoreSession(session.Questions)
	completedAt := time.Now()

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Session().MarkSelections(ctx, sessionID, req.SelectedOptionIDs); err != nil {
			return fmt.Errorf("failed to record selections: %w", err)
		}
		completed, err := txRepo.Session().CompleteIfOpen(ctx, sessionID, summary.CorrectCount, summary.Score, completedAt)
		if err != nil {
			return fmt.Errorf("failed to complete session: %w", err)
		}
		if !completed {
			return ErrSessionAlreadyCompleted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventSessionCompleted, events.SessionCompletedEvent{
		SessionID:      sessionID,
		UserID:         userID,
		ContentPackID:  session.ContentPackID,
		TotalQuestions: summary.TotalQuestions,
		CorrectAnswers: summary.CorrectCount,
		Score:          summary.Score,
		CompletedAt:    completedAt,
	})

	s.logger.Info("Quiz session scored",
		"session_id", sessionID,
		"correct", summary.CorrectCount,
		"score", summary.Score)

	return &SubmitResult{
		SessionID:      sessionID,
		TotalQuestions: summary.TotalQuestions,
		CorrectCount:   summary.CorrectCount,
		Score:          summary.Score,
	}, nil
}

func (s *sessionService) publishEvent(ctx context.Context, eventType events.EventType, data interface{}) {
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

func toItem(node *models.KnowledgeNode) quizgen.Item {
	return quizgen.Item{ID: node.ID, Label: node.Label}
}

func toItems(nodes []*models.KnowledgeNode) []quizgen.Item {
	items := make([]quizgen.Item, len(nodes))
	for i, node := range nodes {
		items[i] = toItem(node)
	}
	return items
}
