package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studyloop/quiz-service/internal/events"
	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/utils"
)

func newSessionServiceFixture() (SessionService, *MockRepository, *events.MockEventPublisher) {
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(slog.Default())
	service := NewSessionService(repo, publisher, utils.NewDevelopmentLogger(), utils.NewValidator())
	return service, repo, publisher
}

// setupHeartFailureTree wires the mock node repository with:
//
//	topic (1)
//	  category left_sided (2)   -> attribute symptoms (3) -> facts 4, 5
//	  category right_sided (6)  -> attribute symptoms (7) -> fact 8
func setupHeartFailureTree(repo *MockRepository) {
	topic := &models.KnowledgeNode{ID: 1, Name: "heart_failure", Label: "Heart failure", Type: models.NodeTopic, ContentPackID: 1}
	left := &models.KnowledgeNode{ID: 2, ParentID: uintPtr(1), Name: "left_sided", Label: "Left-sided HF", Type: models.NodeCategory, ContentPackID: 1}
	leftSymptoms := &models.KnowledgeNode{ID: 3, ParentID: uintPtr(2), Name: "symptoms", Label: "Symptoms", Type: models.NodeAttribute, ContentPackID: 1}
	dyspnea := &models.KnowledgeNode{ID: 4, ParentID: uintPtr(3), Name: "dyspnea", Label: "Dyspnea", Type: models.NodeFact, ContentPackID: 1}
	pulmEdema := &models.KnowledgeNode{ID: 5, ParentID: uintPtr(3), Name: "pulmonary_edema", Label: "Pulmonary edema", Type: models.NodeFact, ContentPackID: 1}
	right := &models.KnowledgeNode{ID: 6, ParentID: uintPtr(1), Name: "right_sided", Label: "Right-sided HF", Type: models.NodeCategory, ContentPackID: 1}
	rightSymptoms := &models.KnowledgeNode{ID: 7, ParentID: uintPtr(6), Name: "symptoms", Label: "Symptoms", Type: models.NodeAttribute, ContentPackID: 1}
	periphEdema := &models.KnowledgeNode{ID: 8, ParentID: uintPtr(7), Name: "peripheral_edema", Label: "Peripheral edema", Type: models.NodeFact, ContentPackID: 1}

	for _, node := range []*models.KnowledgeNode{topic, left, leftSymptoms, dyspnea, pulmEdema, right, rightSymptoms, periphEdema} {
		repo.nodeRepo.On("GetByID", mock.Anything, node.ID).Return(node, nil)
	}

	repo.nodeRepo.On("GetByType", mock.Anything, uint(1), models.NodeAttribute).
		Return([]*models.KnowledgeNode{leftSymptoms, rightSymptoms}, nil)
	repo.nodeRepo.On("GetChildren", mock.Anything, uint(1)).
		Return([]*models.KnowledgeNode{left, right}, nil)
	repo.nodeRepo.On("GetChildren", mock.Anything, uint(2)).
		Return([]*models.KnowledgeNode{leftSymptoms}, nil)
	repo.nodeRepo.On("GetChildren", mock.Anything, uint(3)).
		Return([]*models.KnowledgeNode{dyspnea, pulmEdema}, nil)
	repo.nodeRepo.On("GetChildren", mock.Anything, uint(6)).
		Return([]*models.KnowledgeNode{rightSymptoms}, nil)
	repo.nodeRepo.On("GetChildren", mock.Anything, uint(7)).
		Return([]*models.KnowledgeNode{periphEdema}, nil)
}

func activePack() *models.ContentPack {
	return &models.ContentPack{ID: 1, Title: "Heart failure", Status: models.PackActive, CreatedBy: "author-1"}
}

func TestSessionService_Generate(t *testing.T) {
	service, repo, publisher := newSessionServiceFixture()
	setupHeartFailureTree(repo)

	repo.packRepo.On("GetByID", mock.Anything, uint(1)).Return(activePack(), nil)
	repo.sessionRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.QuizSession).ID = 42
	}).Return(nil)

	seed := int64(777)
	session, err := service.Generate(context.Background(), &GenerateSessionRequest{
		ContentPackID: 1,
		Seed:          &seed,
	}, "learner-1")

	require.NoError(t, err)
	assert.Equal(t, uint(42), session.ID)
	assert.Equal(t, "learner-1", session.UserID)

	// one downward question per category/attribute pair
	require.Len(t, session.Questions, 2)
	assert.Equal(t, 2, session.TotalQuestions)
	for i, q := range session.Questions {
		assert.Equal(t, i+1, q.Position)
		assert.Equal(t, models.DirectionDownward, q.Direction)
		assert.NotEmpty(t, q.Options)
		for j, opt := range q.Options {
			assert.Equal(t, j+1, opt.DisplayOrder)
		}
	}
	assert.Equal(t, "select all | Left-sided HF | Symptoms", session.Questions[0].PromptText)
	assert.Equal(t, "select all | Right-sided HF | Symptoms", session.Questions[1].PromptText)

	require.Len(t, publisher.Events, 1)
	assert.Equal(t, events.EventSessionGenerated, publisher.Events[0].Type)
}

func TestSessionService_Generate_Deterministic(t *testing.T) {
	seed := int64(777)
	req := func() *GenerateSessionRequest {
		return &GenerateSessionRequest{ContentPackID: 1, Seed: &seed}
	}

	build := func() *models.QuizSession {
		service, repo, _ := newSessionServiceFixture()
		setupHeartFailureTree(repo)
		repo.packRepo.On("GetByID", mock.Anything, uint(1)).Return(activePack(), nil)
		repo.sessionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		session, err := service.Generate(context.Background(), req(), "learner-1")
		require.NoError(t, err)
		return session
	}

	first := build()
	second := build()

	require.Len(t, second.Questions, len(first.Questions))
	for i := range first.Questions {
		assert.Equal(t, first.Questions[i].PromptText, second.Questions[i].PromptText)
		assert.Equal(t, first.Questions[i].Options, second.Questions[i].Options)
	}
}

func TestSessionService_Generate_Upward(t *testing.T) {
	service, repo, _ := newSessionServiceFixture()
	setupHeartFailureTree(repo)

	repo.packRepo.On("GetByID", mock.Anything, uint(1)).Return(activePack(), nil)
	repo.sessionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	session, err := service.Generate(context.Background(), &GenerateSessionRequest{
		ContentPackID: 1,
		Direction:     models.DirectionUpward,
	}, "learner-1")

	require.NoError(t, err)
	// one upward question per fact: two left-sided facts plus one right-sided
	require.Len(t, session.Questions, 3)
	for _, q := range session.Questions {
		assert.Equal(t, models.DirectionUpward, q.Direction)
		require.NotNil(t, q.FactID)
		assert.Nil(t, q.CategoryID)
	}
}

func TestSessionService_Generate_ExplicitZeroDistractors(t *testing.T) {
	service, repo, _ := newSessionServiceFixture()
	setupHeartFailureTree(repo)

	repo.packRepo.On("GetByID", mock.Anything, uint(1)).Return(activePack(), nil)
	repo.sessionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	zero := 0
	session, err := service.Generate(context.Background(), &GenerateSessionRequest{
		ContentPackID:  1,
		Direction:      models.DirectionUpward,
		NumDistractors: &zero,
	}, "learner-1")

	require.NoError(t, err)
	require.Len(t, session.Questions, 3)
	// zero means zero: only the all-correct option survives, no silent
	// fallback to the default
	for _, q := range session.Questions {
		require.Len(t, q.Options, 1)
		assert.True(t, q.Options[0].IsCorrect)
	}
}

func TestSessionService_Generate_PackNotFound(t *testing.T) {
	service, repo, _ := newSessionServiceFixture()

	repo.packRepo.On("GetByID", mock.Anything, uint(9)).Return(nil, gorm.ErrRecordNotFound)

	_, err := service.Generate(context.Background(), &GenerateSessionRequest{
		ContentPackID: 9,
	}, "learner-1")

	assert.ErrorIs(t, err, ErrPackNotFound)
}

func TestSessionService_Generate_PackNotActive(t *testing.T) {
	service, repo, _ := newSessionServiceFixture()

	repo.packRepo.On("GetByID", mock.Anything, uint(1)).Return(&models.ContentPack{
		ID: 1, Status: models.PackDraft,
	}, nil)

	_, err := service.Generate(context.Background(), &GenerateSessionRequest{
		ContentPackID: 1,
	}, "learner-1")

	assert.ErrorIs(t, err, ErrPackNotActive)
}

func TestSessionService_Generate_NoValidPairs(t *testing.T) {
	service, repo, _ := newSessionServiceFixture()

	repo.packRepo.On("GetByID", mock.Anything, uint(1)).Return(activePack(), nil)
	repo.nodeRepo.On("GetByType", mock.Anything, uint(1), models.NodeAttribute).
		Return([]*models.KnowledgeNode{}, nil)

	_, err := service.Generate(context.Background(), &GenerateSessionRequest{
		ContentPackID: 1,
	}, "learner-1")

	assert.ErrorIs(t, err, ErrNoValidPairs)
	repo.sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// openSession builds a two-question session where options 1,2 are correct for
// question one and option 5 is correct for question two.
func openSession() *models.QuizSession {
	return &models.QuizSession{
		ID:             42,
		UserID:         "learner-1",
		ContentPackID:  1,
		TotalQuestions: 2,
		StartedAt:      time.Now(),
		Questions: []models.Question{
			{
				ID: 100, SessionID: 42, Position: 1,
				Options: []models.AnswerOption{
					{ID: 1, IsCorrect: true},
					{ID: 2, IsCorrect: true},
					{ID: 3, IsCorrect: false},
				},
			},
			{
				ID: 101, SessionID: 42, Position: 2,
				Options: []models.AnswerOption{
					{ID: 4, IsCorrect: false},
					{ID: 5, IsCorrect: true},
				},
			},
		},
	}
}

func TestSessionService_Submit(t *testing.T) {
	service, repo, publisher := newSessionServiceFixture()

	repo.sessionRepo.On("GetByIDWithDetails", mock.Anything, uint(42)).Return(openSession(), nil)
	repo.sessionRepo.On("MarkSelections", mock.Anything, uint(42), []uint{1, 2, 4}).Return(nil)
	repo.sessionRepo.On("CompleteIfOpen", mock.Anything, uint(42), 1, 50.0, mock.Anything).Return(true, nil)

	// question one answered exactly, question two wrong
	result, err := service.Submit(context.Background(), 42, &SubmitSessionRequest{
		SelectedOptionIDs: []uint{1, 2, 4},
	}, "learner-1")

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalQuestions)
	assert.Equal(t, 1, result.CorrectCount)
	assert.InDelta(t, 50.0, result.Score, 1e-9)

	require.Len(t, publisher.Events, 1)
	assert.Equal(t, events.EventSessionCompleted, publisher.Events[0].Type)
}

func TestSessionService_Submit_PerfectScore(t *testing.T) {
	service, repo, _ := newSessionServiceFixture()

	repo.sessionRepo.On("GetByIDWithDetails", mock.Anything, uint(42)).Return(openSession(), nil)
	repo.sessionRepo.On("MarkSelections", mock.Anything, uint(42), []uint{1, 2, 5}).Return(nil)
	repo.sessionRepo.On("CompleteIfOpen", mock.Anything, uint(42), 2, 100.0, mock.Anything).Return(true, nil)

	result, err := service.Submit(context.Background(), 42, &SubmitSessionRequest{
		SelectedOptionIDs: []uint{1, 2, 5},
	}, "learner-1")

	require.NoError(t, err)
	assert.Equal(t, 2, result.CorrectCount)
	assert.InDelta(t, 100.0, result.Score, 1e-9)
}

func TestSessionService_Submit_InvalidSelection(t *testing.T) {
	service, repo, publisher := newSessionServiceFixture()

	repo.sessionRepo.On("GetByIDWithDetails", mock.Anything, uint(42)).Return(openSession(), nil)

	_, err := service.Submit(context.Background(), 42, &SubmitSessionRequest{
		SelectedOptionIDs: []uint{1, 999},
	}, "learner-1")

	assert.ErrorIs(t, err, ErrInvalidSelection)
	repo.sessionRepo.AssertNotCalled(t, "MarkSelections", mock.Anything, mock.Anything, mock.Anything)
	repo.sessionRepo.AssertNotCalled(t, "CompleteIfOpen", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, publisher.Events)
}

func TestSessionService_Submit_AlreadyCompleted(t *testing.T) {
	service, repo, _ := newSessionServiceFixture()

	completed := openSession()
	now := time.Now()
	completed.CompletedAt = &now
	repo.sessionRepo.On("GetByIDWithDetails", mock.Anything, uint(42)).Return(completed, nil)

	_, err := service.Submit(context.Background(), 42, &SubmitSessionRequest{
		SelectedOptionIDs: []uint{1},
	}, "learner-1")

	assert.ErrorIs(t, err, ErrSessionAlreadyCompleted)
	repo.sessionRepo.AssertNotCalled(t, "MarkSelections", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_Submit_ConcurrentCompletionLosesRace(t *testing.T) {
	service, repo, publisher := newSessionServiceFixture()

	// the session looks open when read, but another submission wins the
	// conditional update
	repo.sessionRepo.On("GetByIDWithDetails", mock.Anything, uint(42)).Return(openSession(), nil)
	repo.sessionRepo.On("MarkSelections", mock.Anything, uint(42), mock.Anything).Return(nil)
	repo.sessionRepo.On("CompleteIfOpen", mock.Anything, uint(42), mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	_, err := service.Submit(context.Background(), 42, &SubmitSessionRequest{
		SelectedOptionIDs: []uint{1, 2, 5},
	}, "learner-1")

	assert.ErrorIs(t, err, ErrSessionAlreadyCompleted)
	assert.Empty(t, publisher.Events)
}

func TestSessionService_Submit_WrongUser(t *testing.T) {
	service, repo, _ := newSessionServiceFixture()

	repo.sessionRepo.On("GetByIDWithDetails", mock.Anything, uint(42)).Return(openSession(), nil)

	_, err := service.Submit(context.Background(), 42, &SubmitSessionRequest{
		SelectedOptionIDs: []uint{1},
	}, "intruder")

	var permissionError *PermissionError
	assert.ErrorAs(t, err, &permissionError)
}

func TestSessionService_GetByID_WrongUser(t *testing.T) {
	service, repo, _ := newSessionServiceFixture()

	repo.sessionRepo.On("GetByIDWithDetails", mock.Anything, uint(42)).Return(openSession(), nil)

	_, err := service.GetByID(context.Background(), 42, "intruder")
	assert.ErrorIs(t, err, ErrSessionAccessDenied)
}

func TestSessionService_GetByID(t *testing.T) {
	service, repo, _ := newSessionServiceFixture()

	repo.sessionRepo.On("GetByIDWithDetails", mock.Anything, uint(42)).Return(openSession(), nil)

	session, err := service.GetByID(context.Background(), 42, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, uint(42), session.ID)
}

func TestSessionService_Submit_NotFound(t *testing.T) {
	service, repo, _ := newSessionServiceFixture()

	repo.sessionRepo.On("GetByIDWithDetails", mock.Anything, uint(404)).Return(nil, gorm.ErrRecordNotFound)

	_, err := service.Submit(context.Background(), 404, &SubmitSessionRequest{
		SelectedOptionIDs: []uint{1},
	}, "learner-1")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_Submit_EmptySelection(t *testing.T) {
	service, repo, _ := newSessionServiceFixture()

	repo.sessionRepo.On("GetByIDWithDetails", mock.Anything, uint(42)).Return(openSession(), nil)
	repo.sessionRepo.On("MarkSelections", mock.Anything, uint(42), mock.Anything).Return(nil)
	repo.sessionRepo.On("CompleteIfOpen", mock.Anything, uint(42), 0, 0.0, mock.Anything).Return(true, nil)

	// selecting nothing is a legal submission; both questions score wrong
	result, err := service.Submit(context.Background(), 42, &SubmitSessionRequest{}, "learner-1")

	require.NoError(t, err)
	assert.Equal(t, 0, result.CorrectCount)
	assert.Equal(t, 0.0, result.Score)
}
