package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studyloop/quiz-service/internal/events"
	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/utils"
)

func newPackServiceFixture() (ContentPackService, *MockRepository, *events.MockEventPublisher) {
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(slog.Default())
	service := NewContentPackService(repo, publisher, utils.NewDevelopmentLogger(), utils.NewValidator())
	return service, repo, publisher
}

func TestContentPackService_Publish(t *testing.T) {
	service, repo, publisher := newPackServiceFixture()

	repo.packRepo.On("GetByID", mock.Anything, uint(1)).Return(&models.ContentPack{
		ID: 1, Title: "Heart failure", Status: models.PackDraft, CreatedBy: "author-1",
	}, nil)
	repo.nodeRepo.On("GetRoots", mock.Anything, uint(1)).Return([]*models.KnowledgeNode{
		{ID: 1, Type: models.NodeTopic},
	}, nil)
	repo.packRepo.On("UpdateStatus", mock.Anything, uint(1), models.PackActive).Return(nil)

	pack, err := service.Publish(context.Background(), 1, "author-1")

	require.NoError(t, err)
	assert.Equal(t, models.PackActive, pack.Status)
	require.Len(t, publisher.Events, 1)
	assert.Equal(t, events.EventPackPublished, publisher.Events[0].Type)
}

func TestContentPackService_Publish_EmptyPackRejected(t *testing.T) {
	service, repo, _ := newPackServiceFixture()

	repo.packRepo.On("GetByID", mock.Anything, uint(1)).Return(&models.ContentPack{
		ID: 1, Status: models.PackDraft, CreatedBy: "author-1",
	}, nil)
	repo.nodeRepo.On("GetRoots", mock.Anything, uint(1)).Return([]*models.KnowledgeNode{}, nil)

	_, err := service.Publish(context.Background(), 1, "author-1")

	assert.True(t, IsBusinessRule(err))
	repo.packRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestContentPackService_Publish_OnlyDrafts(t *testing.T) {
	service, repo, _ := newPackServiceFixture()

	repo.packRepo.On("GetByID", mock.Anything, uint(1)).Return(&models.ContentPack{
		ID: 1, Status: models.PackActive, CreatedBy: "author-1",
	}, nil)

	_, err := service.Publish(context.Background(), 1, "author-1")
	assert.True(t, IsBusinessRule(err))
}

func TestContentPackService_Publish_NotOwner(t *testing.T) {
	service, repo, _ := newPackServiceFixture()

	repo.packRepo.On("GetByID", mock.Anything, uint(1)).Return(&models.ContentPack{
		ID: 1, Status: models.PackDraft, CreatedBy: "author-1",
	}, nil)

	_, err := service.Publish(context.Background(), 1, "someone-else")

	var permissionError *PermissionError
	assert.ErrorAs(t, err, &permissionError)
}

func TestContentPackService_Create(t *testing.T) {
	service, repo, _ := newPackServiceFixture()

	repo.packRepo.On("Create", mock.Anything, mock.MatchedBy(func(pack *models.ContentPack) bool {
		return pack.Title == "Heart failure" && pack.Status == models.PackDraft
	})).Return(nil)

	pack, err := service.Create(context.Background(), &CreatePackRequest{
		Title: "Heart failure",
	}, "author-1")

	require.NoError(t, err)
	assert.Equal(t, models.PackDraft, pack.Status)
	assert.Equal(t, "author-1", pack.CreatedBy)
}
