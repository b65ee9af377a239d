package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/repositories"
)

type ContentPackPostgreSQL struct {
	db *gorm.DB
}

func NewContentPackPostgreSQL(db *gorm.DB) repositories.ContentPackRepository {
	return &ContentPackPostgreSQL{db: db}
}

func (p *ContentPackPostgreSQL) Create(ctx context.Context, pack *models.ContentPack) error {
	return p.db.WithContext(ctx).Create(pack).Error
}

func (p *ContentPackPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ContentPack, error) {
	var pack models.ContentPack
	if err := p.db.WithContext(ctx).First(&pack, id).Error; err != nil {
		return nil, err
	}
	return &pack, nil
}

func (p *ContentPackPostgreSQL) Update(ctx context.Context, pack *models.ContentPack) error {
	return p.db.WithContext(ctx).Save(pack).Error
}

func (p *ContentPackPostgreSQL) Delete(ctx context.Context, id uint) error {
	return p.db.WithContext(ctx).Delete(&models.ContentPack{}, id).Error
}

func (p *ContentPackPostgreSQL) List(ctx context.Context, filters repositories.PackFilters) ([]*models.ContentPack, int64, error) {
	var packs []*models.ContentPack
	var total int64

	query := p.db.WithContext(ctx).Model(&models.ContentPack{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("created_at DESC").Find(&packs).Error; err != nil {
		return nil, 0, err
	}

	return packs, total, nil
}

func (p *ContentPackPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.PackStatus) error {
	return p.db.WithContext(ctx).
		Model(&models.ContentPack{}).
		Where("id = ?", id).
		Update("status", status).Error
}
