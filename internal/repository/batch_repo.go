package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/examhub-go-api/internal/models"
)

// BatchRepository stores aggregate statistics for an exam. Each exam has at
// most one statistics row; a batch re-run fully replaces the previous one.
type BatchRepository interface {
	Replace(ctx context.Context, stats *models.BatchStatistics) error
	GetByExam(ctx context.Context, examID uint) (models.BatchStatistics, error)
	ListAll(ctx context.Context) ([]models.BatchStatistics, error)
}

type batchRepository struct {
	db *gorm.DB
}

// NewBatchRepository constructs a batch statistics repository.
func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) Replace(ctx context.Context, stats *models.BatchStatistics) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "exam_id"}},
			UpdateAll: true,
		}).
		Create(stats).Error
}

func (r *batchRepository) GetByExam(ctx context.Context, examID uint) (models.BatchStatistics, error) {
	var stats models.BatchStatistics
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		First(&stats).Error; err != nil {
		return models.BatchStatistics{}, err
	}

	return stats, nil
}

func (r *batchRepository) ListAll(ctx context.Context) ([]models.BatchStatistics, error) {
	var records []models.BatchStatistics
	if err := r.db.WithContext(ctx).
		Order("exam_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}
