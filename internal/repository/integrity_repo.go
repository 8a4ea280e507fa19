package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/examhub-go-api/internal/models"
)

// IntegrityRepository provides access to proctoring records.
type IntegrityRepository interface {
	GetByExamAndStudent(ctx context.Context, examID, studentID uint) (models.IntegrityRecord, error)
}

type integrityRepository struct {
	db *gorm.DB
}

// NewIntegrityRepository constructs an integrity repository.
func NewIntegrityRepository(db *gorm.DB) IntegrityRepository {
	return &integrityRepository{db: db}
}

func (r *integrityRepository) GetByExamAndStudent(ctx context.Context, examID, studentID uint) (models.IntegrityRecord, error) {
	var record models.IntegrityRecord
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Where("student_id = ?", studentID).
		First(&record).Error; err != nil {
		return models.IntegrityRecord{}, err
	}

	return record, nil
}
