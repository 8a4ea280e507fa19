package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/examhub-go-api/internal/models"
)

// EvaluationRepository persists per-student evaluation results. Results are
// keyed by (exam, student) so re-running an evaluation overwrites the
// previous outcome instead of accumulating rows.
type EvaluationRepository interface {
	Upsert(ctx context.Context, result *models.EvaluationResult) error
	GetByExamAndStudent(ctx context.Context, examID, studentID uint) (models.EvaluationResult, error)
	ListByExam(ctx context.Context, examID uint) ([]models.EvaluationResult, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository constructs an evaluation repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Upsert(ctx context.Context, result *models.EvaluationResult) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "exam_id"}, {Name: "student_id"}},
			UpdateAll: true,
		}).
		Create(result).Error
}

func (r *evaluationRepository) GetByExamAndStudent(ctx context.Context, examID, studentID uint) (models.EvaluationResult, error) {
	var result models.EvaluationResult
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Where("student_id = ?", studentID).
		First(&result).Error; err != nil {
		return models.EvaluationResult{}, err
	}

	return result, nil
}

func (r *evaluationRepository) ListByExam(ctx context.Context, examID uint) ([]models.EvaluationResult, error) {
	var results []models.EvaluationResult
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("percentage DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}
