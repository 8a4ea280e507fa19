package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/examhub-go-api/internal/models"
)

func TestEvaluationRepositoryUpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEvaluationRepository(db)
	ctx := context.Background()

	first := models.EvaluationResult{
		ExamID:           1,
		StudentID:        7,
		StudentName:      "Alice Johnson",
		TotalScore:       4,
		MaxPossibleScore: 10,
		Percentage:       40,
		EvaluatedAt:      time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Upsert(ctx, &first))

	second := models.EvaluationResult{
		ExamID:           1,
		StudentID:        7,
		StudentName:      "Alice Johnson",
		TotalScore:       8,
		MaxPossibleScore: 10,
		Percentage:       80,
		EvaluatedAt:      time.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, &second))

	stored, err := repo.GetByExamAndStudent(ctx, 1, 7)
	require.NoError(t, err)
	require.Equal(t, 8.0, stored.TotalScore)

	var count int64
	require.NoError(t, db.Model(&models.EvaluationResult{}).Count(&count).Error)
	require.Equal(t, int64(1), count, "re-evaluation must not add rows")
}

func TestEvaluationRepositoryListOrdersByPercentage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEvaluationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.EvaluationResult{ExamID: 2, StudentID: 1, Percentage: 55}))
	require.NoError(t, repo.Upsert(ctx, &models.EvaluationResult{ExamID: 2, StudentID: 2, Percentage: 90}))
	require.NoError(t, repo.Upsert(ctx, &models.EvaluationResult{ExamID: 3, StudentID: 3, Percentage: 100}))

	results, err := repo.ListByExam(ctx, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, uint(2), results[0].StudentID)
}

func TestBatchRepositoryReplaceKeepsSingleRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBatchRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Replace(ctx, &models.BatchStatistics{ExamID: 5}))
	require.NoError(t, repo.Replace(ctx, &models.BatchStatistics{ExamID: 5}))

	var count int64
	require.NoError(t, db.Model(&models.BatchStatistics{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	stats, err := repo.GetByExam(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, uint(5), stats.ExamID)
}

func TestSubmissionRepositoryListPreloadsStudents(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	student := models.Student{FirstName: "Bob", LastName: "Stone", USN: "1RV21CS001", Email: "bob@example.com"}
	require.NoError(t, db.Create(&student).Error)

	exam := models.Exam{Name: "Midterm", QuestionType: models.QuestionTypeCoding}
	require.NoError(t, db.Create(&exam).Error)

	submission := models.Submission{ExamID: exam.ID, StudentID: student.ID, SubmittedAt: time.Now()}
	require.NoError(t, db.Create(&submission).Error)

	listed, err := repo.ListByExam(ctx, exam.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Student)
	require.Equal(t, "Bob Stone", listed[0].Student.FullName())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Exam{},
		&models.CodingQuestion{},
		&models.MCQQuestion{},
		&models.Submission{},
		&models.EvaluationResult{},
		&models.BatchStatistics{},
		&models.IntegrityRecord{},
	))
	return db
}
