package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/examhub-go-api/internal/models"
)

type stubEvaluator struct {
	results map[uint]models.EvaluationResult
	failFor map[uint]error
	calls   []uint
}

func (s *stubEvaluator) EvaluateSubmission(ctx context.Context, examID, studentID uint) (models.EvaluationResult, error) {
	s.calls = append(s.calls, studentID)
	if err, ok := s.failFor[studentID]; ok {
		return models.EvaluationResult{}, err
	}
	return s.results[studentID], nil
}

func (s *stubEvaluator) GetResult(ctx context.Context, examID, studentID uint) (models.EvaluationResult, error) {
	return s.results[studentID], nil
}

func (s *stubEvaluator) ListResults(ctx context.Context, examID uint) ([]models.EvaluationResult, error) {
	return nil, nil
}

func batchFixture(percentages map[uint]float64) (*stubExamRepo, *stubSubmissionRepo, *stubEvaluationRepo, *stubEvaluator) {
	exams := &stubExamRepo{exams: map[uint]models.Exam{
		1: {ID: 1, Name: "Finals", QuestionType: models.QuestionTypeCoding},
	}}

	submissions := &stubSubmissionRepo{}
	evaluator := &stubEvaluator{results: map[uint]models.EvaluationResult{}, failFor: map[uint]error{}}
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	id := uint(1)
	for studentID, pct := range percentages {
		submissions.submissions = append(submissions.submissions, models.Submission{
			ID: id, ExamID: 1, StudentID: studentID,
			Student: &models.Student{
				ID:        studentID,
				FirstName: fmt.Sprintf("Student %d", studentID),
				USN:       fmt.Sprintf("1RV21CS%03d", studentID),
			},
			SubmittedAt: base.Add(time.Duration(studentID) * time.Minute),
		})
		evaluator.results[studentID] = models.EvaluationResult{
			ExamID:           1,
			StudentID:        studentID,
			TotalScore:       pct,
			MaxPossibleScore: 100,
			Percentage:       pct,
			Summary:          datatypes.NewJSONType(models.Summary{Attempted: 1}),
		}
		id++
	}

	return exams, submissions, newStubEvaluationRepo(), evaluator
}

func TestBatchServiceIsolatesStudentFailures(t *testing.T) {
	exams, submissions, evaluations, evaluator := batchFixture(map[uint]float64{
		1: 95, 2: 80, 3: 60, 4: 55, 5: 30,
	})
	evaluator.failFor[3] = errors.New("judge unreachable")
	batches := newStubBatchRepo()
	events := &captureEvents{}
	svc := NewBatchService(exams, submissions, evaluations, batches, evaluator, events, zerolog.Nop())

	result, err := svc.EvaluateBatch(context.Background(), 1, nil)
	require.NoError(t, err, "one failing student must not abort the batch")
	require.Len(t, evaluator.calls, 5)

	stats := result.Statistics
	require.Equal(t, 5, stats.TotalSubmissions)
	require.Equal(t, 4, stats.SuccessfulEvaluations)
	require.Equal(t, 1, stats.FailedEvaluations)
	require.Len(t, stats.UserResults, 4)
	require.Len(t, result.Errors, 1, "the failed student must be named, not just counted")
	require.Equal(t, uint(3), result.Errors[0].StudentID)
	require.Equal(t, "Student 3", result.Errors[0].Name)
	require.Equal(t, "1RV21CS003", result.Errors[0].USN)
	require.Contains(t, result.Errors[0].Message, "judge unreachable")
	require.Equal(t, []string{SubjectBatchCompleted}, events.subjects)

	stored, ok := batches.records[1]
	require.True(t, ok, "statistics must be persisted")
	require.Equal(t, 4, stored.Statistics.Data().SuccessfulEvaluations)
	require.Len(t, stored.Statistics.Data().Errors, 1, "the error list rides along in the persisted statistics")
}

func TestBatchServiceStatisticsAggregation(t *testing.T) {
	exams, submissions, evaluations, evaluator := batchFixture(map[uint]float64{
		1: 95, 2: 72, 3: 55, 4: 40,
	})
	batches := newStubBatchRepo()
	svc := NewBatchService(exams, submissions, evaluations, batches, evaluator, &captureEvents{}, zerolog.Nop())

	result, err := svc.EvaluateBatch(context.Background(), 1, nil)
	require.NoError(t, err)

	stats := result.Statistics
	require.Equal(t, 65.5, stats.AverageScore)
	require.Equal(t, 95.0, stats.HighestScore)
	require.Equal(t, 40.0, stats.LowestScore)
	require.Equal(t, 3, stats.PassedStudents)
	require.Equal(t, 1, stats.FailedStudents)
	require.Equal(t, 1, stats.ScoreDistribution.Excellent)
	require.Equal(t, 1, stats.ScoreDistribution.Good)
	require.Equal(t, 1, stats.ScoreDistribution.Average)
	require.Equal(t, 1, stats.ScoreDistribution.Poor)

	require.Len(t, stats.TopPerformers, 4)
	require.Equal(t, uint(1), stats.TopPerformers[0].StudentID)
	require.Equal(t, uint(4), stats.TopPerformers[3].StudentID)
}

func TestBatchServiceTopPerformersCapped(t *testing.T) {
	exams, submissions, evaluations, evaluator := batchFixture(map[uint]float64{
		1: 95, 2: 90, 3: 85, 4: 80, 5: 75, 6: 70, 7: 65,
	})
	svc := NewBatchService(exams, submissions, evaluations, newStubBatchRepo(), evaluator, &captureEvents{}, zerolog.Nop())

	result, err := svc.EvaluateBatch(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Len(t, result.Statistics.TopPerformers, topPerformerCount)
	require.Equal(t, uint(1), result.Statistics.TopPerformers[0].StudentID)
}

func TestBatchServiceStudentFilter(t *testing.T) {
	exams, submissions, evaluations, evaluator := batchFixture(map[uint]float64{
		1: 95, 2: 80, 3: 60,
	})
	svc := NewBatchService(exams, submissions, evaluations, newStubBatchRepo(), evaluator, &captureEvents{}, zerolog.Nop())

	result, err := svc.EvaluateBatch(context.Background(), 1, []uint{1, 3})
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{1, 3}, evaluator.calls)
	require.Equal(t, 2, result.Statistics.TotalSubmissions)
}

func TestBatchServiceNoSubmissions(t *testing.T) {
	exams := &stubExamRepo{exams: map[uint]models.Exam{1: {ID: 1}}}
	svc := NewBatchService(exams, &stubSubmissionRepo{}, newStubEvaluationRepo(), newStubBatchRepo(), &stubEvaluator{}, &captureEvents{}, zerolog.Nop())

	_, err := svc.EvaluateBatch(context.Background(), 1, nil)
	require.ErrorIs(t, err, ErrNoSubmissions)
}

func TestBatchServiceEvaluationStatusSplit(t *testing.T) {
	exams := &stubExamRepo{exams: map[uint]models.Exam{1: {ID: 1}}}
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	submissions := &stubSubmissionRepo{submissions: []models.Submission{
		{ID: 1, ExamID: 1, StudentID: 1, SubmittedAt: base},
		{ID: 2, ExamID: 1, StudentID: 2, SubmittedAt: base.Add(time.Minute)},
		{ID: 3, ExamID: 1, StudentID: 3, SubmittedAt: base.Add(2 * time.Minute)},
	}}
	evaluations := newStubEvaluationRepo()
	require.NoError(t, evaluations.Upsert(context.Background(), &models.EvaluationResult{ExamID: 1, StudentID: 2}))
	svc := NewBatchService(exams, submissions, evaluations, newStubBatchRepo(), &stubEvaluator{}, &captureEvents{}, zerolog.Nop())

	status, err := svc.EvaluationStatus(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 3, status.TotalSubmissions)
	require.Equal(t, []uint{2}, status.Evaluated)
	require.ElementsMatch(t, []uint{1, 3}, status.Pending)
}

func TestBatchServiceAllStatistics(t *testing.T) {
	batches := newStubBatchRepo()
	require.NoError(t, batches.Replace(context.Background(), &models.BatchStatistics{
		ExamID:     2,
		Statistics: datatypes.NewJSONType(models.BatchStats{TotalSubmissions: 4, AverageScore: 61.25, PassedStudents: 3, FailedStudents: 1}),
	}))
	require.NoError(t, batches.Replace(context.Background(), &models.BatchStatistics{
		ExamID:     1,
		Statistics: datatypes.NewJSONType(models.BatchStats{TotalSubmissions: 2, AverageScore: 80, PassedStudents: 2}),
	}))
	svc := NewBatchService(&stubExamRepo{}, &stubSubmissionRepo{}, newStubEvaluationRepo(), batches, &stubEvaluator{}, &captureEvents{}, zerolog.Nop())

	summaries, err := svc.AllStatistics(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, uint(1), summaries[0].ExamID)
	require.Equal(t, 80.0, summaries[0].AverageScore)
	require.Equal(t, uint(2), summaries[1].ExamID)
	require.Equal(t, 4, summaries[1].TotalSubmissions)
	require.Equal(t, 1, summaries[1].FailedStudents)
}

func TestBatchServiceStatisticsNotFound(t *testing.T) {
	exams := &stubExamRepo{exams: map[uint]models.Exam{1: {ID: 1}}}
	svc := NewBatchService(exams, &stubSubmissionRepo{}, newStubEvaluationRepo(), newStubBatchRepo(), &stubEvaluator{}, &captureEvents{}, zerolog.Nop())

	_, err := svc.Statistics(context.Background(), 1)
	require.ErrorIs(t, err, ErrStatisticsNotFound)
}
