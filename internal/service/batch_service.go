package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/examhub-go-api/internal/dto"
	"github.com/noah-isme/examhub-go-api/internal/models"
	"github.com/noah-isme/examhub-go-api/internal/observability"
	"github.com/noah-isme/examhub-go-api/internal/repository"
)

// passThreshold is the percentage at or above which a student counts as passed.
const passThreshold = 50.0

// topPerformerCount caps the performers list embedded in batch statistics.
const topPerformerCount = 5

// BatchService evaluates every submission of an exam in one run and derives
// aggregate statistics. Students are processed sequentially to bound load on
// the shared judge; one student's failure never aborts the rest of the run.
type BatchService interface {
	EvaluateBatch(ctx context.Context, examID uint, studentIDs []uint) (dto.BatchResultResponse, error)
	EvaluationStatus(ctx context.Context, examID uint) (dto.EvaluationStatusResponse, error)
	Statistics(ctx context.Context, examID uint) (models.BatchStats, error)
	AllStatistics(ctx context.Context) ([]dto.ExamStatisticsSummary, error)
}

// ErrNoSubmissions indicates the exam has nothing to evaluate.
var ErrNoSubmissions = errors.New("no submissions for exam")

// ErrStatisticsNotFound indicates no batch run has been recorded for the exam.
var ErrStatisticsNotFound = errors.New("batch statistics not found")

type batchService struct {
	exams       repository.ExamRepository
	submissions repository.SubmissionRepository
	evaluations repository.EvaluationRepository
	batches     repository.BatchRepository
	evaluator   EvaluationService
	events      EventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewBatchService constructs the batch evaluation service.
func NewBatchService(
	examRepo repository.ExamRepository,
	submissionRepo repository.SubmissionRepository,
	evaluationRepo repository.EvaluationRepository,
	batchRepo repository.BatchRepository,
	evaluator EvaluationService,
	events EventPublisher,
	logger zerolog.Logger,
) BatchService {
	return &batchService{
		exams:       examRepo,
		submissions: submissionRepo,
		evaluations: evaluationRepo,
		batches:     batchRepo,
		evaluator:   evaluator,
		events:      events,
		logger:      logger.With().Str("component", "batch_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/examhub-go-api/internal/service/batch"),
		now:         time.Now,
	}
}

func (s *batchService) EvaluateBatch(ctx context.Context, examID uint, studentIDs []uint) (dto.BatchResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.batch")
	span.SetAttributes(attribute.Int64("exam.id", int64(examID)))
	defer span.End()

	start := s.now()

	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BatchResultResponse{}, ErrExamNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "exam_lookup_failed")
		return dto.BatchResultResponse{}, err
	}

	submissions, err := s.submissions.ListByExam(ctx, examID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_list_failed")
		return dto.BatchResultResponse{}, err
	}

	if len(studentIDs) > 0 {
		wanted := make(map[uint]struct{}, len(studentIDs))
		for _, id := range studentIDs {
			wanted[id] = struct{}{}
		}
		filtered := submissions[:0]
		for _, submission := range submissions {
			if _, ok := wanted[submission.StudentID]; ok {
				filtered = append(filtered, submission)
			}
		}
		submissions = filtered
	}

	if len(submissions) == 0 {
		return dto.BatchResultResponse{}, ErrNoSubmissions
	}

	stats := models.BatchStats{TotalSubmissions: len(submissions)}
	var results []models.EvaluationResult

	for _, submission := range submissions {
		result, err := s.evaluator.EvaluateSubmission(ctx, examID, submission.StudentID)
		if err != nil {
			entry := models.BatchError{StudentID: submission.StudentID, Message: err.Error()}
			if submission.Student != nil {
				entry.Name = submission.Student.FullName()
				entry.USN = submission.Student.USN
			}
			stats.Errors = append(stats.Errors, entry)
			stats.FailedEvaluations++
			observability.BatchStudents().WithLabelValues("failure").Inc()
			s.logger.Error().Err(err).
				Uint("exam_id", examID).
				Uint("student_id", submission.StudentID).
				Msg("batch evaluation failed for student")
			continue
		}

		stats.SuccessfulEvaluations++
		observability.BatchStudents().WithLabelValues("success").Inc()
		results = append(results, result)
	}

	s.aggregate(&stats, results)

	record := models.BatchStatistics{
		ExamID:     examID,
		Statistics: datatypes.NewJSONType(stats),
	}
	if err := s.batches.Replace(ctx, &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "statistics_persist_failed")
		return dto.BatchResultResponse{}, err
	}

	finished := s.now()
	observability.Evaluations().WithLabelValues("batch", "success").Inc()
	observability.EvaluationDuration().WithLabelValues("batch").Observe(finished.Sub(start).Seconds())

	s.events.Publish(SubjectBatchCompleted, BatchCompletedEvent{
		ExamID:     examID,
		Evaluated:  stats.SuccessfulEvaluations,
		Failed:     stats.FailedEvaluations,
		FinishedAt: finished,
	})

	s.logger.Info().
		Uint("exam_id", examID).
		Int("evaluated", stats.SuccessfulEvaluations).
		Int("failed", stats.FailedEvaluations).
		Dur("duration", finished.Sub(start)).
		Msg("batch evaluation completed")

	return dto.BatchResultResponse{ExamID: examID, Statistics: stats, Errors: stats.Errors, FinishedAt: finished}, nil
}

// aggregate derives the statistical block from the successful results.
func (s *batchService) aggregate(stats *models.BatchStats, results []models.EvaluationResult) {
	if len(results) == 0 {
		return
	}

	var scoreSum, percentageSum float64
	stats.LowestScore = results[0].TotalScore

	for _, result := range results {
		scoreSum += result.TotalScore
		percentageSum += result.Percentage

		if result.TotalScore > stats.HighestScore {
			stats.HighestScore = result.TotalScore
		}
		if result.TotalScore < stats.LowestScore {
			stats.LowestScore = result.TotalScore
		}

		if result.Percentage >= passThreshold {
			stats.PassedStudents++
		} else {
			stats.FailedStudents++
		}

		switch {
		case result.Percentage >= 90:
			stats.ScoreDistribution.Excellent++
		case result.Percentage >= 70:
			stats.ScoreDistribution.Good++
		case result.Percentage >= 50:
			stats.ScoreDistribution.Average++
		default:
			stats.ScoreDistribution.Poor++
		}

		summary := result.Summary.Data()
		stats.UserResults = append(stats.UserResults, models.UserResult{
			StudentID:  result.StudentID,
			Name:       result.StudentName,
			USN:        result.USN,
			Score:      result.TotalScore,
			MaxScore:   result.MaxPossibleScore,
			Percentage: result.Percentage,
			Attempted:  summary.Attempted,
			Correct:    summary.Correct,
			Partial:    summary.Partial,
			Incorrect:  summary.Incorrect,
		})
	}

	stats.AverageScore = round2(scoreSum / float64(len(results)))
	stats.AveragePercentage = round2(percentageSum / float64(len(results)))

	performers := make([]models.UserResult, len(stats.UserResults))
	copy(performers, stats.UserResults)
	sort.SliceStable(performers, func(i, j int) bool {
		return performers[i].Percentage > performers[j].Percentage
	})
	if len(performers) > topPerformerCount {
		performers = performers[:topPerformerCount]
	}
	stats.TopPerformers = performers
}

func (s *batchService) EvaluationStatus(ctx context.Context, examID uint) (dto.EvaluationStatusResponse, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationStatusResponse{}, ErrExamNotFound
		}
		return dto.EvaluationStatusResponse{}, err
	}

	submissions, err := s.submissions.ListByExam(ctx, examID)
	if err != nil {
		return dto.EvaluationStatusResponse{}, err
	}

	results, err := s.evaluations.ListByExam(ctx, examID)
	if err != nil {
		return dto.EvaluationStatusResponse{}, err
	}

	evaluated := make(map[uint]struct{}, len(results))
	for _, result := range results {
		evaluated[result.StudentID] = struct{}{}
	}

	status := dto.EvaluationStatusResponse{
		ExamID:           examID,
		TotalSubmissions: len(submissions),
		Evaluated:        make([]uint, 0, len(results)),
		Pending:          make([]uint, 0),
	}

	for _, submission := range submissions {
		if _, ok := evaluated[submission.StudentID]; ok {
			status.Evaluated = append(status.Evaluated, submission.StudentID)
		} else {
			status.Pending = append(status.Pending, submission.StudentID)
		}
	}

	return status, nil
}

func (s *batchService) Statistics(ctx context.Context, examID uint) (models.BatchStats, error) {
	record, err := s.batches.GetByExam(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.BatchStats{}, ErrStatisticsNotFound
		}
		return models.BatchStats{}, err
	}

	return record.Statistics.Data(), nil
}

func (s *batchService) AllStatistics(ctx context.Context) ([]dto.ExamStatisticsSummary, error) {
	records, err := s.batches.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.ExamStatisticsSummary, 0, len(records))
	for _, record := range records {
		stats := record.Statistics.Data()
		summaries = append(summaries, dto.ExamStatisticsSummary{
			ExamID:            record.ExamID,
			TotalSubmissions:  stats.TotalSubmissions,
			AverageScore:      stats.AverageScore,
			AveragePercentage: stats.AveragePercentage,
			HighestScore:      stats.HighestScore,
			LowestScore:       stats.LowestScore,
			PassedStudents:    stats.PassedStudents,
			FailedStudents:    stats.FailedStudents,
		})
	}

	return summaries, nil
}
