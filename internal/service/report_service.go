package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/examhub-go-api/internal/dto"
	"github.com/noah-isme/examhub-go-api/internal/models"
	"github.com/noah-isme/examhub-go-api/internal/repository"
)

// integrityViolationLimit is the violation count at which an attempt is
// flagged. Fixed policy, not per-exam configurable.
const integrityViolationLimit = 3

// Integrity verdicts attached to reports.
const (
	IntegrityAcceptable   = "Acceptable"
	IntegrityUnacceptable = "Unacceptable"
)

// rankingTopCount caps the performers list embedded in ranking payloads.
const rankingTopCount = 3

// ReportService assembles per-student reports and exam-wide rankings from
// persisted evaluation output. One aggregator covers MCQ, coding, and mixed
// exams; the question type selects which score components are included.
type ReportService interface {
	BuildReport(ctx context.Context, submissionID uint) (dto.ReportResponse, error)
	BuildRanking(ctx context.Context, examID uint) (dto.RankingResponse, error)
}

type reportService struct {
	exams       repository.ExamRepository
	submissions repository.SubmissionRepository
	evaluations repository.EvaluationRepository
	integrity   repository.IntegrityRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewReportService constructs the report service. The redis client may be
// nil; rankings are then rebuilt on every call.
func NewReportService(
	examRepo repository.ExamRepository,
	submissionRepo repository.SubmissionRepository,
	evaluationRepo repository.EvaluationRepository,
	integrityRepo repository.IntegrityRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		exams:       examRepo,
		submissions: submissionRepo,
		evaluations: evaluationRepo,
		integrity:   integrityRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "report_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/examhub-go-api/internal/service/report"),
		now:         time.Now,
	}
}

func (s *reportService) BuildReport(ctx context.Context, submissionID uint) (dto.ReportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "report.build")
	span.SetAttributes(attribute.Int64("submission.id", int64(submissionID)))
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReportResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.ReportResponse{}, err
	}

	if submission.Student == nil {
		// The referenced student was deleted after submitting.
		s.logger.Warn().Uint("submission_id", submissionID).Msg("submission references deleted student")
		return dto.ReportResponse{}, ErrStudentNotFound
	}

	exam, err := s.exams.GetByID(ctx, submission.ExamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReportResponse{}, ErrExamNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "exam_lookup_failed")
		return dto.ReportResponse{}, err
	}

	report := dto.ReportResponse{
		SubmissionID: submission.ID,
		Student: dto.ReportStudent{
			ID:    submission.Student.ID,
			Name:  submission.Student.FullName(),
			USN:   submission.Student.USN,
			Email: submission.Student.Email,
		},
		Exam: dto.ReportExam{
			ID:              exam.ID,
			Name:            exam.Name,
			QuestionType:    exam.QuestionType,
			StartTime:       exam.StartTime,
			DurationMinutes: exam.DurationMinutes,
		},
		SubmittedAt: submission.SubmittedAt,
	}

	if exam.HasMCQ() {
		report.MCQQuestions = mcqBreakdown(exam.MCQQuestions, submission.MCQAnswers)
		mcqScore, mcqMax := scoreMCQ(exam.MCQQuestions, submission.MCQAnswers)
		report.Scores.MCQScore = mcqScore
		report.Scores.MaxScore += mcqMax
	}

	if exam.HasCoding() {
		result, err := s.evaluations.GetByExamAndStudent(ctx, submission.ExamID, submission.StudentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.ReportResponse{}, ErrResultNotFound
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "result_lookup_failed")
			return dto.ReportResponse{}, err
		}
		report.CodingQuestions = result.Questions
		report.Scores.CodingScore = result.TotalScore
		report.Scores.MaxScore += result.MaxPossibleScore
	}

	report.Scores.TotalScore = round2(report.Scores.MCQScore + report.Scores.CodingScore)
	report.Scores.Percentage = percentage(report.Scores.TotalScore, report.Scores.MaxScore)

	ranking, err := s.BuildRanking(ctx, exam.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ranking_failed")
		return dto.ReportResponse{}, err
	}
	report.TotalParticipants = len(ranking.Entries)
	for _, entry := range ranking.Entries {
		if entry.StudentID == submission.StudentID {
			rank := entry.Rank
			report.Rank = &rank
			break
		}
	}

	if record, err := s.integrity.GetByExamAndStudent(ctx, submission.ExamID, submission.StudentID); err == nil {
		report.Integrity = integritySummary(record)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("failed to load integrity record")
	}

	if exam.DurationMinutes > 0 && !exam.StartTime.IsZero() {
		report.TimeAnalysis = formatTimeAnalysis(submission.SubmittedAt.Sub(exam.StartTime), exam.DurationMinutes)
	}

	return report, nil
}

func (s *reportService) BuildRanking(ctx context.Context, examID uint) (dto.RankingResponse, error) {
	ctx, span := s.tracer.Start(ctx, "report.ranking")
	span.SetAttributes(attribute.Int64("exam.id", int64(examID)))
	defer span.End()

	cacheKey := fmt.Sprintf("ranking:exam:%d", examID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var ranking dto.RankingResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &ranking); unmarshalErr == nil {
				s.logger.Debug().Uint("exam_id", examID).Msg("ranking cache hit")
				return ranking, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read ranking cache")
		}
	}

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RankingResponse{}, ErrExamNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "exam_lookup_failed")
		return dto.RankingResponse{}, err
	}

	submissions, err := s.submissions.ListByExam(ctx, examID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_list_failed")
		return dto.RankingResponse{}, err
	}

	results, err := s.evaluations.ListByExam(ctx, examID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result_list_failed")
		return dto.RankingResponse{}, err
	}

	resultsByStudent := make(map[uint]models.EvaluationResult, len(results))
	for _, result := range results {
		resultsByStudent[result.StudentID] = result
	}

	ranking := dto.RankingResponse{
		ExamID:       exam.ID,
		ExamName:     exam.Name,
		QuestionType: exam.QuestionType,
		GeneratedAt:  s.now(),
	}

	for _, submission := range submissions {
		if submission.Student == nil {
			ranking.Excluded++
			s.logger.Warn().
				Uint("submission_id", submission.ID).
				Uint("exam_id", examID).
				Msg("excluding orphaned submission from ranking")
			continue
		}

		score, max := s.submissionScore(exam, submission, resultsByStudent)
		ranking.Entries = append(ranking.Entries, dto.RankingEntry{
			StudentID:   submission.StudentID,
			Name:        submission.Student.FullName(),
			USN:         submission.Student.USN,
			Score:       score,
			Percentage:  percentage(score, max),
			SubmittedAt: submission.SubmittedAt,
		})
	}

	sort.SliceStable(ranking.Entries, func(i, j int) bool {
		if ranking.Entries[i].Score != ranking.Entries[j].Score {
			return ranking.Entries[i].Score > ranking.Entries[j].Score
		}
		return ranking.Entries[i].SubmittedAt.Before(ranking.Entries[j].SubmittedAt)
	})
	for i := range ranking.Entries {
		ranking.Entries[i].Rank = i + 1
	}

	top := rankingTopCount
	if top > len(ranking.Entries) {
		top = len(ranking.Entries)
	}
	ranking.TopPerformers = append([]dto.RankingEntry(nil), ranking.Entries[:top]...)
	ranking.TotalSubmissions = len(ranking.Entries)

	if s.cache != nil {
		if payload, err := json.Marshal(ranking); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store ranking cache")
			}
		}
	}

	return ranking, nil
}

// submissionScore computes one student's total for ranking, combining the
// locally graded MCQ component with the persisted coding evaluation.
func (s *reportService) submissionScore(exam models.Exam, submission models.Submission, results map[uint]models.EvaluationResult) (score, max float64) {
	if exam.HasMCQ() {
		mcqScore, mcqMax := scoreMCQ(exam.MCQQuestions, submission.MCQAnswers)
		score += mcqScore
		max += mcqMax
	}

	if exam.HasCoding() {
		if result, ok := results[submission.StudentID]; ok {
			score += result.TotalScore
			max += result.MaxPossibleScore
		} else {
			// Not yet evaluated; the coding component counts as zero but its
			// marks still weigh into the percentage.
			for _, question := range exam.CodingQuestions {
				max += question.MaxMarks
			}
		}
	}

	return round2(score), max
}

// mcqBreakdown grades each MCQ answer against the question bank for report
// rendering. Scoring follows scoreMCQ exactly; this adds the per-question view.
func mcqBreakdown(questions []models.MCQQuestion, answers []models.MCQAnswer) []dto.MCQReportEntry {
	selected := make(map[uint]string, len(answers))
	for _, answer := range answers {
		selected[answer.QuestionID] = answer.SelectedOption
	}

	entries := make([]dto.MCQReportEntry, 0, len(questions))
	for _, question := range questions {
		entry := dto.MCQReportEntry{
			QuestionID:     question.ID,
			Question:       question.Question,
			SelectedOption: selected[question.ID],
			CorrectAnswer:  question.CorrectAnswer,
			MaxMarks:       question.Marks,
		}
		if answered, ok := selected[question.ID]; ok && mcqAnswerCorrect(answered, question.CorrectAnswer) {
			entry.Correct = true
			entry.MarksAwarded = question.Marks
		}
		entries = append(entries, entry)
	}

	return entries
}

func integritySummary(record models.IntegrityRecord) *dto.IntegritySummary {
	status := IntegrityAcceptable
	if record.Violations() >= integrityViolationLimit {
		status = IntegrityUnacceptable
	}

	return &dto.IntegritySummary{
		Status:              status,
		Violations:          record.Violations(),
		TabChanges:          record.TabChanges,
		MouseOuts:           record.MouseOuts,
		FullscreenExits:     record.FullscreenExits,
		CopyAttempts:        record.CopyAttempts,
		PasteAttempts:       record.PasteAttempts,
		FocusChanges:        record.FocusChanges,
		ScreenConfiguration: record.ScreenConfiguration,
	}
}

// formatTimeAnalysis renders time-on-task as "H hr M min S sec of D min used".
func formatTimeAnalysis(used time.Duration, durationMinutes int) string {
	if used < 0 {
		used = 0
	}

	hours := int(used.Hours())
	minutes := int(used.Minutes()) % 60
	seconds := int(used.Seconds()) % 60

	return fmt.Sprintf("%d hr %d min %d sec of %d min used", hours, minutes, seconds, durationMinutes)
}
