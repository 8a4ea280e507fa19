package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/examhub-go-api/internal/models"
)

func reportFixture() (*stubExamRepo, *stubSubmissionRepo, *stubEvaluationRepo, *stubIntegrityRepo) {
	exams := &stubExamRepo{exams: map[uint]models.Exam{
		1: {
			ID:              1,
			Name:            "Algorithms Final",
			QuestionType:    models.QuestionTypeCoding,
			StartTime:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			DurationMinutes: 90,
			CodingQuestions: []models.CodingQuestion{codingQuestion(1, 100, models.TestCase{Input: "1", ExpectedOutput: "1"})},
		},
	}}

	return exams, &stubSubmissionRepo{}, newStubEvaluationRepo(), &stubIntegrityRepo{records: map[integrityKey]models.IntegrityRecord{}}
}

func addRankedStudent(submissions *stubSubmissionRepo, evaluations *stubEvaluationRepo, id uint, name string, score float64, submittedAt time.Time) {
	submissions.submissions = append(submissions.submissions, models.Submission{
		ID: id, ExamID: 1, StudentID: id,
		SubmittedAt: submittedAt,
		Student:     &models.Student{ID: id, FirstName: name, USN: "USN" + name},
	})
	evaluations.rows[evaluationKey(1, id)] = models.EvaluationResult{
		ExamID: 1, StudentID: id, StudentName: name,
		TotalScore: score, MaxPossibleScore: 100, Percentage: score,
	}
}

func TestReportServiceRankingTieBreak(t *testing.T) {
	exams, submissions, evaluations, integrity := reportFixture()
	base := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	addRankedStudent(submissions, evaluations, 1, "Late", 80, base.Add(10*time.Minute))
	addRankedStudent(submissions, evaluations, 2, "Early", 80, base)
	addRankedStudent(submissions, evaluations, 3, "Best", 95, base.Add(20*time.Minute))

	svc := NewReportService(exams, submissions, evaluations, integrity, nil, time.Minute, zerolog.Nop())

	ranking, err := svc.BuildRanking(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, ranking.Entries, 3)
	require.Equal(t, uint(3), ranking.Entries[0].StudentID)
	require.Equal(t, uint(2), ranking.Entries[1].StudentID, "earlier submission wins the tie")
	require.Equal(t, uint(1), ranking.Entries[2].StudentID)
	require.Equal(t, 1, ranking.Entries[0].Rank)
	require.Equal(t, 3, ranking.Entries[2].Rank)
	require.Len(t, ranking.TopPerformers, rankingTopCount)
}

func TestReportServiceRankingExcludesOrphans(t *testing.T) {
	exams, submissions, evaluations, integrity := reportFixture()
	base := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	addRankedStudent(submissions, evaluations, 1, "Kept", 70, base)
	submissions.submissions = append(submissions.submissions, models.Submission{
		ID: 99, ExamID: 1, StudentID: 99, SubmittedAt: base, Student: nil,
	})

	svc := NewReportService(exams, submissions, evaluations, integrity, nil, time.Minute, zerolog.Nop())

	ranking, err := svc.BuildRanking(context.Background(), 1)
	require.NoError(t, err, "orphaned submissions must not crash the ranking")
	require.Len(t, ranking.Entries, 1)
	require.Equal(t, 1, ranking.Excluded)
	require.Equal(t, uint(1), ranking.Entries[0].StudentID)
}

func TestReportServiceRankingCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	exams, submissions, evaluations, integrity := reportFixture()
	addRankedStudent(submissions, evaluations, 1, "Solo", 70, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC))

	svc := NewReportService(exams, submissions, evaluations, integrity, cache, time.Minute, zerolog.Nop())

	first, err := svc.BuildRanking(context.Background(), 1)
	require.NoError(t, err)

	// Mutate the backing store; the cached payload should still be served.
	addRankedStudent(submissions, evaluations, 2, "NewKid", 90, time.Date(2026, 3, 10, 9, 45, 0, 0, time.UTC))

	second, err := svc.BuildRanking(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, len(first.Entries), len(second.Entries))

	mr.FastForward(2 * time.Minute)

	third, err := svc.BuildRanking(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, third.Entries, 2, "expired cache must trigger a rebuild")
}

func TestReportServiceBuildReportCoding(t *testing.T) {
	exams, submissions, evaluations, integrity := reportFixture()
	base := time.Date(2026, 3, 10, 10, 2, 5, 0, time.UTC)
	addRankedStudent(submissions, evaluations, 1, "Winner", 90, base)
	addRankedStudent(submissions, evaluations, 2, "Runner", 70, base)
	evaluations.rows[evaluationKey(1, 2)] = models.EvaluationResult{
		ExamID: 1, StudentID: 2, TotalScore: 70, MaxPossibleScore: 100, Percentage: 70,
		Questions: datatypes.JSONSlice[models.QuestionResult]{{QuestionID: 1, Score: 70, MaxScore: 100}},
	}
	integrity.records[integrityKey{1, 2}] = models.IntegrityRecord{
		ExamID: 1, StudentID: 2, TabChanges: 2, CopyAttempts: 1,
	}

	svc := NewReportService(exams, submissions, evaluations, integrity, nil, time.Minute, zerolog.Nop())

	report, err := svc.BuildReport(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, "Runner", report.Student.Name)
	require.Equal(t, 70.0, report.Scores.TotalScore)
	require.Equal(t, 70.0, report.Scores.Percentage)
	require.Len(t, report.CodingQuestions, 1)
	require.NotNil(t, report.Rank)
	require.Equal(t, 2, *report.Rank)
	require.Equal(t, 2, report.TotalParticipants)

	require.NotNil(t, report.Integrity)
	require.Equal(t, 3, report.Integrity.Violations)
	require.Equal(t, IntegrityUnacceptable, report.Integrity.Status)

	require.Equal(t, "1 hr 2 min 5 sec of 90 min used", report.TimeAnalysis)
}

func TestReportServiceBuildReportMixed(t *testing.T) {
	exams, submissions, evaluations, integrity := reportFixture()
	exam := exams.exams[1]
	exam.QuestionType = models.QuestionTypeMixed
	exam.MCQQuestions = []models.MCQQuestion{
		{ID: 10, ExamID: 1, Question: "2+2?", CorrectAnswer: "4", Marks: 5},
		{ID: 11, ExamID: 1, Question: "3*3?", CorrectAnswer: "9", Marks: 5},
	}
	exams.exams[1] = exam

	submissions.submissions = append(submissions.submissions, models.Submission{
		ID: 1, ExamID: 1, StudentID: 1,
		MCQAnswers:  []models.MCQAnswer{{QuestionID: 10, SelectedOption: "4"}, {QuestionID: 11, SelectedOption: "6"}},
		SubmittedAt: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		Student:     &models.Student{ID: 1, FirstName: "Mixed", USN: "USN1"},
	})
	evaluations.rows[evaluationKey(1, 1)] = models.EvaluationResult{
		ExamID: 1, StudentID: 1, TotalScore: 15, MaxPossibleScore: 20, Percentage: 75,
	}

	svc := NewReportService(exams, submissions, evaluations, integrity, nil, time.Minute, zerolog.Nop())

	report, err := svc.BuildReport(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 5.0, report.Scores.MCQScore)
	require.Equal(t, 15.0, report.Scores.CodingScore)
	require.Equal(t, 20.0, report.Scores.TotalScore)
	require.Equal(t, 30.0, report.Scores.MaxScore)
	require.Len(t, report.MCQQuestions, 2)
	require.True(t, report.MCQQuestions[0].Correct)
	require.False(t, report.MCQQuestions[1].Correct)
	require.Nil(t, report.Integrity)
}

func TestReportServiceOrphanReport(t *testing.T) {
	exams, submissions, evaluations, integrity := reportFixture()
	submissions.submissions = append(submissions.submissions, models.Submission{
		ID: 1, ExamID: 1, StudentID: 1, Student: nil,
	})

	svc := NewReportService(exams, submissions, evaluations, integrity, nil, time.Minute, zerolog.Nop())

	_, err := svc.BuildReport(context.Background(), 1)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestFormatTimeAnalysis(t *testing.T) {
	require.Equal(t, "0 hr 45 min 30 sec of 60 min used", formatTimeAnalysis(45*time.Minute+30*time.Second, 60))
	require.Equal(t, "1 hr 0 min 0 sec of 90 min used", formatTimeAnalysis(time.Hour, 90))
	require.Equal(t, "0 hr 0 min 0 sec of 60 min used", formatTimeAnalysis(-time.Minute, 60))
}
