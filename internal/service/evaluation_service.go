package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/examhub-go-api/internal/models"
	"github.com/noah-isme/examhub-go-api/internal/observability"
	"github.com/noah-isme/examhub-go-api/internal/repository"
	"github.com/noah-isme/examhub-go-api/pkg/judge"
)

// EvaluationService grades one student's submission for one exam. Coding
// answers are executed against their question's test cases through the
// remote judge; MCQ answers are graded locally. Results persist per
// (exam, student) and re-evaluation overwrites the previous result.
type EvaluationService interface {
	EvaluateSubmission(ctx context.Context, examID, studentID uint) (models.EvaluationResult, error)
	GetResult(ctx context.Context, examID, studentID uint) (models.EvaluationResult, error)
	ListResults(ctx context.Context, examID uint) ([]models.EvaluationResult, error)
}

// ErrExamNotFound indicates the exam does not exist.
var ErrExamNotFound = errors.New("exam not found")

// ErrStudentNotFound indicates the student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// ErrSubmissionNotFound indicates the student never submitted for the exam.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrResultNotFound indicates no evaluation result exists yet.
var ErrResultNotFound = errors.New("evaluation result not found")

// ErrJudgeUnavailable indicates the judge could not be reached for any of
// the submission's coding questions. Nothing is persisted; the evaluation
// is re-runnable once the judge recovers.
var ErrJudgeUnavailable = errors.New("judge unavailable")

type evaluationService struct {
	exams       repository.ExamRepository
	students    repository.StudentRepository
	submissions repository.SubmissionRepository
	evaluations repository.EvaluationRepository
	judge       judge.Client
	events      EventPublisher
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEvaluationService constructs the evaluation service.
func NewEvaluationService(
	examRepo repository.ExamRepository,
	studentRepo repository.StudentRepository,
	submissionRepo repository.SubmissionRepository,
	evaluationRepo repository.EvaluationRepository,
	judgeClient judge.Client,
	events EventPublisher,
	logger zerolog.Logger,
) EvaluationService {
	return &evaluationService{
		exams:       examRepo,
		students:    studentRepo,
		submissions: submissionRepo,
		evaluations: evaluationRepo,
		judge:       judgeClient,
		events:      events,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/examhub-go-api/internal/service/evaluation"),
		now:         time.Now,
	}
}

func (s *evaluationService) EvaluateSubmission(ctx context.Context, examID, studentID uint) (models.EvaluationResult, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.submission")
	span.SetAttributes(
		attribute.Int64("exam.id", int64(examID)),
		attribute.Int64("student.id", int64(studentID)),
	)
	defer span.End()

	start := s.now()

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EvaluationResult{}, ErrExamNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "exam_lookup_failed")
		return models.EvaluationResult{}, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EvaluationResult{}, ErrStudentNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		return models.EvaluationResult{}, err
	}

	submission, err := s.submissions.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EvaluationResult{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return models.EvaluationResult{}, err
	}

	var (
		questionResults []models.QuestionResult
		codingScore     float64
		codingMax       float64
		judged          int
		unreachable     int
	)

	if exam.HasCoding() {
		for _, question := range exam.CodingQuestions {
			result, execErr := s.evaluateQuestion(ctx, submission, question)
			questionResults = append(questionResults, result)
			codingScore += result.Score
			codingMax += question.MaxMarks
			if execErr != nil {
				unreachable++
			}
			if result.Status != models.QuestionStatusNotAttempted && result.TestCasesTotal > 0 {
				judged++
			}
		}
		codingScore = round2(codingScore)

		// A partial outage degrades individual questions; a judge that
		// answered for no question at all must not grade anyone zero.
		if judged > 0 && unreachable == judged {
			span.SetStatus(codes.Error, "judge_unreachable")
			observability.Evaluations().WithLabelValues("single", "failure").Inc()
			return models.EvaluationResult{}, fmt.Errorf("exam %d student %d: %w", examID, studentID, ErrJudgeUnavailable)
		}
	}

	var mcqScore float64
	if exam.HasMCQ() {
		mcqScore, _ = scoreMCQ(exam.MCQQuestions, submission.MCQAnswers)
	}

	// The persisted result covers the coding component only. The combined
	// total lives on the submission, which stays authoritative for ranking.
	result := models.EvaluationResult{
		ExamID:           examID,
		StudentID:        studentID,
		StudentName:      student.FullName(),
		USN:              student.USN,
		TotalScore:       codingScore,
		MaxPossibleScore: codingMax,
		Percentage:       percentage(codingScore, codingMax),
		SubmittedAt:      submission.SubmittedAt,
		EvaluatedAt:      s.now(),
		Questions:        questionResults,
	}
	result.Summary = summarize(questionResults)

	if err := s.evaluations.Upsert(ctx, &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result_persist_failed")
		observability.Evaluations().WithLabelValues("single", "failure").Inc()
		return models.EvaluationResult{}, fmt.Errorf("failed to persist evaluation result: %w", err)
	}

	submission.Score = round2(mcqScore + codingScore)
	submission.MCQScore = mcqScore
	submission.CodingScore = codingScore
	if err := s.submissions.Update(ctx, &submission); err != nil {
		// The evaluation result is already durable; a stale submission score
		// is recoverable on the next run.
		s.logger.Warn().Err(err).
			Uint("exam_id", examID).
			Uint("student_id", studentID).
			Msg("failed to back-fill submission scores")
	}

	duration := s.now().Sub(start)
	observability.Evaluations().WithLabelValues("single", "success").Inc()
	observability.EvaluationDuration().WithLabelValues("single").Observe(duration.Seconds())

	s.events.Publish(SubjectSubmissionEvaluated, SubmissionEvaluatedEvent{
		ExamID:      examID,
		StudentID:   studentID,
		TotalScore:  result.TotalScore,
		Percentage:  result.Percentage,
		EvaluatedAt: result.EvaluatedAt,
	})

	s.logger.Info().
		Uint("exam_id", examID).
		Uint("student_id", studentID).
		Float64("total_score", result.TotalScore).
		Float64("percentage", result.Percentage).
		Dur("duration", duration).
		Msg("submission evaluated")

	return result, nil
}

// evaluateQuestion grades one coding question. Every failure mode (missing
// answer, empty test cases, judge outages) is folded into the question
// result so a bad question cannot sink the rest of the submission. The
// returned error is non-nil only when the judge itself was unreachable,
// letting the caller tell a broken judge apart from broken code.
func (s *evaluationService) evaluateQuestion(ctx context.Context, submission models.Submission, question models.CodingQuestion) (models.QuestionResult, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.question")
	span.SetAttributes(attribute.Int64("question.id", int64(question.ID)))
	defer span.End()

	result := models.QuestionResult{
		QuestionID:     question.ID,
		Title:          question.Title,
		MaxScore:       question.MaxMarks,
		TestCasesTotal: len(question.TestCases),
		ExecutionDetails: models.ExecutionDetails{
			Status: models.ExecutionStatusNotExecuted,
		},
	}

	answer, ok := submission.CodingAnswerFor(question.ID)
	if !ok || strings.TrimSpace(answer.Code) == "" {
		result.Status = models.QuestionStatusNotAttempted
		result.ErrorSummary = "No code submitted"
		return result, nil
	}

	if len(question.TestCases) == 0 {
		// A question without test cases cannot be graded. Never invent
		// defaults; surface the configuration problem instead.
		s.logger.Error().
			Uint("question_id", question.ID).
			Msg("coding question has no test cases")
		result.Status = models.QuestionStatusIncorrect
		result.ExecutionDetails.Status = models.ExecutionStatusExecutionError
		result.ErrorSummary = "Question has no test cases configured"
		return result, nil
	}

	result.ExecutionDetails.Status = models.ExecutionStatusExecuted

	var execErr error
	for i, testCase := range question.TestCases {
		caseResult := models.TestCaseResult{
			Index:          i + 1,
			Input:          testCase.Input,
			ExpectedOutput: testCase.ExpectedOutput,
		}

		outcome, err := s.judge.Execute(ctx, answer.Code, answer.LanguageID, testCase.Input)
		if err != nil {
			span.RecordError(err)
			s.logger.Error().Err(err).
				Uint("question_id", question.ID).
				Int("test_case", i+1).
				Msg("judge execution failed")
			result.ExecutionDetails.Status = models.ExecutionStatusExecutionError
			result.ErrorSummary = "Code execution failed: " + err.Error()
			failRemaining(&result, question.TestCases, i, result.ErrorSummary)
			execErr = err
			break
		}

		if outcome.Kind == judge.OutcomeCompileError {
			// Compilation is independent of input; one failure settles the
			// whole question without burning more judge calls.
			result.ExecutionDetails.Status = models.ExecutionStatusCompilationError
			result.ExecutionDetails.CompilationError = outcome.Diagnostic()
			result.ErrorSummary = outcome.Diagnostic()
			failRemaining(&result, question.TestCases, i, outcome.Diagnostic())
			break
		}

		caseResult.ExecutionTime = outcome.TimeSec
		caseResult.MemoryUsage = outcome.Memory
		result.ExecutionDetails.ExecutionTime += outcome.TimeSec
		if outcome.Memory > result.ExecutionDetails.MemoryUsage {
			result.ExecutionDetails.MemoryUsage = outcome.Memory
		}

		if outcome.Failed() {
			diagnostic := outcome.Diagnostic()
			caseResult.Error = diagnostic
			if result.ExecutionDetails.RuntimeError == "" {
				result.ExecutionDetails.Status = models.ExecutionStatusRuntimeError
				result.ExecutionDetails.RuntimeError = diagnostic
			}
		} else {
			caseResult.ActualOutput = outcome.Stdout
			caseResult.Passed = OutputsMatch(testCase.ExpectedOutput, outcome.Stdout)
		}

		if caseResult.Passed {
			result.TestCasesPassed++
			observability.TestCasesGraded().WithLabelValues("pass").Inc()
		} else {
			result.FailedTestCases = append(result.FailedTestCases, caseResult)
			observability.TestCasesGraded().WithLabelValues("fail").Inc()
		}
		result.TestCases = append(result.TestCases, caseResult)
	}

	result.Score = round2(question.MaxMarks * float64(result.TestCasesPassed) / float64(len(question.TestCases)))

	switch {
	case result.TestCasesPassed == len(question.TestCases):
		result.Status = models.QuestionStatusCorrect
	case result.TestCasesPassed > 0:
		result.Status = models.QuestionStatusPartial
	default:
		result.Status = models.QuestionStatusIncorrect
	}

	if result.ErrorSummary == "" && result.ExecutionDetails.RuntimeError != "" {
		result.ErrorSummary = result.ExecutionDetails.RuntimeError
	}

	span.SetAttributes(
		attribute.Int("test_cases.passed", result.TestCasesPassed),
		attribute.Int("test_cases.total", result.TestCasesTotal),
	)

	return result, execErr
}

// failRemaining marks every test case from index i onward as failed with one
// shared diagnostic. A compile error or judge outage settles the question
// before the remaining cases could run, but each still gets its entry in the
// per-case detail.
func failRemaining(result *models.QuestionResult, testCases []models.TestCase, from int, diagnostic string) {
	for i := from; i < len(testCases); i++ {
		caseResult := models.TestCaseResult{
			Index:          i + 1,
			Input:          testCases[i].Input,
			ExpectedOutput: testCases[i].ExpectedOutput,
			Error:          diagnostic,
		}
		result.FailedTestCases = append(result.FailedTestCases, caseResult)
		result.TestCases = append(result.TestCases, caseResult)
	}
}

func (s *evaluationService) GetResult(ctx context.Context, examID, studentID uint) (models.EvaluationResult, error) {
	result, err := s.evaluations.GetByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EvaluationResult{}, ErrResultNotFound
		}
		return models.EvaluationResult{}, err
	}

	return result, nil
}

func (s *evaluationService) ListResults(ctx context.Context, examID uint) ([]models.EvaluationResult, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	return s.evaluations.ListByExam(ctx, examID)
}

// summarize folds question results into the evaluation summary block.
func summarize(questions []models.QuestionResult) datatypes.JSONType[models.Summary] {
	var summary models.Summary
	summary.TotalQuestions = len(questions)

	for _, q := range questions {
		if q.Status != models.QuestionStatusNotAttempted {
			summary.Attempted++
		}
		switch q.Status {
		case models.QuestionStatusCorrect:
			summary.Correct++
		case models.QuestionStatusPartial:
			summary.Partial++
		case models.QuestionStatusIncorrect:
			summary.Incorrect++
		}
		summary.TotalTestCases += q.TestCasesTotal
		summary.PassedTestCases += q.TestCasesPassed
	}

	return datatypes.NewJSONType(summary)
}
