package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionStatus enumerates the outcome classes for one evaluated question.
const (
	QuestionStatusCorrect      = "correct"
	QuestionStatusPartial      = "partial"
	QuestionStatusIncorrect    = "incorrect"
	QuestionStatusNotAttempted = "not_attempted"
)

// ExecutionStatus enumerates the execution-level outcome of a question run.
const (
	ExecutionStatusExecuted         = "executed"
	ExecutionStatusCompilationError = "compilation_error"
	ExecutionStatusRuntimeError     = "runtime_error"
	ExecutionStatusExecutionError   = "execution_error"
	ExecutionStatusNotExecuted      = "not_executed"
)

// TestCaseResult records the grading outcome of one test case.
type TestCaseResult struct {
	Index          int     `json:"index"`
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expected_output"`
	ActualOutput   string  `json:"actual_output"`
	Passed         bool    `json:"passed"`
	Error          string  `json:"error,omitempty"`
	ExecutionTime  float64 `json:"execution_time"`
	MemoryUsage    int     `json:"memory_usage"`
}

// ExecutionDetails summarizes how the submitted code behaved across a question's test cases.
type ExecutionDetails struct {
	Status           string  `json:"status"`
	CompilationError string  `json:"compilation_error,omitempty"`
	RuntimeError     string  `json:"runtime_error,omitempty"`
	ExecutionTime    float64 `json:"execution_time"`
	MemoryUsage      int     `json:"memory_usage"`
}

// QuestionResult is the evaluated outcome of one coding question for one student.
type QuestionResult struct {
	QuestionID       uint             `json:"question_id"`
	Title            string           `json:"title"`
	Score            float64          `json:"score"`
	MaxScore         float64          `json:"max_score"`
	Status           string           `json:"status"`
	TestCasesTotal   int              `json:"test_cases_total"`
	TestCasesPassed  int              `json:"test_cases_passed"`
	TestCases        []TestCaseResult `json:"test_cases,omitempty"`
	FailedTestCases  []TestCaseResult `json:"failed_test_cases,omitempty"`
	ExecutionDetails ExecutionDetails `json:"execution_details"`
	ErrorSummary     string           `json:"error_summary,omitempty"`
}

// Summary aggregates question-level counters for one evaluation.
type Summary struct {
	TotalQuestions  int `json:"total_questions"`
	Attempted       int `json:"attempted"`
	Correct         int `json:"correct"`
	Partial         int `json:"partial"`
	Incorrect       int `json:"incorrect"`
	TotalTestCases  int `json:"total_test_cases"`
	PassedTestCases int `json:"passed_test_cases"`
}

// EvaluationResult is the durable outcome of evaluating one student's coding
// answers for one exam. Unique per (exam, student); overwritten on re-evaluation.
type EvaluationResult struct {
	ID               uint                                `gorm:"primaryKey" json:"id"`
	ExamID           uint                                `gorm:"index:idx_evaluation_exam_student,unique;not null" json:"exam_id"`
	StudentID        uint                                `gorm:"index:idx_evaluation_exam_student,unique;not null" json:"student_id"`
	StudentName      string                              `gorm:"size:255" json:"student_name"`
	USN              string                              `gorm:"size:32" json:"usn"`
	TotalScore       float64                             `gorm:"default:0" json:"total_score"`
	MaxPossibleScore float64                             `gorm:"default:0" json:"max_possible_score"`
	Percentage       float64                             `gorm:"default:0" json:"percentage"`
	SubmittedAt      time.Time                           `json:"submitted_at"`
	EvaluatedAt      time.Time                           `json:"evaluated_at"`
	Questions        datatypes.JSONSlice[QuestionResult] `json:"questions"`
	Summary          datatypes.JSONType[Summary]         `json:"summary"`
	CreatedAt        time.Time                           `json:"created_at"`
	UpdatedAt        time.Time                           `json:"updated_at"`
}
