package dto

import (
	"time"

	"github.com/noah-isme/examhub-go-api/internal/models"
)

// EvaluateBatchRequest optionally narrows a batch run to specific students.
// Empty means every submission for the exam.
type EvaluateBatchRequest struct {
	StudentIDs []uint `json:"student_ids" validate:"omitempty,dive,gt=0"`
}

// EvaluationStatusResponse splits an exam's submitters into evaluated and
// pending sets so operators can resume interrupted batch runs.
type EvaluationStatusResponse struct {
	ExamID           uint   `json:"exam_id"`
	TotalSubmissions int    `json:"total_submissions"`
	Evaluated        []uint `json:"evaluated_student_ids"`
	Pending          []uint `json:"pending_student_ids"`
}

// ExamStatisticsSummary condenses one exam's latest batch run for the
// admin dashboard feed.
type ExamStatisticsSummary struct {
	ExamID            uint    `json:"exam_id"`
	TotalSubmissions  int     `json:"total_submissions"`
	AverageScore      float64 `json:"average_score"`
	AveragePercentage float64 `json:"average_percentage"`
	HighestScore      float64 `json:"highest_score"`
	LowestScore       float64 `json:"lowest_score"`
	PassedStudents    int     `json:"passed_students"`
	FailedStudents    int     `json:"failed_students"`
}

// BatchResultResponse is the outcome of one batch evaluation run. Errors
// lists every student whose evaluation failed, so a partial run can be
// inspected and re-triggered for just those students.
type BatchResultResponse struct {
	ExamID     uint                `json:"exam_id"`
	Statistics models.BatchStats   `json:"statistics"`
	Errors     []models.BatchError `json:"errors"`
	FinishedAt time.Time           `json:"finished_at"`
}
