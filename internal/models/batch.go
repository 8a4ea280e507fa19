package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserResult is the denormalized per-student summary embedded in batch statistics.
type UserResult struct {
	StudentID  uint    `json:"student_id"`
	Name       string  `json:"name"`
	USN        string  `json:"usn"`
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Percentage float64 `json:"percentage"`
	Attempted  int     `json:"attempted"`
	Correct    int     `json:"correct"`
	Partial    int     `json:"partial"`
	Incorrect  int     `json:"incorrect"`
}

// ScoreDistribution buckets batch percentages into ranges.
type ScoreDistribution struct {
	Excellent int `json:"excellent"` // >= 90
	Good      int `json:"good"`      // 70-89
	Average   int `json:"average"`   // 50-69
	Poor      int `json:"poor"`      // < 50
}

// BatchError records one student whose evaluation failed during a batch
// run. The batch keeps going; the entry is what an operator re-evaluates.
type BatchError struct {
	StudentID uint   `json:"student_id"`
	Name      string `json:"name"`
	USN       string `json:"usn"`
	Message   string `json:"message"`
}

// BatchStats aggregates one batch evaluation run for an exam.
type BatchStats struct {
	TotalSubmissions      int               `json:"total_submissions"`
	SuccessfulEvaluations int               `json:"successful_evaluations"`
	FailedEvaluations     int               `json:"failed_evaluations"`
	AverageScore          float64           `json:"average_score"`
	HighestScore          float64           `json:"highest_score"`
	LowestScore           float64           `json:"lowest_score"`
	AveragePercentage     float64           `json:"average_percentage"`
	PassedStudents        int               `json:"passed_students"`
	FailedStudents        int               `json:"failed_students"`
	ScoreDistribution     ScoreDistribution `json:"score_distribution"`
	UserResults           []UserResult      `json:"user_results"`
	TopPerformers         []UserResult      `json:"top_performers"`
	Errors                []BatchError      `json:"errors,omitempty"`
}

// BatchStatistics is the persisted aggregate of the most recent batch run
// for an exam. Regenerated wholesale on each run, never merged incrementally.
type BatchStatistics struct {
	ID         uint                           `gorm:"primaryKey" json:"id"`
	ExamID     uint                           `gorm:"uniqueIndex;not null" json:"exam_id"`
	Statistics datatypes.JSONType[BatchStats] `json:"statistics"`
	CreatedAt  time.Time                      `json:"created_at"`
	UpdatedAt  time.Time                      `json:"updated_at"`
}
