package dto

import (
	"time"

	"github.com/noah-isme/examhub-go-api/internal/models"
)

// ReportStudent identifies the student a report belongs to.
type ReportStudent struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	USN   string `json:"usn"`
	Email string `json:"email"`
}

// ReportExam summarizes the exam a report was generated for.
type ReportExam struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	QuestionType    string    `json:"question_type"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

// ReportScores is the score breakdown of one submission.
type ReportScores struct {
	MCQScore    float64 `json:"mcq_score"`
	CodingScore float64 `json:"coding_score"`
	TotalScore  float64 `json:"total_score"`
	MaxScore    float64 `json:"max_score"`
	Percentage  float64 `json:"percentage"`
}

// MCQReportEntry is the graded outcome of one multiple-choice question.
type MCQReportEntry struct {
	QuestionID     uint    `json:"question_id"`
	Question       string  `json:"question"`
	SelectedOption string  `json:"selected_option"`
	CorrectAnswer  string  `json:"correct_answer"`
	Correct        bool    `json:"correct"`
	MarksAwarded   float64 `json:"marks_awarded"`
	MaxMarks       float64 `json:"max_marks"`
}

// IntegritySummary condenses proctoring counters into a pass/fail verdict.
type IntegritySummary struct {
	Status              string `json:"status"`
	Violations          int    `json:"violations"`
	TabChanges          int    `json:"tab_changes"`
	MouseOuts           int    `json:"mouse_outs"`
	FullscreenExits     int    `json:"fullscreen_exits"`
	CopyAttempts        int    `json:"copy_attempts"`
	PasteAttempts       int    `json:"paste_attempts"`
	FocusChanges        int    `json:"focus_changes"`
	ScreenConfiguration string `json:"screen_configuration"`
}

// ReportResponse is the full per-student report for one submission.
type ReportResponse struct {
	SubmissionID      uint                    `json:"submission_id"`
	Student           ReportStudent           `json:"student"`
	Exam              ReportExam              `json:"exam"`
	Scores            ReportScores            `json:"scores"`
	MCQQuestions      []MCQReportEntry        `json:"mcq_questions,omitempty"`
	CodingQuestions   []models.QuestionResult `json:"coding_questions,omitempty"`
	Rank              *int                    `json:"rank"`
	TotalParticipants int                     `json:"total_participants"`
	Integrity         *IntegritySummary       `json:"integrity,omitempty"`
	TimeAnalysis      string                  `json:"time_analysis,omitempty"`
	SubmittedAt       time.Time               `json:"submitted_at"`
}

// RankingEntry is one row of an exam ranking.
type RankingEntry struct {
	Rank        int       `json:"rank"`
	StudentID   uint      `json:"student_id"`
	Name        string    `json:"name"`
	USN         string    `json:"usn"`
	Score       float64   `json:"score"`
	Percentage  float64   `json:"percentage"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// RankingResponse is the full ordered ranking for one exam.
type RankingResponse struct {
	ExamID           uint           `json:"exam_id"`
	ExamName         string         `json:"exam_name"`
	QuestionType     string         `json:"question_type"`
	TotalSubmissions int            `json:"total_submissions"`
	Excluded         int            `json:"excluded"`
	Entries          []RankingEntry `json:"entries"`
	TopPerformers    []RankingEntry `json:"top_performers"`
	GeneratedAt      time.Time      `json:"generated_at"`
}
