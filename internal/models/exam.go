package models

import "time"

// QuestionType enumerates the kinds of assessments an exam can carry.
const (
	QuestionTypeMCQ    = "mcq"
	QuestionTypeCoding = "coding"
	QuestionTypeMixed  = "mcq&coding"
)

// Exam represents one scheduled assessment.
type Exam struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	Name            string           `gorm:"size:255;not null" json:"name"`
	QuestionType    string           `gorm:"size:32;not null" json:"question_type"`
	StartTime       time.Time        `json:"start_time"`
	DurationMinutes int              `json:"duration_minutes"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	CodingQuestions []CodingQuestion `gorm:"many2many:exam_coding_questions" json:"coding_questions"`
	MCQQuestions    []MCQQuestion    `gorm:"foreignKey:ExamID" json:"mcq_questions"`
}

// HasCoding reports whether the exam contains a coding component.
func (e Exam) HasCoding() bool {
	return e.QuestionType == QuestionTypeCoding || e.QuestionType == QuestionTypeMixed
}

// HasMCQ reports whether the exam contains an MCQ component.
func (e Exam) HasMCQ() bool {
	return e.QuestionType == QuestionTypeMCQ || e.QuestionType == QuestionTypeMixed
}
