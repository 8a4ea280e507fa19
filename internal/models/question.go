package models

import (
	"time"

	"gorm.io/datatypes"
)

// TestCase is one input/expected-output pair used to grade a coding question.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Public         bool   `json:"public"`
	TimeoutSec     int    `json:"timeout_sec"`
	MemoryLimitKB  int    `json:"memory_limit_kb"`
}

// CodingQuestion is a coding problem graded against its test cases.
type CodingQuestion struct {
	ID             uint                          `gorm:"primaryKey" json:"id"`
	Title          string                        `gorm:"size:255;not null" json:"title"`
	Statement      string                        `gorm:"type:text;not null" json:"statement"`
	Classification string                        `gorm:"size:64;index" json:"classification"`
	Level          string                        `gorm:"size:16;index" json:"level"`
	MaxMarks       float64                       `gorm:"not null" json:"max_marks"`
	TestCases      datatypes.JSONSlice[TestCase] `json:"test_cases"`
	CreatedAt      time.Time                     `json:"created_at"`
	UpdatedAt      time.Time                     `json:"updated_at"`
}

// MCQQuestion is a multiple-choice question attached to one exam.
type MCQQuestion struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	ExamID        uint                        `gorm:"index;not null" json:"exam_id"`
	Question      string                      `gorm:"type:text;not null" json:"question"`
	Options       datatypes.JSONSlice[string] `json:"options"`
	CorrectAnswer string                      `gorm:"size:255;not null" json:"correct_answer"`
	Marks         float64                     `gorm:"default:0" json:"marks"`
	CreatedAt     time.Time                   `json:"created_at"`
}
