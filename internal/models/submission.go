package models

import (
	"time"

	"gorm.io/datatypes"
)

// MCQAnswer records the option a student selected for one MCQ question.
type MCQAnswer struct {
	QuestionID     uint   `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

// CodingAnswer records the source code a student submitted for one coding question.
type CodingAnswer struct {
	QuestionID uint   `json:"question_id"`
	Code       string `json:"code"`
	LanguageID int    `json:"language_id"`
}

// Submission is one student's finalized answer set for one exam.
// The answer payloads are immutable after submission; only the score
// fields are back-filled by the evaluation engine.
type Submission struct {
	ID            uint                              `gorm:"primaryKey" json:"id"`
	ExamID        uint                              `gorm:"index:idx_submissions_exam_student,unique;not null" json:"exam_id"`
	StudentID     uint                              `gorm:"index:idx_submissions_exam_student,unique;not null" json:"student_id"`
	MCQAnswers    datatypes.JSONSlice[MCQAnswer]    `json:"mcq_answers"`
	CodingAnswers datatypes.JSONSlice[CodingAnswer] `json:"coding_answers"`
	Score         float64                           `gorm:"default:0" json:"score"`
	MCQScore      float64                           `gorm:"default:0" json:"mcq_score"`
	CodingScore   float64                           `gorm:"default:0" json:"coding_score"`
	SubmittedAt   time.Time                         `json:"submitted_at"`
	Exam          Exam                              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student       *Student                          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"student,omitempty"`
}

// CodingAnswerFor returns the coding answer matching the question, if any.
func (s Submission) CodingAnswerFor(questionID uint) (CodingAnswer, bool) {
	for _, answer := range s.CodingAnswers {
		if answer.QuestionID == questionID {
			return answer, true
		}
	}
	return CodingAnswer{}, false
}
