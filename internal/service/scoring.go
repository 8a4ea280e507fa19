package service

import (
	"math"
	"strings"

	"github.com/noah-isme/examhub-go-api/internal/models"
)

// round2 rounds to two decimal places, the precision used for all scores
// and percentages.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// percentage computes a rounded percentage, guarding the zero-max case so
// an exam with no gradable marks reports 0 rather than NaN.
func percentage(score, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return round2(score / max * 100)
}

// scoreMCQ grades the multiple-choice component of a submission. Returns the
// marks earned and the maximum marks available. Unanswered questions earn
// nothing; there is no negative marking.
func scoreMCQ(questions []models.MCQQuestion, answers []models.MCQAnswer) (score, max float64) {
	selected := make(map[uint]string, len(answers))
	for _, answer := range answers {
		selected[answer.QuestionID] = strings.TrimSpace(answer.SelectedOption)
	}

	for _, question := range questions {
		max += question.Marks
		if mcqAnswerCorrect(selected[question.ID], question.CorrectAnswer) {
			score += question.Marks
		}
	}

	return round2(score), max
}

func mcqAnswerCorrect(selected, correct string) bool {
	selected = strings.TrimSpace(selected)
	return selected != "" && selected == strings.TrimSpace(correct)
}
