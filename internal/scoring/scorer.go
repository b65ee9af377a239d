// Package scoring computes strict-match results for submitted quiz sessions.
// A question is correct iff the selected option set equals the correct option
// set exactly; there is no partial credit.
package scoring

import (
	"github.com/studyloop/quiz-service/internal/models"
)

// Summary is the outcome of scoring one session's questions.
type Summary struct {
	TotalQuestions int     `json:"total_questions"`
	CorrectCount   int     `json:"correct_count"`
	Score          float64 `json:"score"`
}

// QuestionCorrect reports whether a single question was answered correctly:
// the set of selected option ids must equal the set of correct option ids.
// Any missing correct option or extraneous incorrect selection fails the
// question.
func QuestionCorrect(options []models.AnswerOption) bool {
	for _, opt := range options {
		if opt.IsCorrect != opt.WasSelected {
			return false
		}
	}
	return true
}

// ScoreSession scores every question of a session after the WasSelected
// flags are recorded. Score is correct/total*100, or 0 for an empty session.
func ScoreSession(questions []models.Question) Summary {
	summary := Summary{TotalQuestions: len(questions)}
	for _, q := range questions {
		if QuestionCorrect(q.Options) {
			summary.CorrectCount++
		}
	}
	if summary.TotalQuestions > 0 {
		summary.Score = float64(summary.CorrectCount) / float64(summary.TotalQuestions) * 100
	}
	return summary
}
