package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studyloop/quiz-service/internal/models"
)

// question builds a question whose options carry the given correct ids, with
// the selected ids flagged.
func question(correctIDs, selectedIDs []uint) models.Question {
	selected := make(map[uint]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}
	correct := make(map[uint]bool, len(correctIDs))
	for _, id := range correctIDs {
		correct[id] = true
	}

	all := make(map[uint]bool)
	for id := range correct {
		all[id] = true
	}
	for id := range selected {
		all[id] = true
	}
	// a fixed incorrect option that was never part of either set
	all[99] = true

	var q models.Question
	for id := range all {
		q.Options = append(q.Options, models.AnswerOption{
			ID:          id,
			IsCorrect:   correct[id],
			WasSelected: selected[id],
		})
	}
	return q
}

func TestQuestionCorrect_StrictMatch(t *testing.T) {
	tests := []struct {
		name     string
		correct  []uint
		selected []uint
		want     bool
	}{
		{"exact match", []uint{10, 11}, []uint{10, 11}, true},
		{"missing one correct", []uint{10, 11}, []uint{10}, false},
		{"extra incorrect selection", []uint{10, 11}, []uint{10, 11, 12}, false},
		{"nothing selected, nothing correct", nil, nil, true},
		{"nothing selected but correct exists", []uint{10}, nil, false},
		{"only wrong selected", []uint{10}, []uint{12}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := question(tt.correct, tt.selected)
			assert.Equal(t, tt.want, QuestionCorrect(q.Options))
		})
	}
}

func TestScoreSession(t *testing.T) {
	questions := []models.Question{
		question([]uint{10, 11}, []uint{10, 11}), // correct
		question([]uint{10, 11}, []uint{10}),     // incorrect
		question([]uint{20}, []uint{20}),         // correct
		question([]uint{20}, []uint{21}),         // incorrect
	}

	summary := ScoreSession(questions)
	assert.Equal(t, 4, summary.TotalQuestions)
	assert.Equal(t, 2, summary.CorrectCount)
	assert.InDelta(t, 50.0, summary.Score, 1e-9)
}

func TestScoreSession_AllCorrect(t *testing.T) {
	questions := []models.Question{
		question([]uint{1}, []uint{1}),
		question([]uint{2, 3}, []uint{2, 3}),
		question([]uint{4}, []uint{4}),
	}

	summary := ScoreSession(questions)
	assert.Equal(t, 3, summary.CorrectCount)
	assert.InDelta(t, 100.0, summary.Score, 1e-9)
}

func TestScoreSession_Empty(t *testing.T) {
	summary := ScoreSession(nil)
	assert.Equal(t, 0, summary.TotalQuestions)
	assert.Equal(t, 0, summary.CorrectCount)
	assert.Equal(t, 0.0, summary.Score)
}

func TestScoreSession_FractionalScore(t *testing.T) {
	questions := []models.Question{
		question([]uint{1}, []uint{1}),
		question([]uint{2}, []uint{3}),
		question([]uint{4}, []uint{5}),
	}

	summary := ScoreSession(questions)
	assert.InDelta(t, 100.0/3.0, summary.Score, 1e-9)
}
