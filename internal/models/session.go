package models

import (
	"time"

	"gorm.io/gorm"
)

// QuizSession tracks one learner's run through a generated quiz.
// State machine: Created -> (generation writes questions) -> Open -> Completed.
// CorrectAnswers, Score and CompletedAt are written exactly once, when the
// submission is scored; the session is immutable afterwards.
type QuizSession struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	UserID         string     `json:"user_id" gorm:"not null;size:255;index"`
	ContentPackID  uint       `json:"content_pack_id" gorm:"not null;index"`
	TotalQuestions int        `json:"total_questions" gorm:"not null;default:0"`
	CorrectAnswers int        `json:"correct_answers" gorm:"not null;default:0"`
	Score          *float64   `json:"score"` // nil until completed
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"` // terminal marker

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	ContentPack ContentPack `json:"content_pack" gorm:"foreignKey:ContentPackID"`
	Questions   []Question  `json:"questions" gorm:"foreignKey:SessionID"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}

// IsCompleted reports whether the session has reached its terminal state.
func (s *QuizSession) IsCompleted() bool {
	return s.CompletedAt != nil
}
