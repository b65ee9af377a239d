package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionDirection string

const (
	// DirectionDownward asks for the Facts belonging to a Category+Attribute pair.
	DirectionDownward QuestionDirection = "downward"
	// DirectionUpward asks for the Categories a given Attribute+Fact pair belongs to.
	DirectionUpward QuestionDirection = "upward"
)

// Question is a generated multiple-select question. It is created once at
// session generation time and never regenerated; the only mutation after
// that point is the per-option WasSelected flag set at submission.
type Question struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	SessionID   uint              `json:"session_id" gorm:"not null;index"`
	PromptText  string            `json:"prompt_text" gorm:"not null;type:text"`
	Direction   QuestionDirection `json:"direction" gorm:"not null;size:10" validate:"required,question_direction"`
	CategoryID  *uint             `json:"category_id"` // nil for upward questions
	AttributeID uint              `json:"attribute_id" gorm:"not null"`
	FactID      *uint             `json:"fact_id"` // nil for downward questions
	Position    int               `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Options []AnswerOption `json:"options" gorm:"foreignKey:QuestionID"`
}

func (Question) TableName() string {
	return "questions"
}

// AnswerOption is one selectable option of a question. Components holds the
// distinct knowledge node ids whose union defines the option's content;
// IsCorrect is fixed at generation time.
type AnswerOption struct {
	ID           uint                      `json:"id" gorm:"primaryKey"`
	QuestionID   uint                      `json:"question_id" gorm:"not null;index"`
	DisplayText  string                    `json:"display_text" gorm:"not null;type:text"`
	IsCorrect    bool                      `json:"is_correct" gorm:"not null"`
	Components   datatypes.JSONSlice[uint] `json:"components" gorm:"type:jsonb"`
	DisplayOrder int                       `json:"display_order" gorm:"not null"`
	WasSelected  bool                      `json:"was_selected" gorm:"default:false"`
}

func (AnswerOption) TableName() string {
	return "answer_options"
}
