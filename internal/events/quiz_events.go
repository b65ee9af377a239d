package events

import (
	"time"
)

// EventType represents different types of quiz platform events
type EventType string

const (
	// Content events
	EventNodeCreated   EventType = "node.created"
	EventNodeDeleted   EventType = "node.deleted"
	EventPackPublished EventType = "pack.published"

	// Session events
	EventSessionGenerated EventType = "session.generated"
	EventSessionCompleted EventType = "session.completed"
)

// QuizEvent is the base event structure published to the message bus
type QuizEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Content event payloads

type NodeCreatedEvent struct {
	NodeID        uint   `json:"node_id"`
	NodeType      string `json:"node_type"`
	Label         string `json:"label"`
	ContentPackID uint   `json:"content_pack_id"`
	CreatedBy     string `json:"created_by"`
}

type NodeDeletedEvent struct {
	NodeID        uint   `json:"node_id"`
	ContentPackID uint   `json:"content_pack_id"`
	DeletedBy     string `json:"deleted_by"`
}

type PackPublishedEvent struct {
	ContentPackID uint   `json:"content_pack_id"`
	Title         string `json:"title"`
	PublishedBy   string `json:"published_by"`
}

// Session event payloads

type SessionGeneratedEvent struct {
	SessionID      uint      `json:"session_id"`
	UserID         string    `json:"user_id"`
	ContentPackID  uint      `json:"content_pack_id"`
	TotalQuestions int       `json:"total_questions"`
	StartedAt      time.Time `json:"started_at"`
}

type SessionCompletedEvent struct {
	SessionID      uint      `json:"session_id"`
	UserID         string    `json:"user_id"`
	ContentPackID  uint      `json:"content_pack_id"`
	TotalQuestions int       `json:"total_questions"`
	CorrectAnswers int       `json:"correct_answers"`
	Score          float64   `json:"score"`
	CompletedAt    time.Time `json:"completed_at"`
}
