package models

import (
	"time"

	"gorm.io/gorm"
)

type NodeType string

const (
	NodeTopic     NodeType = "topic"
	NodeCategory  NodeType = "category"
	NodeAttribute NodeType = "attribute"
	NodeFact      NodeType = "fact"
)

// KnowledgeNode is one node of the four-level knowledge tree
// (Topic -> Category -> Attribute -> Fact, Topic may also nest under Topic).
// Which type may parent which is enforced by the hierarchy package before
// any node is written.
type KnowledgeNode struct {
	ID            uint     `json:"id" gorm:"primaryKey"`
	ParentID      *uint    `json:"parent_id" gorm:"index"`
	Name          string   `json:"name" gorm:"not null;size:100;index" validate:"required,min=1,max=100"`
	Label         string   `json:"label" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Type          NodeType `json:"type" gorm:"not null;size:20;index" validate:"required,node_type"`
	ContentPackID uint     `json:"content_pack_id" gorm:"not null;index"`
	OrderIndex    int      `json:"order_index" gorm:"default:0"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Parent   *KnowledgeNode  `json:"-" gorm:"foreignKey:ParentID"`
	Children []KnowledgeNode `json:"children,omitempty" gorm:"foreignKey:ParentID"`
}

func (KnowledgeNode) TableName() string {
	return "knowledge_nodes"
}

// IsRoot reports whether the node sits at the top of its tree.
func (n *KnowledgeNode) IsRoot() bool {
	return n.ParentID == nil
}

type PackStatus string

const (
	PackDraft    PackStatus = "draft"
	PackActive   PackStatus = "active"
	PackArchived PackStatus = "archived"
)

// ContentPack is the authoring unit that scopes a knowledge tree and the
// quizzes generated from it.
type ContentPack struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string    `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Status      PackStatus `json:"status" gorm:"default:draft;index" validate:"omitempty,pack_status"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Nodes []KnowledgeNode `json:"nodes,omitempty" gorm:"foreignKey:ContentPackID"`

	// Computed fields (not stored)
	NodeCount    int `json:"node_count" gorm:"-"`
	SessionCount int `json:"session_count" gorm:"-"`
}

func (ContentPack) TableName() string {
	return "content_packs"
}
