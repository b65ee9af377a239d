// Package hierarchy enforces the shape of the knowledge tree and resolves
// paths, subtrees and category/attribute pairs over an injected node lookup.
package hierarchy

import (
	"fmt"

	"github.com/studyloop/quiz-service/internal/models"
)

// allowedChildren maps each parent node type to the set of types it may
// parent. Read-only configuration; never mutated after init.
var allowedChildren = map[models.NodeType]map[models.NodeType]bool{
	models.NodeTopic: {
		models.NodeTopic:    true,
		models.NodeCategory: true,
	},
	models.NodeCategory: {
		models.NodeAttribute: true,
	},
	models.NodeAttribute: {
		models.NodeFact: true,
	},
	models.NodeFact: {},
}

// rootTypes is the set of types allowed at the root of a tree.
var rootTypes = map[models.NodeType]bool{
	models.NodeTopic: true,
}

// typeDepth gives the nominal depth of each node type. Informational only:
// Topic-under-Topic chains are legal and not depth-limited.
var typeDepth = map[models.NodeType]int{
	models.NodeTopic:     0,
	models.NodeCategory:  1,
	models.NodeAttribute: 2,
	models.NodeFact:      3,
}

// Validate reports whether childType may be inserted under a parent of
// parentType. A nil parentType means the child would become a root node.
func Validate(parentType *models.NodeType, childType models.NodeType) bool {
	if parentType == nil {
		return rootTypes[childType]
	}
	return allowedChildren[*parentType][childType]
}

// Depth returns the nominal depth of a node type (Topic=0 .. Fact=3).
func Depth(t models.NodeType) int {
	return typeDepth[t]
}

// ViolationError reports a parent/child type pair the rule table disallows.
// It is raised before any write reaches storage.
type ViolationError struct {
	ParentType *models.NodeType `json:"parent_type"`
	ChildType  models.NodeType  `json:"child_type"`
}

func (e *ViolationError) Error() string {
	if e.ParentType == nil {
		return fmt.Sprintf("hierarchy violation: %s cannot be a root node", e.ChildType)
	}
	return fmt.Sprintf("hierarchy violation: %s cannot be a child of %s", e.ChildType, *e.ParentType)
}

// NewViolationError builds a ViolationError for the given pair.
func NewViolationError(parentType *models.NodeType, childType models.NodeType) *ViolationError {
	return &ViolationError{
		ParentType: parentType,
		ChildType:  childType,
	}
}
