package hierarchy

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/studyloop/quiz-service/internal/models"
)

var (
	// ErrNodeNotFound means a referenced node id does not exist.
	ErrNodeNotFound = errors.New("knowledge node not found")
	// ErrInvalidRelationship means the attribute is not a direct child of
	// the given category, or one of the nodes has the wrong type.
	ErrInvalidRelationship = errors.New("attribute is not a direct child of the given category")
)

// NodeLookup is the read capability the resolver runs over. It is owned by
// the storage collaborator; tests run the resolver against in-memory maps.
//
// GetNode returns (nil, nil) when the id does not exist.
type NodeLookup interface {
	GetNode(ctx context.Context, id uint) (*models.KnowledgeNode, error)
	GetChildren(ctx context.Context, parentID uint) ([]*models.KnowledgeNode, error)
}

// PathResolver walks the knowledge tree through a NodeLookup. It holds no
// locks or transactions; a pass spanning multiple lookups may observe
// concurrent author edits.
type PathResolver struct {
	lookup NodeLookup
}

func NewPathResolver(lookup NodeLookup) *PathResolver {
	return &PathResolver{lookup: lookup}
}

// BuildPath walks the ancestor chain upward from nodeID, collecting only
// Category and Attribute labels (Topic and Fact labels are skipped), and
// joins them root-first with " | ". The walk terminates at a nil parent or
// a lookup miss.
func (r *PathResolver) BuildPath(ctx context.Context, nodeID uint) (string, error) {
	var labels []string
	seen := map[uint]bool{}

	id := &nodeID
	for id != nil && !seen[*id] {
		seen[*id] = true
		node, err := r.lookup.GetNode(ctx, *id)
		if err != nil {
			return "", err
		}
		if node == nil {
			break
		}
		if node.Type == models.NodeCategory || node.Type == models.NodeAttribute {
			labels = append(labels, node.Label)
		}
		id = node.ParentID
	}

	// labels were collected leaf-first
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return strings.Join(labels, " | "), nil
}

// GetSubtree returns the root node plus every descendant, ordered by
// (orderIndex, id).
func (r *PathResolver) GetSubtree(ctx context.Context, rootID uint) ([]*models.KnowledgeNode, error) {
	root, err := r.lookup.GetNode(ctx, rootID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, ErrNodeNotFound
	}

	nodes := []*models.KnowledgeNode{root}
	queue := []uint{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		children, err := r.lookup.GetChildren(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			nodes = append(nodes, child)
			queue = append(queue, child.ID)
		}
	}

	sortNodes(nodes)
	return nodes, nil
}

// FindFactsForPair returns the Facts that are direct children of attributeID,
// after checking that categoryID/attributeID form a valid Category->Attribute
// edge. Results are ordered by (orderIndex, id).
func (r *PathResolver) FindFactsForPair(ctx context.Context, categoryID, attributeID uint) ([]*models.KnowledgeNode, error) {
	category, err := r.lookup.GetNode(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	attribute, err := r.lookup.GetNode(ctx, attributeID)
	if err != nil {
		return nil, err
	}
	if category == nil || attribute == nil {
		return nil, ErrNodeNotFound
	}

	if category.Type != models.NodeCategory ||
		attribute.Type != models.NodeAttribute ||
		attribute.ParentID == nil || *attribute.ParentID != categoryID {
		return nil, ErrInvalidRelationship
	}

	children, err := r.lookup.GetChildren(ctx, attributeID)
	if err != nil {
		return nil, err
	}

	facts := make([]*models.KnowledgeNode, 0, len(children))
	for _, child := range children {
		if child.Type == models.NodeFact {
			facts = append(facts, child)
		}
	}
	sortNodes(facts)
	return facts, nil
}

func sortNodes(nodes []*models.KnowledgeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].OrderIndex != nodes[j].OrderIndex {
			return nodes[i].OrderIndex < nodes[j].OrderIndex
		}
		return nodes[i].ID < nodes[j].ID
	})
}
