package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyloop/quiz-service/internal/models"
)

// mapLookup is an in-memory NodeLookup fixture.
type mapLookup struct {
	nodes map[uint]*models.KnowledgeNode
}

func (m *mapLookup) GetNode(_ context.Context, id uint) (*models.KnowledgeNode, error) {
	return m.nodes[id], nil
}

func (m *mapLookup) GetChildren(_ context.Context, parentID uint) ([]*models.KnowledgeNode, error) {
	var children []*models.KnowledgeNode
	for _, node := range m.nodes {
		if node.ParentID != nil && *node.ParentID == parentID {
			children = append(children, node)
		}
	}
	return children, nil
}

func uintPtr(v uint) *uint { return &v }

// cardiologyTree builds:
//
//	topic cardiology (1)
//	  category left_sided (2)
//	    attribute symptoms (3)
//	      fact dyspnea (4)
//	      fact pulmonary_edema (5)
//	  category right_sided (6)
//	    attribute symptoms (7)
//	      fact peripheral_edema (8)
func cardiologyTree() *mapLookup {
	return &mapLookup{nodes: map[uint]*models.KnowledgeNode{
		1: {ID: 1, Name: "cardiology", Label: "Cardiology", Type: models.NodeTopic},
		2: {ID: 2, ParentID: uintPtr(1), Name: "left_sided", Label: "Left-sided HF", Type: models.NodeCategory},
		3: {ID: 3, ParentID: uintPtr(2), Name: "symptoms", Label: "Symptoms", Type: models.NodeAttribute},
		4: {ID: 4, ParentID: uintPtr(3), Name: "dyspnea", Label: "Dyspnea", Type: models.NodeFact, OrderIndex: 1},
		5: {ID: 5, ParentID: uintPtr(3), Name: "pulmonary_edema", Label: "Pulmonary edema", Type: models.NodeFact, OrderIndex: 2},
		6: {ID: 6, ParentID: uintPtr(1), Name: "right_sided", Label: "Right-sided HF", Type: models.NodeCategory},
		7: {ID: 7, ParentID: uintPtr(6), Name: "symptoms", Label: "Symptoms", Type: models.NodeAttribute},
		8: {ID: 8, ParentID: uintPtr(7), Name: "peripheral_edema", Label: "Peripheral edema", Type: models.NodeFact},
	}}
}

func TestBuildPath(t *testing.T) {
	resolver := NewPathResolver(cardiologyTree())
	ctx := context.Background()

	tests := []struct {
		name   string
		nodeID uint
		want   string
	}{
		{"fact path keeps category and attribute only", 4, "Left-sided HF | Symptoms"},
		{"attribute path", 3, "Left-sided HF | Symptoms"},
		{"category path", 2, "Left-sided HF"},
		{"topic path is empty", 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := resolver.BuildPath(ctx, tt.nodeID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, path)
		})
	}
}

func TestBuildPath_MissingNode(t *testing.T) {
	resolver := NewPathResolver(cardiologyTree())

	path, err := resolver.BuildPath(context.Background(), 999)
	require.NoError(t, err)
	assert.Equal(t, "", path)
}

func TestBuildPath_CycleTerminates(t *testing.T) {
	lookup := &mapLookup{nodes: map[uint]*models.KnowledgeNode{
		1: {ID: 1, ParentID: uintPtr(2), Label: "A", Type: models.NodeCategory},
		2: {ID: 2, ParentID: uintPtr(1), Label: "B", Type: models.NodeCategory},
	}}
	resolver := NewPathResolver(lookup)

	path, err := resolver.BuildPath(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "B | A", path)
}

func TestGetSubtree(t *testing.T) {
	resolver := NewPathResolver(cardiologyTree())

	nodes, err := resolver.GetSubtree(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, nodes, 4)

	ids := make([]uint, len(nodes))
	for i, node := range nodes {
		ids[i] = node.ID
	}
	assert.ElementsMatch(t, []uint{2, 3, 4, 5}, ids)

	// dyspnea (orderIndex 1) sorts before pulmonary_edema (orderIndex 2)
	assert.Less(t, indexOf(ids, 4), indexOf(ids, 5))
}

func TestGetSubtree_MissingRoot(t *testing.T) {
	resolver := NewPathResolver(cardiologyTree())

	_, err := resolver.GetSubtree(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestFindFactsForPair(t *testing.T) {
	resolver := NewPathResolver(cardiologyTree())
	ctx := context.Background()

	facts, err := resolver.FindFactsForPair(ctx, 2, 3)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, uint(4), facts[0].ID)
	assert.Equal(t, uint(5), facts[1].ID)
}

func TestFindFactsForPair_Errors(t *testing.T) {
	resolver := NewPathResolver(cardiologyTree())
	ctx := context.Background()

	tests := []struct {
		name        string
		categoryID  uint
		attributeID uint
		wantErr     error
	}{
		{"missing category", 999, 3, ErrNodeNotFound},
		{"missing attribute", 2, 999, ErrNodeNotFound},
		{"attribute of another category", 2, 7, ErrInvalidRelationship},
		{"category slot holds a topic", 1, 3, ErrInvalidRelationship},
		{"attribute slot holds a fact", 2, 4, ErrInvalidRelationship},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolver.FindFactsForPair(ctx, tt.categoryID, tt.attributeID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func indexOf(ids []uint, id uint) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
