package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/repositories"
)

type NodePostgreSQL struct {
	db *gorm.DB
}

func NewNodePostgreSQL(db *gorm.DB) repositories.NodeRepository {
	return &NodePostgreSQL{db: db}
}

func (n *NodePostgreSQL) Create(ctx context.Context, node *models.KnowledgeNode) error {
	return n.db.WithContext(ctx).Create(node).Error
}

func (n *NodePostgreSQL) GetByID(ctx context.Context, id uint) (*models.KnowledgeNode, error) {
	var node models.KnowledgeNode
	if err := n.db.WithContext(ctx).First(&node, id).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

func (n *NodePostgreSQL) Update(ctx context.Context, node *models.KnowledgeNode) error {
	return n.db.WithContext(ctx).Save(node).Error
}

// DeleteSubtree soft-deletes the whole subtree in one statement using a
// recursive CTE over the closure of parent_id.
func (n *NodePostgreSQL) DeleteSubtree(ctx context.Context, rootID uint) error {
	return n.db.WithContext(ctx).Exec(`
		WITH RECURSIVE subtree AS (
			SELECT id FROM knowledge_nodes WHERE id = ? AND deleted_at IS NULL
			UNION ALL
			SELECT kn.id FROM knowledge_nodes kn
			JOIN subtree s ON kn.parent_id = s.id
			WHERE kn.deleted_at IS NULL
		)
		UPDATE knowledge_nodes SET deleted_at = NOW()
		WHERE id IN (SELECT id FROM subtree)`, rootID).Error
}

func (n *NodePostgreSQL) GetChildren(ctx context.Context, parentID uint) ([]*models.KnowledgeNode, error) {
	var nodes []*models.KnowledgeNode
	if err := n.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("order_index ASC, id ASC").
		Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

func (n *NodePostgreSQL) GetRoots(ctx context.Context, packID uint) ([]*models.KnowledgeNode, error) {
	var nodes []*models.KnowledgeNode
	if err := n.db.WithContext(ctx).
		Where("content_pack_id = ? AND parent_id IS NULL", packID).
		Order("order_index ASC, id ASC").
		Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

func (n *NodePostgreSQL) GetByType(ctx context.Context, packID uint, nodeType models.NodeType) ([]*models.KnowledgeNode, error) {
	var nodes []*models.KnowledgeNode
	if err := n.db.WithContext(ctx).
		Where("content_pack_id = ? AND type = ?", packID, nodeType).
		Order("order_index ASC, id ASC").
		Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

// GetSubtree fetches the node plus every descendant with a single recursive
// query, ordered by (order_index, id).
func (n *NodePostgreSQL) GetSubtree(ctx context.Context, rootID uint) ([]*models.KnowledgeNode, error) {
	var nodes []*models.KnowledgeNode
	if err := n.db.WithContext(ctx).Raw(`
		WITH RECURSIVE subtree AS (
			SELECT * FROM knowledge_nodes WHERE id = ? AND deleted_at IS NULL
			UNION ALL
			SELECT kn.* FROM knowledge_nodes kn
			JOIN subtree s ON kn.parent_id = s.id
			WHERE kn.deleted_at IS NULL
		)
		SELECT * FROM subtree ORDER BY order_index ASC, id ASC`, rootID).
		Scan(&nodes).Error; err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return nodes, nil
}

func (n *NodePostgreSQL) List(ctx context.Context, filters repositories.NodeFilters) ([]*models.KnowledgeNode, int64, error) {
	var nodes []*models.KnowledgeNode
	var total int64

	query := n.db.WithContext(ctx).Model(&models.KnowledgeNode{})
	if filters.ContentPackID != nil {
		query = query.Where("content_pack_id = ?", *filters.ContentPackID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.ParentID != nil {
		query = query.Where("parent_id = ?", *filters.ParentID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("order_index ASC, id ASC").Find(&nodes).Error; err != nil {
		return nil, 0, err
	}

	return nodes, total, nil
}
