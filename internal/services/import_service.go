package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/studyloop/quiz-service/internal/hierarchy"
	"github.com/studyloop/quiz-service/internal/models"
	"github.com/studyloop/quiz-service/internal/repositories"
	"github.com/studyloop/quiz-service/internal/utils"
)

// ImportService handles bulk knowledge-node import and export through XLSX
// workbooks. Each row is one node addressed by a slash-joined parent path, so
// a whole subtree can be authored in a spreadsheet and loaded in one shot.
type ImportService interface {
	ImportNodesFromFile(ctx context.Context, file multipart.File, filename string, packID uint, creatorID string) (*models.ImportSummary, error)
	ImportNodesFromExcel(ctx context.Context, reader io.Reader, packID uint, creatorID string) (*models.ImportSummary, error)
	ExportNodesToExcel(ctx context.Context, packID uint) ([]byte, error)
}

type importService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *utils.Validator
}

func NewImportService(repo repositories.Repository, logger utils.Logger, validator *utils.Validator) ImportService {
	return &importService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// importRow is one parsed workbook row before persistence.
type importRow struct {
	rowNum     int
	parentPath string
	Name       string          `json:"name" validate:"required,node_slug"`
	Label      string          `json:"label" validate:"required"`
	Type       models.NodeType `json:"type" validate:"required,node_type"`
	orderIndex int
}

func (s *importService) ImportNodesFromFile(ctx context.Context, file multipart.File, filename string, packID uint, creatorID string) (*models.ImportSummary, error) {
	s.logger.Info("Starting node import", "filename", filename, "content_pack_id", packID, "creator_id", creatorID)

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx", ".xls":
		return s.ImportNodesFromExcel(ctx, file, packID, creatorID)
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
}

func (s *importService) ImportNodesFromExcel(ctx context.Context, reader io.Reader, packID uint, creatorID string) (*models.ImportSummary, error) {
	start := time.Now()

	if _, err := s.repo.ContentPack().GetByID(ctx, packID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPackNotFound
		}
		return nil, fmt.Errorf("failed to get content pack: %w", err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, NewValidationError("file", "Excel must have header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range []string{"name", "label", "type"} {
		if _, exists := headerMap[col]; !exists {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	summary := &models.ImportSummary{TotalRows: len(rows) - 1}

	var parsed []*importRow
	for rowIndex, row := range rows[1:] {
		parsedRow, rowErrors := s.parseRow(row, headerMap, rowIndex+2)
		if len(rowErrors) > 0 {
			summary.Errors = append(summary.Errors, rowErrors...)
			summary.ErrorCount++
		} else {
			parsed = append(parsed, parsedRow)
		}
		summary.ProcessedRows++
	}

	if len(parsed) > 0 {
		err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			return s.createNodes(ctx, txRepo, parsed, packID, creatorID, summary)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save imported nodes: %w", err)
		}
	}

	summary.ProcessingTime = time.Since(start)
	s.logger.Info("Node import completed",
		"total_rows", summary.TotalRows,
		"success_count", summary.SuccessCount,
		"error_count", summary.ErrorCount)
	return summary, nil
}

func (s *importService) parseRow(record []string, headerMap map[string]int, rowNum int) (*importRow, []models.ImportValidationError) {
	getColumn := func(name string) string {
		if index, exists := headerMap[name]; exists && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}

	row := &importRow{
		rowNum:     rowNum,
		parentPath: strings.Trim(getColumn("parent_path"), "/"),
		Name:       getColumn("name"),
		Label:      getColumn("label"),
		Type:       models.NodeType(strings.ToLower(getColumn("type"))),
	}

	if orderStr := getColumn("order_index"); orderStr != "" {
		order, err := strconv.Atoi(orderStr)
		if err != nil {
			return nil, []models.ImportValidationError{{
				Row: rowNum, Field: "order_index", Value: orderStr, Message: "must be an integer",
			}}
		}
		row.orderIndex = order
	}

	if err := s.validator.Validate(row); err != nil {
		var rowErrors []models.ImportValidationError
		if verrs, ok := err.(ValidationErrors); ok {
			for _, verr := range verrs {
				rowErrors = append(rowErrors, models.ImportValidationError{
					Row: rowNum, Field: verr.Field, Value: fmt.Sprintf("%v", verr.Value), Message: verr.Message,
				})
			}
		} else {
			rowErrors = append(rowErrors, models.ImportValidationError{
				Row: rowNum, Field: "row", Message: err.Error(),
			})
		}
		return nil, rowErrors
	}

	return row, nil
}

// createNodes persists parsed rows in workbook order. Parents must appear
// before their children; created nodes are tracked by path so later rows can
// attach to them without a re-read.
func (s *importService) createNodes(ctx context.Context, txRepo repositories.Repository, parsed []*importRow, packID uint, creatorID string, summary *models.ImportSummary) error {
	created := make(map[string]*models.KnowledgeNode)

	for _, row := range parsed {
		parent, err := s.resolvePath(ctx, txRepo, packID, row.parentPath, created)
		if err != nil {
			return err
		}
		if row.parentPath != "" && parent == nil {
			summary.Errors = append(summary.Errors, models.ImportValidationError{
				Row: row.rowNum, Field: "parent_path", Value: row.parentPath, Message: "parent node not found",
			})
			summary.ErrorCount++
			continue
		}

		var parentType *models.NodeType
		var parentID *uint
		if parent != nil {
			parentType = &parent.Type
			parentID = &parent.ID
		}
		if !hierarchy.Validate(parentType, row.Type) {
			verr := hierarchy.NewViolationError(parentType, row.Type)
			summary.Errors = append(summary.Errors, models.ImportValidationError{
				Row: row.rowNum, Field: "type", Value: string(row.Type), Message: verr.Error(),
			})
			summary.ErrorCount++
			continue
		}

		node := &models.KnowledgeNode{
			ParentID:      parentID,
			Name:          row.Name,
			Label:         row.Label,
			Type:          row.Type,
			ContentPackID: packID,
			OrderIndex:    row.orderIndex,
			CreatedBy:     creatorID,
		}
		if err := txRepo.Node().Create(ctx, node); err != nil {
			return fmt.Errorf("failed to create node at row %d: %w", row.rowNum, err)
		}

		path := row.Name
		if row.parentPath != "" {
			path = row.parentPath + "/" + row.Name
		}
		created[path] = node
		summary.CreatedNodes = append(summary.CreatedNodes, node.ID)
		summary.SuccessCount++
	}
	return nil
}

// resolvePath walks a slash-joined name path from the pack roots, preferring
// nodes created earlier in the same import.
func (s *importService) resolvePath(ctx context.Context, txRepo repositories.Repository, packID uint, path string, created map[string]*models.KnowledgeNode) (*models.KnowledgeNode, error) {
	if path == "" {
		return nil, nil
	}
	if node, ok := created[path]; ok {
		return node, nil
	}

	segments := strings.Split(path, "/")
	var current *models.KnowledgeNode

	for depth, segment := range segments {
		var candidates []*models.KnowledgeNode
		var err error
		if current == nil {
			candidates, err = txRepo.Node().GetRoots(ctx, packID)
		} else {
			candidates, err = txRepo.Node().GetChildren(ctx, current.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %q: %w", path, err)
		}

		current = nil
		for _, candidate := range candidates {
			if candidate.Name == segment {
				current = candidate
				break
			}
		}
		if current == nil {
			if node, ok := created[strings.Join(segments[:depth+1], "/")]; ok {
				current = node
				continue
			}
			return nil, nil
		}
	}
	return current, nil
}

// ===== EXPORT =====

func (s *importService) ExportNodesToExcel(ctx context.Context, packID uint) ([]byte, error) {
	roots, err := s.repo.Node().GetRoots(ctx, packID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pack roots: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Nodes"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"parent_path", "name", "label", "type", "order_index"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	rowNum := 2
	for _, root := range roots {
		if err := s.writeSubtree(ctx, f, sheetName, root, "", &rowNum); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *importService) writeSubtree(ctx context.Context, f *excelize.File, sheetName string, node *models.KnowledgeNode, parentPath string, rowNum *int) error {
	values := []interface{}{parentPath, node.Name, node.Label, string(node.Type), node.OrderIndex}
	for colIndex, value := range values {
		cell := fmt.Sprintf("%c%d", 'A'+colIndex, *rowNum)
		f.SetCellValue(sheetName, cell, value)
	}
	*rowNum++

	children, err := s.repo.Node().GetChildren(ctx, node.ID)
	if err != nil {
		return fmt.Errorf("failed to get children for export: %w", err)
	}

	path := node.Name
	if parentPath != "" {
		path = parentPath + "/" + node.Name
	}
	for _, child := range children {
		if err := s.writeSubtree(ctx, f, sheetName, child, path, rowNum); err != nil {
			return err
		}
	}
	return nil
}
