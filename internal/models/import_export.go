package models

import "time"

// ImportValidationError describes a single rejected row of a node import.
type ImportValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// ImportSummary is the outcome of a bulk node import from a workbook.
type ImportSummary struct {
	TotalRows      int                     `json:"total_rows"`
	ProcessedRows  int                     `json:"processed_rows"`
	SuccessCount   int                     `json:"success_count"`
	ErrorCount     int                     `json:"error_count"`
	CreatedNodes   []uint                  `json:"created_nodes"`
	Errors         []ImportValidationError `json:"errors"`
	ProcessingTime time.Duration           `json:"processing_time"`
}
