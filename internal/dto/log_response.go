package dto

import (
	"jsonweblog/internal/filter"
	"jsonweblog/internal/model"
)

// LogQueryRequest is a query over the in-memory window. A nil Limit keeps
// every match.
type LogQueryRequest struct {
	Filter *filter.LogFilter
	Limit  *int
}

type LogQueryResponse struct {
	Logs          []*model.LogRecord `json:"logs"`
	TotalCount    int                `json:"total_count"`
	FilteredCount int                `json:"filtered_count"`
}

type ArchiveSearchRequest struct {
	Filter *filter.LogFilter
	Page   int
	Size   int
}

type ArchiveSearchResponse struct {
	Logs       []*model.LogRecord `json:"logs"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Size       int                `json:"size"`
}
