package dto

import "jsonweblog/internal/model"

type SetColumnsRequest struct {
	Theme   *string              `json:"theme,omitempty"`
	Columns []model.ColumnConfig `json:"columns" binding:"required,dive"`
}
