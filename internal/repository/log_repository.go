package repository

import (
	"context"
	"jsonweblog/internal/dto"
)

// ArchiveRepository searches records retained outside the in-memory window.
type ArchiveRepository interface {
	Search(ctx context.Context, req dto.ArchiveSearchRequest) (*dto.ArchiveSearchResponse, error)
}
