package service

import (
	"context"
	"errors"
	"jsonweblog/internal/dto"
	"jsonweblog/internal/metrics"
	"jsonweblog/internal/repository"
	"jsonweblog/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	defaultArchivePageSize = 100
	maxArchivePageSize     = 1000
)

var (
	ErrArchiveDisabled = errors.New("archive search is disabled")
	ErrNegativeLimit   = errors.New("limit must not be negative")
)

type LogQueryService interface {
	QueryLogs(req dto.LogQueryRequest) (*dto.LogQueryResponse, error)
	ClearLogs()
	SearchArchive(ctx context.Context, req dto.ArchiveSearchRequest) (*dto.ArchiveSearchResponse, error)
}

type logQueryService struct {
	store       store.RecordStore
	archiveRepo repository.ArchiveRepository
	recorder    metrics.Recorder
}

// NewLogQueryService serves queries from the store. archiveRepo may be nil
// when archiving is not configured.
func NewLogQueryService(recordStore store.RecordStore, archiveRepo repository.ArchiveRepository, recorder metrics.Recorder) LogQueryService {
	return &logQueryService{
		store:       recordStore,
		archiveRepo: archiveRepo,
		recorder:    recorder,
	}
}

// QueryLogs filters the current window. With a limit, only the most recent
// matches are returned, still in arrival order.
func (s *logQueryService) QueryLogs(req dto.LogQueryRequest) (*dto.LogQueryResponse, error) {
	if req.Limit != nil && *req.Limit < 0 {
		return nil, ErrNegativeLimit
	}

	records, total := s.store.Snapshot(req.Filter)
	filtered := len(records)

	if req.Limit != nil && *req.Limit < filtered {
		records = records[filtered-*req.Limit:]
	}

	log.Debug().
		Int("total", total).
		Int("filtered", filtered).
		Int("returned", len(records)).
		Msg("Queried logs")

	return &dto.LogQueryResponse{
		Logs:          records,
		TotalCount:    total,
		FilteredCount: filtered,
	}, nil
}

// ClearLogs empties the window. Schema and column layout are kept.
func (s *logQueryService) ClearLogs() {
	s.store.Clear()
	s.recorder.SetStoreSize(0)
	log.Info().Msg("Logs cleared via API")
}

func (s *logQueryService) SearchArchive(ctx context.Context, req dto.ArchiveSearchRequest) (*dto.ArchiveSearchResponse, error) {
	if s.archiveRepo == nil {
		return nil, ErrArchiveDisabled
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Size <= 0 || req.Size > maxArchivePageSize {
		req.Size = defaultArchivePageSize
	}

	log.Info().
		Bool("filtered", !req.Filter.IsEmpty()).
		Int("page", req.Page).
		Int("size", req.Size).
		Msg("Searching archive")

	return s.archiveRepo.Search(ctx, req)
}
