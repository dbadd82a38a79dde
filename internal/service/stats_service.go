package service

import (
	"jsonweblog/internal/dto"
	"jsonweblog/internal/metrics"
	"jsonweblog/internal/store"
	"time"

	"github.com/rs/zerolog/log"
)

type StatsService interface {
	Stats() dto.StatsResponse
	LogStats()
}

type statsService struct {
	store     store.RecordStore
	feed      FeedService
	recorder  metrics.Recorder
	startedAt time.Time
	now       func() time.Time
}

func NewStatsService(recordStore store.RecordStore, feed FeedService, recorder metrics.Recorder) StatsService {
	return newStatsService(recordStore, feed, recorder, time.Now)
}

func newStatsService(recordStore store.RecordStore, feed FeedService, recorder metrics.Recorder, now func() time.Time) *statsService {
	return &statsService{
		store:     recordStore,
		feed:      feed,
		recorder:  recorder,
		startedAt: now(),
		now:       now,
	}
}

func (s *statsService) Stats() dto.StatsResponse {
	totals := s.recorder.Totals()
	return dto.StatsResponse{
		TotalLogs:         s.store.Len(),
		ActiveConnections: s.feed.ActiveConnections(),
		UptimeSeconds:     uint64(s.now().Sub(s.startedAt) / time.Second),
		IngestedRecords:   totals.Ingested,
		RejectedLines:     totals.Rejected,
		DroppedMessages:   totals.Dropped,
	}
}

// LogStats writes a one-line summary; it is run on a schedule.
func (s *statsService) LogStats() {
	stats := s.Stats()
	log.Info().
		Int("logs", stats.TotalLogs).
		Int("connections", stats.ActiveConnections).
		Uint64("ingested", stats.IngestedRecords).
		Uint64("rejected", stats.RejectedLines).
		Uint64("dropped", stats.DroppedMessages).
		Uint64("uptime_seconds", stats.UptimeSeconds).
		Msg("Stats")
}
