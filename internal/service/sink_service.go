package service

import (
	"context"
	"errors"
	"jsonweblog/internal/broadcast"
	"jsonweblog/internal/model"
	"sync"

	"github.com/rs/zerolog/log"
)

const defaultSinkBatchSize = 200

// RecordSink receives batches of live records. Implementations must not keep
// the slice after returning.
type RecordSink interface {
	Name() string
	Write(ctx context.Context, records []*model.LogRecord) error
}

type sinkFunc struct {
	name  string
	write func(ctx context.Context, records []*model.LogRecord) error
}

// NewSink adapts a write function into a RecordSink.
func NewSink(name string, write func(ctx context.Context, records []*model.LogRecord) error) RecordSink {
	return &sinkFunc{name: name, write: write}
}

func (s *sinkFunc) Name() string {
	return s.name
}

func (s *sinkFunc) Write(ctx context.Context, records []*model.LogRecord) error {
	return s.write(ctx, records)
}

// SinkService drains one backlog-free subscription per sink on its own
// goroutine. A slow sink only loses records from its own queue.
type SinkService interface {
	Start(ctx context.Context)
	Stop()
}

type sinkService struct {
	broadcaster broadcast.Broadcaster
	sinks       []RecordSink
	queueSize   int
	batchSize   int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSinkService(broadcaster broadcast.Broadcaster, queueSize int, sinks ...RecordSink) SinkService {
	active := make([]RecordSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			active = append(active, sink)
		}
	}
	return &sinkService{
		broadcaster: broadcaster,
		sinks:       active,
		queueSize:   queueSize,
		batchSize:   defaultSinkBatchSize,
	}
}

// Start subscribes every sink before returning, so records published after
// Start are seen by all sinks.
func (s *sinkService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	for _, sink := range s.sinks {
		sub := s.broadcaster.Subscribe(
			broadcast.WithoutBacklog(),
			broadcast.WithQueueSize(s.queueSize),
			broadcast.WithName("sink:"+sink.Name()),
		)
		s.wg.Add(1)
		go s.drain(ctx, sink, sub)
		log.Info().Str("sink", sink.Name()).Msg("Record sink started")
	}
}

func (s *sinkService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *sinkService) drain(ctx context.Context, sink RecordSink, sub *broadcast.Subscription) {
	defer s.wg.Done()
	defer sub.Close()

	for {
		first, err := sub.Next(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, broadcast.ErrSubscriptionClosed) {
				log.Error().Err(err).Str("sink", sink.Name()).Msg("Sink subscription failed")
			}
			log.Info().Str("sink", sink.Name()).Uint64("dropped", sub.Dropped()).Msg("Record sink stopped")
			return
		}

		batch := make([]*model.LogRecord, 0, s.batchSize)
		batch = append(batch, first)
		for len(batch) < s.batchSize {
			record, ok := sub.TryNext()
			if !ok {
				break
			}
			batch = append(batch, record)
		}

		if err := sink.Write(ctx, batch); err != nil {
			log.Error().Err(err).Str("sink", sink.Name()).Int("count", len(batch)).Msg("Failed to write records to sink")
		}
	}
}
