package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"jsonweblog/internal/broadcast"
	"jsonweblog/internal/metrics"
	"jsonweblog/internal/model"
	"jsonweblog/internal/parser"
	"jsonweblog/internal/source"
	"jsonweblog/internal/store"

	"github.com/rs/zerolog/log"
)

const reasonLineTooLong = "line_too_long"

// IngestService is the single writer of the record store. Each input line is
// numbered, normalized, stored and then published, in that order.
type IngestService interface {
	Run(ctx context.Context) error
	IngestLine(line string, lineNumber uint64) (*model.LogRecord, error)
}

type ingestService struct {
	source      source.LineSource
	normalizer  parser.Normalizer
	store       store.RecordStore
	broadcaster broadcast.Broadcaster
	recorder    metrics.Recorder
}

func NewIngestService(
	lineSource source.LineSource,
	normalizer parser.Normalizer,
	recordStore store.RecordStore,
	broadcaster broadcast.Broadcaster,
	recorder metrics.Recorder,
) IngestService {
	return &ingestService{
		source:      lineSource,
		normalizer:  normalizer,
		store:       recordStore,
		broadcaster: broadcaster,
		recorder:    recorder,
	}
}

// Run reads until the source is exhausted or ctx is cancelled. It returns nil
// on end of input.
func (s *ingestService) Run(ctx context.Context) error {
	log.Info().Msg("Starting ingestion loop...")
	var lineNumber uint64

	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("lines", lineNumber).Msg("Ingestion loop stopping due to context cancellation.")
			return ctx.Err()
		default:
		}

		line, err := s.source.ReadLine(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				log.Info().Uint64("lines", lineNumber).Msg("Input stream closed")
				return nil
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				log.Info().Uint64("lines", lineNumber).Msg("Ingestion loop stopping due to context cancellation.")
				return err
			case errors.Is(err, source.ErrLineTooLong):
				lineNumber++
				s.recorder.RecordRejected(reasonLineTooLong)
				log.Warn().Uint64("line", lineNumber).Msg("Skipping input line over the size limit")
				continue
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}

		lineNumber++
		// Rejections are logged and counted inside IngestLine.
		s.IngestLine(line, lineNumber)
	}
}

// IngestLine handles one line. A rejected line leaves the store untouched and
// returns the typed rejection.
func (s *ingestService) IngestLine(line string, lineNumber uint64) (*model.LogRecord, error) {
	record, err := s.normalizer.Normalize(line, lineNumber)
	if err != nil {
		reason := "unknown"
		if r, ok := parser.ReasonOf(err); ok {
			reason = r.String()
		}
		s.recorder.RecordRejected(reason)
		log.Warn().Err(err).Uint64("line", lineNumber).Str("reason", reason).Msg("Failed to parse log line")
		return nil, err
	}

	if err := s.store.Append(record); err != nil {
		log.Error().Err(err).Uint64("line", lineNumber).Msg("Failed to store record")
		return nil, err
	}
	s.recorder.RecordIngested(record)
	s.recorder.SetStoreSize(s.store.Len())

	s.broadcaster.Publish(record)
	return record, nil
}
