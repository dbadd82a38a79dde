package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"jsonweblog/config"
	"jsonweblog/internal/model"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the forwarder needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RecordForwarder publishes normalized records to a Kafka topic.
type RecordForwarder interface {
	Forward(ctx context.Context, records []*model.LogRecord) error
	Close() error
}

type kafkaRecordForwarder struct {
	writer MessageWriter
	topic  string
}

func NewKafkaRecordForwarder(cfg *config.Config) (RecordForwarder, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.ForwardTopic == "" {
		return nil, errors.New("kafka forward configuration missing")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.ForwardTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 500 * time.Millisecond,
		Async:        true,
	}
	log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.ForwardTopic).Msg("Kafka producer initialized")
	return NewRecordForwarder(writer, cfg.Kafka.ForwardTopic), nil
}

func NewRecordForwarder(writer MessageWriter, topic string) RecordForwarder {
	return &kafkaRecordForwarder{
		writer: writer,
		topic:  topic,
	}
}

// Forward writes one message per record, keyed by logger so records of one
// logger stay on one partition.
func (p *kafkaRecordForwarder) Forward(ctx context.Context, records []*model.LogRecord) error {
	if len(records) == 0 {
		return nil
	}
	messages := make([]kafka.Message, 0, len(records))

	for _, record := range records {
		value, err := json.Marshal(record)
		if err != nil {
			log.Error().Err(err).Uint64("sequence", record.Sequence).Msg("Failed to marshal record for Kafka")
			continue
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(record.Logger),
			Value: value,
			Headers: []kafka.Header{
				{Key: "sequence", Value: []byte(strconv.FormatUint(record.Sequence, 10))},
				{Key: "level", Value: []byte(record.Level.String())},
			},
		})
	}
	if len(messages) == 0 {
		log.Warn().Msg("No valid messages to produce.")
		return nil
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		log.Error().Err(err).Int("message_count", len(messages)).Msg("Failed to write messages to Kafka")
		return err
	}

	log.Debug().Int("message_count", len(messages)).Str("topic", p.topic).Msg("Successfully produced messages to Kafka")
	return nil
}

func (p *kafkaRecordForwarder) Close() error {
	return p.writer.Close()
}
