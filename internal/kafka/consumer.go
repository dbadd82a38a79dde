package kafka

import (
	"context"
	"jsonweblog/config"
	"jsonweblog/internal/source"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafka.Reader the line source needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaLineSource struct {
	reader       MessageReader
	maxLineBytes int
}

// NewKafkaLineSource consumes the log topic, one message value per line.
func NewKafkaLineSource(cfg *config.Config) source.LineSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.ConsumerGroup,
		Topic:          cfg.Kafka.LogTopic,
		MinBytes:       1,
		MaxBytes:       max(cfg.Input.MaxLineBytes, 10_000_000),
		MaxWait:        time.Second,
		CommitInterval: 0,
		StartOffset:    kafka.LastOffset,
	})
	log.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.LogTopic).
		Str("group", cfg.Kafka.ConsumerGroup).
		Msg("Kafka consumer initialized")
	return NewLineSource(reader, cfg.Input.MaxLineBytes)
}

func NewLineSource(reader MessageReader, maxLineBytes int) source.LineSource {
	if maxLineBytes <= 0 {
		maxLineBytes = source.DefaultMaxLineBytes
	}
	return &kafkaLineSource{
		reader:       reader,
		maxLineBytes: maxLineBytes,
	}
}

// ReadLine fetches the next message and commits it right away; the viewer
// favours liveness over redelivery.
func (c *kafkaLineSource) ReadLine(ctx context.Context) (string, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Fail when fetching Kafka message.")
		return "", err
	}
	log.Trace().
		Str("topic", msg.Topic).
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Msg("Fetched message from Kafka")

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to commit Kafka message")
	}

	if len(msg.Value) > c.maxLineBytes {
		return "", source.ErrLineTooLong
	}
	return string(msg.Value), nil
}

func (c *kafkaLineSource) Close() error {
	return c.reader.Close()
}
