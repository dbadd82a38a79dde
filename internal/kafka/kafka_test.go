package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"jsonweblog/internal/kafka"
	"jsonweblog/internal/model"
	"jsonweblog/internal/source"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkago "github.com/segmentio/kafka-go"
)

type fakeReader struct {
	messages  []kafkago.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.messages) == 0 {
		return kafkago.Message{}, context.Canceled
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type fakeWriter struct {
	written []kafkago.Message
	err     error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	return nil
}

func TestLineSource_ReadLine(t *testing.T) {
	reader := &fakeReader{messages: []kafkago.Message{
		{Offset: 1, Value: []byte(`{"msg":"a"}`)},
		{Offset: 2, Value: []byte(`0123456789abc`)},
		{Offset: 3, Value: []byte(``)},
	}}
	s := kafka.NewLineSource(reader, 12)

	line, err := s.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"msg":"a"}`, line)

	_, err = s.ReadLine(context.Background())
	assert.ErrorIs(t, err, source.ErrLineTooLong)

	line, err = s.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Empty(t, line)

	_, err = s.ReadLine(context.Background())
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	require.NoError(t, s.Close())
	assert.True(t, reader.closed)
}

func TestRecordForwarder_Forward(t *testing.T) {
	writer := &fakeWriter{}
	f := kafka.NewRecordForwarder(writer, "records")

	records := []*model.LogRecord{
		{Sequence: 7, Level: model.LevelError, Logger: "db", Message: "disk full"},
		{Sequence: 8, Level: model.LevelInfo, Logger: "http", Message: "ok"},
	}
	require.NoError(t, f.Forward(context.Background(), records))
	require.Len(t, writer.written, 2)

	first := writer.written[0]
	assert.Equal(t, "db", string(first.Key))
	assert.Equal(t, []kafkago.Header{
		{Key: "sequence", Value: []byte("7")},
		{Key: "level", Value: []byte("ERROR")},
	}, first.Headers)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(first.Value, &decoded))
	assert.Equal(t, "disk full", decoded["message"])
	assert.Equal(t, "ERROR", decoded["level"])
}

func TestRecordForwarder_Empty(t *testing.T) {
	writer := &fakeWriter{err: errors.New("should not be called")}
	f := kafka.NewRecordForwarder(writer, "records")

	assert.NoError(t, f.Forward(context.Background(), nil))
}

func TestRecordForwarder_WriteError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	f := kafka.NewRecordForwarder(writer, "records")

	err := f.Forward(context.Background(), []*model.LogRecord{{Sequence: 1}})
	assert.EqualError(t, err, "broker down")
}
