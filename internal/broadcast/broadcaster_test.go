package broadcast_test

import (
	"context"
	"jsonweblog/internal/broadcast"
	"jsonweblog/internal/metrics"
	"jsonweblog/internal/model"
	"jsonweblog/internal/schema"
	"jsonweblog/internal/store"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(seq uint64) *model.LogRecord {
	return &model.LogRecord{Sequence: seq, Level: model.LevelInfo, Logger: "unknown"}
}

func next(t *testing.T, sub *broadcast.Subscription) *model.LogRecord {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r, err := sub.Next(ctx)
	require.NoError(t, err)
	return r
}

// appendAndPublish mirrors the ingestion order: store first, then fan-out.
func appendAndPublish(t *testing.T, s store.RecordStore, b broadcast.Broadcaster, seq uint64) {
	t.Helper()
	r := record(seq)
	require.NoError(t, s.Append(r))
	b.Publish(r)
}

func TestBroadcaster_BacklogThenLive(t *testing.T) {
	s := store.NewInMemoryRecordStore(100, schema.NewTracker())
	b := broadcast.NewBroadcaster(s, 10, nil)

	appendAndPublish(t, s, b, 1)
	appendAndPublish(t, s, b, 2)

	sub := b.Subscribe()
	defer sub.Close()

	appendAndPublish(t, s, b, 3)
	appendAndPublish(t, s, b, 4)

	got := []uint64{}
	for i := 0; i < 4; i++ {
		got = append(got, next(t, sub).Sequence)
	}
	assert.Equal(t, []uint64{1, 2, 3, 4}, got)
}

func TestBroadcaster_NoDuplicateWhenRecordIsInBacklogAndQueue(t *testing.T) {
	s := store.NewInMemoryRecordStore(100, nil)
	b := broadcast.NewBroadcaster(s, 10, nil)

	sub := b.Subscribe(broadcast.WithoutBacklog())
	defer sub.Close()

	// Record 1 is stored before the second subscriber snapshots the store but
	// published after it registered, so it reaches both backlog and queue.
	r1 := record(1)
	require.NoError(t, s.Append(r1))
	late := b.Subscribe()
	defer late.Close()
	b.Publish(r1)
	appendAndPublish(t, s, b, 2)

	assert.Equal(t, uint64(1), next(t, late).Sequence)
	assert.Equal(t, uint64(2), next(t, late).Sequence)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := late.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBroadcaster_WithoutBacklog(t *testing.T) {
	s := store.NewInMemoryRecordStore(100, nil)
	b := broadcast.NewBroadcaster(s, 10, nil)

	appendAndPublish(t, s, b, 1)
	sub := b.Subscribe(broadcast.WithoutBacklog(), broadcast.WithName("sink"))
	defer sub.Close()
	appendAndPublish(t, s, b, 2)

	assert.Equal(t, uint64(2), next(t, sub).Sequence)
}

func TestBroadcaster_OrderAcrossSubscribers(t *testing.T) {
	b := broadcast.NewBroadcaster(nil, 100, nil)

	subs := []*broadcast.Subscription{b.Subscribe(), b.Subscribe(), b.Subscribe()}
	for i := uint64(1); i <= 50; i++ {
		b.Publish(record(i))
	}

	for _, sub := range subs {
		for i := uint64(1); i <= 50; i++ {
			assert.Equal(t, i, next(t, sub).Sequence)
		}
		sub.Close()
	}
}

func TestBroadcaster_OverflowDropsOldestWithoutBlocking(t *testing.T) {
	recorder := metrics.NewRecorder()
	b := broadcast.NewBroadcaster(nil, 3, recorder)

	slow := b.Subscribe(broadcast.WithoutBacklog())
	defer slow.Close()

	done := make(chan struct{})
	go func() {
		for i := uint64(1); i <= 10; i++ {
			b.Publish(record(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	assert.Equal(t, uint64(7), slow.Dropped())
	assert.Equal(t, uint64(7), b.Dropped())
	assert.Equal(t, uint64(7), recorder.Totals().Dropped)

	assert.Equal(t, uint64(8), next(t, slow).Sequence)
	assert.Equal(t, uint64(9), next(t, slow).Sequence)
	assert.Equal(t, uint64(10), next(t, slow).Sequence)
}

func TestBroadcaster_CloseDeregistersOnlyThatSubscriber(t *testing.T) {
	b := broadcast.NewBroadcaster(nil, 10, nil)

	a := b.Subscribe()
	c := b.Subscribe()
	assert.Equal(t, 2, b.SubscriberCount())

	a.Close()
	a.Close()
	assert.Equal(t, 1, b.SubscriberCount())

	_, err := a.Next(context.Background())
	assert.ErrorIs(t, err, broadcast.ErrSubscriptionClosed)

	b.Publish(record(1))
	assert.Equal(t, uint64(1), next(t, c).Sequence)
	c.Close()
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBroadcaster_NextUnblocksOnClose(t *testing.T) {
	b := broadcast.NewBroadcaster(nil, 10, nil)
	sub := b.Subscribe()

	errCh := make(chan error, 1)
	go func() {
		_, err := sub.Next(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	b.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, broadcast.ErrSubscriptionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after Close")
	}
}

func TestBroadcaster_ConcurrentSubscribeDuringIngest(t *testing.T) {
	s := store.NewInMemoryRecordStore(10_000, nil)
	b := broadcast.NewBroadcaster(s, 10_000, nil)
	const total = 2000

	var wg sync.WaitGroup
	results := make([][]uint64, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			time.Sleep(time.Duration(i) * time.Millisecond)
			sub := b.Subscribe()
			defer sub.Close()
			for {
				r := next(t, sub)
				results[i] = append(results[i], r.Sequence)
				if r.Sequence == total {
					return
				}
			}
		}(i)
	}

	for i := uint64(1); i <= total; i++ {
		appendAndPublish(t, s, b, i)
	}
	wg.Wait()

	for _, seqs := range results {
		require.NotEmpty(t, seqs)
		for j := 1; j < len(seqs); j++ {
			assert.Equal(t, seqs[j-1]+1, seqs[j])
		}
	}
}
