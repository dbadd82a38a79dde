// Package broadcast fans stored records out to live subscribers.
package broadcast

import (
	"context"
	"errors"
	"jsonweblog/internal/filter"
	"jsonweblog/internal/metrics"
	"jsonweblog/internal/model"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultQueueSize bounds each subscriber queue when no size is configured.
const DefaultQueueSize = 1000

var (
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// BacklogSource provides the records a new subscriber receives first.
type BacklogSource interface {
	Snapshot(f *filter.LogFilter) ([]*model.LogRecord, int)
}

type Broadcaster interface {
	Subscribe(opts ...SubscribeOption) *Subscription
	Publish(record *model.LogRecord)
	SubscriberCount() int
	Dropped() uint64
	Close()
}

type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	backlog   bool
	queueSize int
	name      string
}

// WithoutBacklog starts the subscription at the next published record.
func WithoutBacklog() SubscribeOption {
	return func(c *subscribeConfig) {
		c.backlog = false
	}
}

func WithQueueSize(size int) SubscribeOption {
	return func(c *subscribeConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithName labels the subscriber in logs.
func WithName(name string) SubscribeOption {
	return func(c *subscribeConfig) {
		c.name = name
	}
}

type broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscription
	source      BacklogSource
	queueSize   int
	recorder    metrics.Recorder
	dropped     atomic.Uint64
}

func NewBroadcaster(source BacklogSource, queueSize int, recorder metrics.Recorder) Broadcaster {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &broadcaster{
		subscribers: make(map[string]*Subscription),
		source:      source,
		queueSize:   queueSize,
		recorder:    recorder,
	}
}

// Subscribe registers a subscriber before taking the backlog snapshot, so a
// record appended in between is seen either in the backlog or on the queue.
// Queue entries already covered by the backlog are skipped by Next.
func (b *broadcaster) Subscribe(opts ...SubscribeOption) *Subscription {
	cfg := subscribeConfig{backlog: true, queueSize: b.queueSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	sub := &Subscription{
		id:          uuid.NewString(),
		name:        cfg.name,
		broadcaster: b,
		done:        make(chan struct{}),
	}
	sub.queue = NewQueue[*model.LogRecord](cfg.queueSize, WithDropCallback[*model.LogRecord](func(*model.LogRecord) {
		b.dropped.Add(1)
		if b.recorder != nil {
			b.recorder.RecordDropped(1)
		}
	}))

	b.mu.Lock()
	b.subscribers[sub.id] = sub
	count := len(b.subscribers)
	b.mu.Unlock()

	if cfg.backlog && b.source != nil {
		sub.backlog, _ = b.source.Snapshot(nil)
		if n := len(sub.backlog); n > 0 {
			sub.lastBacklogSeq = sub.backlog[n-1].Sequence
		}
	}

	if b.recorder != nil {
		b.recorder.SetSubscribers(count)
	}
	log.Debug().
		Str("subscriber_id", sub.id).
		Str("name", cfg.name).
		Int("backlog", len(sub.backlog)).
		Int("subscribers", count).
		Msg("Subscriber registered")
	return sub
}

// Publish hands record to every subscriber queue. It never blocks on a slow
// subscriber; full queues drop their oldest entry.
func (b *broadcaster) Publish(record *model.LogRecord) {
	if record == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		sub.queue.Push(record)
	}
}

func (b *broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Close ends every subscription.
func (b *broadcaster) Close() {
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.Close()
	}
}

func (b *broadcaster) remove(id string) {
	b.mu.Lock()
	delete(b.subscribers, id)
	count := len(b.subscribers)
	b.mu.Unlock()

	if b.recorder != nil {
		b.recorder.SetSubscribers(count)
	}
}

// Subscription delivers the backlog and then live records in sequence order.
// Next must be called from one goroutine at a time; Close is safe from any.
type Subscription struct {
	id          string
	name        string
	broadcaster *broadcaster
	queue       *Queue[*model.LogRecord]
	done        chan struct{}
	closeOnce   sync.Once

	backlog        []*model.LogRecord
	lastBacklogSeq uint64
}

func (s *Subscription) ID() string {
	return s.id
}

// Dropped reports how many records this subscriber lost to queue overflow.
func (s *Subscription) Dropped() uint64 {
	return s.queue.Dropped()
}

// TryNext returns the next record without blocking.
func (s *Subscription) TryNext() (*model.LogRecord, bool) {
	if len(s.backlog) > 0 {
		record := s.backlog[0]
		s.backlog[0] = nil
		s.backlog = s.backlog[1:]
		return record, true
	}

	for {
		record, ok := s.queue.Pop()
		if !ok {
			return nil, false
		}
		if record.Sequence > s.lastBacklogSeq {
			return record, true
		}
	}
}

// Next blocks until a record is available, ctx is done or the subscription is
// closed.
func (s *Subscription) Next(ctx context.Context) (*model.LogRecord, error) {
	for {
		select {
		case <-s.done:
			return nil, ErrSubscriptionClosed
		default:
		}

		if record, ok := s.TryNext(); ok {
			return record, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.done:
			return nil, ErrSubscriptionClosed
		case <-s.queue.Ready():
		}
	}
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close deregisters the subscriber. Other subscribers are unaffected.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.broadcaster.remove(s.id)
		s.queue.Close()
		close(s.done)
		log.Debug().
			Str("subscriber_id", s.id).
			Str("name", s.name).
			Uint64("dropped", s.queue.Dropped()).
			Msg("Subscriber removed")
	})
}
