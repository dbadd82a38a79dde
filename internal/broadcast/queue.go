package broadcast

import (
	"sync"
)

type DropCallback[T any] func(item T)

type QueueOption[T any] func(*queueOptions[T])

type queueOptions[T any] struct {
	dropCallback DropCallback[T]
}

// WithDropCallback is called outside the queue lock for every dropped item.
func WithDropCallback[T any](callback DropCallback[T]) QueueOption[T] {
	return func(opts *queueOptions[T]) {
		opts.dropCallback = callback
	}
}

// Queue is a bounded FIFO ring that never blocks the writer. When full, a
// push evicts the oldest item and counts it as dropped.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // next read position
	dropped  uint64
	closed   bool
	notify   chan struct{}
	opts     queueOptions[T]
}

func NewQueue[T any](capacity int, options ...QueueOption[T]) *Queue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	var opts queueOptions[T]
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	return &Queue[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		notify:   make(chan struct{}, 1),
		opts:     opts,
	}
}

// Push enqueues item, evicting the oldest entry when the queue is full. It
// reports false only when the queue is closed.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		return false
	}

	var (
		droppedItem T
		didDrop     bool
	)
	if q.size == q.capacity {
		q.dropped++
		didDrop = true
		droppedItem = q.items[q.tail]
		q.tail = (q.tail + 1) % q.capacity
		q.size--
	}

	q.items[q.head] = item
	q.head = (q.head + 1) % q.capacity
	q.size++
	q.mu.Unlock()

	q.signal()
	if didDrop {
		q.onDrop(droppedItem)
	}
	return true
}

// Pop removes the oldest item. ok is false when the queue is empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.size == 0 {
		return zero, false
	}
	item = q.items[q.tail]
	q.items[q.tail] = zero
	q.tail = (q.tail + 1) % q.capacity
	q.size--
	return item, true
}

// Ready receives a value after at least one Push since the last receive.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.notify
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *Queue[T]) Capacity() int {
	return q.capacity
}

func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close rejects further pushes. Items already queued can still be popped.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *Queue[T]) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) onDrop(item T) {
	if q.opts.dropCallback != nil {
		q.opts.dropCallback(item)
	}
}
