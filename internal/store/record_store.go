package store

import (
	"errors"
	"jsonweblog/internal/filter"
	"jsonweblog/internal/model"
	"jsonweblog/internal/schema"
	"sync"
)

// DefaultCapacity is the number of records retained when no capacity is configured.
const DefaultCapacity = 100_000

var (
	ErrNilRecord = errors.New("nil record")
)

// RecordStore keeps the most recent records in arrival order.
type RecordStore interface {
	Append(record *model.LogRecord) error
	Snapshot(f *filter.LogFilter) ([]*model.LogRecord, int)
	Clear()
	Len() int
	Capacity() int
}

type inMemoryRecordStore struct {
	mu       sync.RWMutex
	records  []*model.LogRecord
	head     int // index of the oldest live record
	capacity int
	schema   schema.Tracker

	schemaOnce sync.Once
}

func NewInMemoryRecordStore(capacity int, tracker schema.Tracker) RecordStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &inMemoryRecordStore{
		records:  make([]*model.LogRecord, 0, min(capacity, 1024)),
		capacity: capacity,
		schema:   tracker,
	}
}

// Append adds record at the tail. When the store grows past its capacity the
// oldest records are evicted in one step so exactly capacity records remain.
func (s *inMemoryRecordStore) Append(record *model.LogRecord) error {
	if record == nil {
		return ErrNilRecord
	}

	s.mu.Lock()
	s.records = append(s.records, record)
	if over := len(s.records) - s.head - s.capacity; over > 0 {
		for i := s.head; i < s.head+over; i++ {
			s.records[i] = nil
		}
		s.head += over
		if s.head >= s.capacity {
			s.compact()
		}
	}
	s.mu.Unlock()

	s.schemaOnce.Do(func() {
		if s.schema != nil {
			s.schema.InitializeOnce(record.RawFields.Keys())
		}
	})
	return nil
}

// compact moves live records to the front of a fresh slice. Caller holds mu.
func (s *inMemoryRecordStore) compact() {
	live := make([]*model.LogRecord, len(s.records)-s.head, s.capacity+1)
	copy(live, s.records[s.head:])
	s.records = live
	s.head = 0
}

// Snapshot returns the records matching f in arrival order together with the
// total number of stored records, both observed under the same lock.
func (s *inMemoryRecordStore) Snapshot(f *filter.LogFilter) ([]*model.LogRecord, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	live := s.records[s.head:]
	total := len(live)

	if f.IsEmpty() {
		out := make([]*model.LogRecord, total)
		copy(out, live)
		return out, total
	}

	out := make([]*model.LogRecord, 0)
	for _, record := range live {
		if f.Matches(record) {
			out = append(out, record)
		}
	}
	return out, total
}

// Clear drops every stored record. The schema is left untouched.
func (s *inMemoryRecordStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]*model.LogRecord, 0, min(s.capacity, 1024))
	s.head = 0
}

func (s *inMemoryRecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records) - s.head
}

func (s *inMemoryRecordStore) Capacity() int {
	return s.capacity
}
