package history

import (
	"errors"
	"iter"
	"sort"
	"time"
)

// ErrFrozen is returned when events are added to a store that has already
// been frozen.
var ErrFrozen = errors.New("event store is frozen")

// EventStore collects play events from one or more export files and, once
// frozen, holds them as a single timeline that is strictly increasing by
// timestamp.
//
// The timestamp doubles as the deduplication key: export files overlap, and
// two events with the same timestamp are taken to be the same play. When
// that happens the first event seen (in ingestion order) is kept and every
// later one is silently discarded. That is documented policy, not an error.
//
// Freezing is one-way. After Freeze the store is read-only and safe for
// concurrent readers.
type EventStore struct {
	events []PlayEvent
	frozen bool
}

func NewStore() *EventStore {
	return &EventStore{}
}

// Add appends a batch of events in ingestion order. The input may be
// unsorted and may contain timestamp collisions; both are resolved by
// Freeze.
func (s *EventStore) Add(events ...PlayEvent) error {
	if s.frozen {
		return ErrFrozen
	}
	s.events = append(s.events, events...)
	return nil
}

// Freeze orders the timeline and applies first-seen-wins deduplication.
// The sort is stable, so events sharing a timestamp keep their ingestion
// order and the first-ingested one survives. Freeze is idempotent.
func (s *EventStore) Freeze() {
	if s.frozen {
		return
	}
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].Timestamp.Before(s.events[j].Timestamp)
	})

	deduped := s.events[:0]
	for i, e := range s.events {
		if i > 0 && e.Timestamp.Equal(s.events[i-1].Timestamp) {
			continue
		}
		deduped = append(deduped, e)
	}
	s.events = deduped
	s.frozen = true
}

func (s *EventStore) Frozen() bool {
	return s.frozen
}

// Len is the number of events, which after Freeze equals the number of
// distinct timestamps ingested.
func (s *EventStore) Len() int {
	return len(s.events)
}

// All iterates over the timeline in timestamp order.
func (s *EventStore) All() iter.Seq[PlayEvent] {
	return func(yield func(PlayEvent) bool) {
		for _, e := range s.events {
			if !yield(e) {
				return
			}
		}
	}
}

// Select iterates, in timestamp order, over the events for which keep
// returns true. The pass is lazy: nothing is copied and iteration stops as
// soon as the consumer does.
func (s *EventStore) Select(keep func(PlayEvent) bool) iter.Seq[PlayEvent] {
	return func(yield func(PlayEvent) bool) {
		for _, e := range s.events {
			if !keep(e) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Between returns the events with start <= timestamp < end as a view of the
// stored order, located by binary search. The slice must not be modified.
func (s *EventStore) Between(start, end time.Time) []PlayEvent {
	if end.Before(start) {
		return nil
	}
	lo := sort.Search(len(s.events), func(i int) bool {
		return !s.events[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(s.events), func(i int) bool {
		return !s.events[i].Timestamp.Before(end)
	})
	return s.events[lo:hi]
}

// Window returns a frozen store restricted to start <= timestamp < end.
// It shares the underlying events with s.
func (s *EventStore) Window(start, end time.Time) *EventStore {
	return &EventStore{events: s.Between(start, end), frozen: true}
}

// First returns the earliest timestamp, or false for an empty store.
func (s *EventStore) First() (time.Time, bool) {
	if len(s.events) == 0 {
		return time.Time{}, false
	}
	return s.events[0].Timestamp, true
}

// Last returns the latest timestamp, or false for an empty store.
func (s *EventStore) Last() (time.Time, bool) {
	if len(s.events) == 0 {
		return time.Time{}, false
	}
	return s.events[len(s.events)-1].Timestamp, true
}
