package player

import (
	"sync"

	"github.com/varkess/beatwarden/internal/domain/track"
)

// Queue is the unbounded FIFO of pending tracks for one guild.
// Enqueue never blocks and never fails. Consumers park on Wake()
// while the queue is empty instead of polling.
type Queue struct {
	mu    sync.Mutex
	items []track.Track
	wake  chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Enqueue appends t and wakes a parked consumer, if any.
func (q *Queue) Enqueue(t track.Track) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// TryDequeue removes and returns the front track.
// ok is false when the queue is empty.
func (q *Queue) TryDequeue() (track.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return track.Track{}, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}

// Clear atomically drops every pending track.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

// Len returns the number of pending tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Tracks returns a copy of the pending tracks in playback order.
func (q *Queue) Tracks() []track.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]track.Track, len(q.items))
	copy(result, q.items)
	return result
}

// Wake returns the channel a consumer parks on while the queue is
// empty. The channel holds at most one pending signal; consumers must
// re-check TryDequeue after waking.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}
