package history

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of entries kept when no capacity is configured.
const DefaultCapacity = 10

// Lifecycle action names recorded alongside console commands.
const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionRestart = "restart"
)

// Entry is an immutable record of one administrative action.
type Entry struct {
	User      string    `json:"user"`
	Command   string    `json:"command"`
	Timestamp time.Time `json:"timestamp"`
	Result    string    `json:"result"`
}

// Log is a fixed-capacity ring of entries. It is safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	head    int // index of the oldest entry
	size    int
	now     func() time.Time
}

// New creates a log that keeps at most capacity entries.
// A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries: make([]Entry, capacity),
		now:     time.Now,
	}
}

// Append adds an entry, evicting the oldest one when the log is full.
// A zero Timestamp is replaced with the current time.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}

	capacity := len(l.entries)
	if l.size < capacity {
		l.entries[(l.head+l.size)%capacity] = e
		l.size++
		return
	}

	// Full: overwrite the oldest slot and advance head.
	l.entries[l.head] = e
	l.head = (l.head + 1) % capacity
}

// List returns a copy of the entries ordered oldest to newest.
func (l *Log) List() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, 0, l.size)
	for i := 0; i < l.size; i++ {
		out = append(out, l.entries[(l.head+i)%len(l.entries)])
	}
	return out
}

// Len returns the number of entries currently held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Capacity returns the maximum number of entries the log keeps.
func (l *Log) Capacity() int {
	return len(l.entries)
}
