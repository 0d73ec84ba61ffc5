package logging

import "sync"

// DefaultBufferSize is the default ring buffer capacity for the TUI
// log pane.
const DefaultBufferSize = 100

// LogBuffer keeps the most recent log entries in a fixed-size ring.
type LogBuffer struct {
	entries []LogEntry
	maxSize int
	start   int // index of the oldest entry
	count   int
	mu      sync.RWMutex
}

// NewLogBuffer creates a buffer holding up to maxSize entries.
func NewLogBuffer(maxSize int) *LogBuffer {
	if maxSize <= 0 {
		maxSize = DefaultBufferSize
	}
	return &LogBuffer{
		entries: make([]LogEntry, maxSize),
		maxSize: maxSize,
	}
}

// Add appends an entry, overwriting the oldest when full.
func (b *LogBuffer) Add(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := (b.start + b.count) % b.maxSize
	b.entries[idx] = entry

	if b.count < b.maxSize {
		b.count++
	} else {
		b.start = (b.start + 1) % b.maxSize
	}
}

// Entries returns a copy of all buffered entries, oldest first.
func (b *LogBuffer) Entries() []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]LogEntry, b.count)
	for i := 0; i < b.count; i++ {
		result[i] = b.entries[(b.start+i)%b.maxSize]
	}
	return result
}

// Last returns the most recent n entries, newest last. Fewer are
// returned when the buffer holds fewer.
func (b *LogBuffer) Last(n int) []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.count {
		n = b.count
	}

	result := make([]LogEntry, n)
	offset := b.count - n
	for i := 0; i < n; i++ {
		result[i] = b.entries[(b.start+offset+i)%b.maxSize]
	}
	return result
}

// Len returns the number of buffered entries.
func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Clear empties the buffer.
func (b *LogBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start = 0
	b.count = 0
}
