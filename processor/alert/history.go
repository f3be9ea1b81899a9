package alert

import (
	"sort"
	"sync"

	"github.com/industriverse/capstream/pkg/buffer"
	"github.com/industriverse/capstream/types"
)

// defaultHistorySize bounds the per-source reading history.
const defaultHistorySize = 1000

// ReadingHistory retains the last N readings per source in a ring buffer.
// The history is context for operators and future rule work (trends, flap
// suppression); it is not authoritative state and is never persisted.
type ReadingHistory struct {
	mu      sync.Mutex
	size    int
	sources map[string]buffer.Buffer[types.Reading]
}

// NewReadingHistory creates a history retaining size readings per source.
func NewReadingHistory(size int) *ReadingHistory {
	if size <= 0 {
		size = defaultHistorySize
	}
	return &ReadingHistory{
		size:    size,
		sources: make(map[string]buffer.Buffer[types.Reading]),
	}
}

// Record appends a reading to its source's ring, evicting the oldest entry
// once the ring is full.
func (h *ReadingHistory) Record(reading types.Reading) {
	h.mu.Lock()
	ring, ok := h.sources[reading.SourceID]
	if !ok {
		var err error
		ring, err = buffer.NewCircularBuffer[types.Reading](h.size,
			buffer.WithOverflowPolicy[types.Reading](buffer.DropOldest))
		if err != nil {
			h.mu.Unlock()
			return
		}
		h.sources[reading.SourceID] = ring
	}
	h.mu.Unlock()

	_ = ring.Write(reading)
}

// Last returns up to max of the most recent readings for a source, oldest
// first. max <= 0 returns everything retained. A nil result means the
// source has never been seen.
func (h *ReadingHistory) Last(sourceID string, max int) []types.Reading {
	h.mu.Lock()
	ring, ok := h.sources[sourceID]
	h.mu.Unlock()
	if !ok {
		return nil
	}

	items := ring.Items()
	if max > 0 && len(items) > max {
		items = items[len(items)-max:]
	}
	return items
}

// Sources lists the source IDs with recorded history, sorted.
func (h *ReadingHistory) Sources() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, 0, len(h.sources))
	for id := range h.sources {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SourceCount returns the number of sources with recorded history.
func (h *ReadingHistory) SourceCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sources)
}
