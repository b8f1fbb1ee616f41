package repositories

import (
	"slices"
	"sync"

	"mwalimu-chat/contract"
	"mwalimu-chat/domain"
)

var _ contract.IHistory = (*MemoryHistory)(nil)

// MemoryHistory keeps accepted messages in a slice, in acceptance order.
// When maxSize > 0 the oldest messages are dropped past that size.
type MemoryHistory struct {
	mu       sync.RWMutex
	messages []domain.Message
	maxSize  int
}

// NewMemoryHistory returns an empty history, maxSize 0 keeps everything.
func NewMemoryHistory(maxSize int) *MemoryHistory {
	return &MemoryHistory{maxSize: maxSize}
}

// Append adds a message at the tail then evicts from the head:
//  1. The slice grows by one, in acceptance order.
//  2. Past maxSize, the oldest messages are dropped.
//  3. The backing array is compacted once the dropped prefix outgrows the window.
func (h *MemoryHistory) Append(message domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, message)
	if h.maxSize > 0 && len(h.messages) > h.maxSize {
		// Reslicing keeps the dropped prefix alive in the backing array,
		// compact once it is as large as the window itself.
		h.messages = h.messages[len(h.messages)-h.maxSize:]
		if cap(h.messages) >= 2*h.maxSize {
			h.messages = slices.Clone(h.messages)
		}
	}
	return nil
}

// Recent returns a copy, later appends never alter it.
func (h *MemoryHistory) Recent(limit int) ([]domain.Message, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	start := 0
	if limit > 0 && len(h.messages) > limit {
		start = len(h.messages) - limit
	}
	return slices.Clone(h.messages[start:]), nil
}

// Len is the number of messages currently kept.
func (h *MemoryHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}
