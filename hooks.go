package achievesync

import (
	gosync "sync"

	"github.com/agentstation/achievesync/pkg/entries"
)

// Hook function types for delivery events
type (
	// EntryDeliveredHook is called for every entry the tracker confirmed
	EntryDeliveredHook func(category string, e *entries.Entry)

	// BatchFailedHook is called when a batch is abandoned after its retries
	BatchFailedHook func(category string, ids []string, err error)
)

// Hooks registers callbacks for delivery events.
type Hooks interface {
	OnEntryDelivered(fn EntryDeliveredHook)
	OnBatchFailed(fn BatchFailedHook)
}

// hooks manages event callbacks
type hooks struct {
	mu               gosync.RWMutex
	onEntryDelivered []EntryDeliveredHook
	onBatchFailed    []BatchFailedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnEntryDelivered registers a callback for delivered entries
func (h *hooks) OnEntryDelivered(fn EntryDeliveredHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEntryDelivered = append(h.onEntryDelivered, fn)
}

// OnBatchFailed registers a callback for abandoned batches
func (h *hooks) OnBatchFailed(fn BatchFailedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onBatchFailed = append(h.onBatchFailed, fn)
}

func (h *hooks) triggerEntryDelivered(category string, e *entries.Entry) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onEntryDelivered {
		hook(category, e)
	}
}

func (h *hooks) triggerBatchFailed(category string, ids []string, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onBatchFailed {
		hook(category, ids, err)
	}
}

// OnEntryDelivered implements Hooks.
func (c *client) OnEntryDelivered(fn EntryDeliveredHook) {
	c.hooks.OnEntryDelivered(fn)
}

// OnBatchFailed implements Hooks.
func (c *client) OnBatchFailed(fn BatchFailedHook) {
	c.hooks.OnBatchFailed(fn)
}
