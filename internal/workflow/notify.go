package workflow

import (
	"slices"
	"sync"
)

// hub fans snapshots out to subscribers. Publishing is serialized and always reads the latest
// snapshot, so subscribers never see an older state after a newer one.
// Subscribers must not call back into the publisher synchronously.
type hub[T any] struct {
	notifyMu sync.Mutex

	mu   sync.Mutex
	subs map[int]func(T)
	next int
}

func (h *hub[T]) subscribe(fn func(T)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]func(T))
	}
	id := h.next
	h.next++
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func (h *hub[T]) publish(latest func() T) {
	h.notifyMu.Lock()
	defer h.notifyMu.Unlock()

	h.mu.Lock()
	ids := make([]int, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.subs[id])
	}
	h.mu.Unlock()

	if len(fns) == 0 {
		return
	}
	snap := latest()
	for _, fn := range fns {
		fn(snap)
	}
}
