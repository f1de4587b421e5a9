package service

import (
	"sync"

	"github.com/raphaelgruber/showrunner/internal/models"
)

// subscriberBuffer is the per-subscriber event backlog. Events beyond it are dropped.
const subscriberBuffer = 64

// Broadcaster fans generation events out to subscribers of a series.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]map[chan models.GenerationEvent]struct{}
}

// NewBroadcaster creates a broadcaster without subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[chan models.GenerationEvent]struct{})}
}

// Subscribe returns a channel receiving the events of one series. Calling cancel closes it.
func (b *Broadcaster) Subscribe(seriesID string) (<-chan models.GenerationEvent, func()) {
	ch := make(chan models.GenerationEvent, subscriberBuffer)

	b.mu.Lock()
	if b.subs[seriesID] == nil {
		b.subs[seriesID] = make(map[chan models.GenerationEvent]struct{})
	}
	b.subs[seriesID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[seriesID], ch)
			if len(b.subs[seriesID]) == 0 {
				delete(b.subs, seriesID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber of its series without blocking.
func (b *Broadcaster) Publish(ev models.GenerationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.SeriesID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of subscribers of a series.
func (b *Broadcaster) Subscribers(seriesID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[seriesID])
}
