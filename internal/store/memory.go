package store

import (
	"context"
	"sync"
	"time"

	"taste-haven-assistant/internal/assistant"
)

// Tab is one browser tab's container plus the notices waiting to be
// delivered with its next response.
type Tab struct {
	ID      string
	State   *assistant.State
	Notices *assistant.NoticeQueue
}

// StateFactory builds a fresh container that reports notices to q.
type StateFactory func(q *assistant.NoticeQueue) *assistant.State

type tabEntry struct {
	tab      *Tab
	lastSeen time.Time
}

// TabRegistry keeps containers in memory only. A tab that stays idle longer
// than ttl is evicted, which is the server-side version of a reload.
type TabRegistry struct {
	mu      sync.Mutex
	tabs    map[string]*tabEntry
	ttl     time.Duration
	factory StateFactory
	now     func() time.Time
}

func NewTabRegistry(ttl time.Duration, factory StateFactory) *TabRegistry {
	return &TabRegistry{
		tabs:    make(map[string]*tabEntry),
		ttl:     ttl,
		factory: factory,
		now:     time.Now,
	}
}

// GetOrCreate returns the tab for id, creating a container when the id is
// unknown or expired. created reports whether a new container was built.
func (r *TabRegistry) GetOrCreate(id string) (tab *Tab, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if e, ok := r.tabs[id]; ok && !r.expiredLocked(e, now) {
		e.lastSeen = now
		return e.tab, false
	}
	q := &assistant.NoticeQueue{}
	t := &Tab{ID: id, State: r.factory(q), Notices: q}
	r.tabs[id] = &tabEntry{tab: t, lastSeen: now}
	return t, true
}

// Get returns a live tab without creating one.
func (r *TabRegistry) Get(id string) (*Tab, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.tabs[id]
	if !ok {
		return nil, false
	}
	now := r.now()
	if r.expiredLocked(e, now) {
		delete(r.tabs, id)
		return nil, false
	}
	e.lastSeen = now
	return e.tab, true
}

func (r *TabRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, id)
}

// Sweep evicts expired tabs and returns how many were removed.
func (r *TabRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for id, e := range r.tabs {
		if r.expiredLocked(e, now) {
			delete(r.tabs, id)
			n++
		}
	}
	return n
}

func (r *TabRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

func (r *TabRegistry) expiredLocked(e *tabEntry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.lastSeen) > r.ttl
}

// RunJanitor sweeps expired tabs every interval until ctx is done.
func (r *TabRegistry) RunJanitor(ctx context.Context, interval time.Duration, onSweep func(evicted int)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
