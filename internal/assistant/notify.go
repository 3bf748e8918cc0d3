package assistant

import "sync"

// Notifier receives transient user-facing notices ("Session reset", ...).
type Notifier interface {
	Notify(msg string)
}

type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

type discardNotifier struct{}

func (discardNotifier) Notify(string) {}

// NoticeQueue buffers notices until a transport drains them.
type NoticeQueue struct {
	mu    sync.Mutex
	items []string
}

func (q *NoticeQueue) Notify(msg string) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
}

// Drain returns the buffered notices in order and empties the queue.
func (q *NoticeQueue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}
