package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageLog is the append-only transcript of one tab. The only way to
// shrink it is Clear, which leaves exactly one assistant greeting.
type MessageLog struct {
	mu   sync.RWMutex
	msgs []Message
	now  func() time.Time
}

func NewMessageLog(now func() time.Time) *MessageLog {
	if now == nil {
		now = time.Now
	}
	return &MessageLog{now: now}
}

func (l *MessageLog) Append(content string, isUser bool) Message {
	m := Message{
		ID:        uuid.NewString(),
		Content:   content,
		IsUser:    isUser,
		Timestamp: l.now(),
	}
	l.mu.Lock()
	l.msgs = append(l.msgs, m)
	l.mu.Unlock()
	return m
}

// Clear truncates the log and appends greeting as an assistant message.
func (l *MessageLog) Clear(greeting string) Message {
	m := Message{
		ID:        uuid.NewString(),
		Content:   greeting,
		Timestamp: l.now(),
	}
	l.mu.Lock()
	l.msgs = []Message{m}
	l.mu.Unlock()
	return m
}

// Messages returns a copy in display order.
func (l *MessageLog) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.msgs)
}
