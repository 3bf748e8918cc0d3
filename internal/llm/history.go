package llm

import "sync"

const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

type turn struct {
	Role    string
	Content string
}

// history keeps the most recent turns per session id so a model-backed chat
// sees the conversation so far.
type history struct {
	mu       sync.Mutex
	sessions map[string][]turn
	max      int
}

func newHistory(max int) *history {
	return &history{sessions: make(map[string][]turn), max: max}
}

func (h *history) get(sessionID string) []turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]turn(nil), h.sessions[sessionID]...)
}

// commit records a completed exchange. Failed exchanges are never stored.
func (h *history) commit(sessionID, user, assistant string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[sessionID] = append(h.sessions[sessionID],
		turn{Role: roleUser, Content: user},
		turn{Role: roleAssistant, Content: assistant},
	)
	h.trimLocked(sessionID)
}

func (h *history) trimLocked(sessionID string) {
	if h.max <= 0 {
		return
	}
	msgs := h.sessions[sessionID]
	if len(msgs) > h.max {
		h.sessions[sessionID] = msgs[len(msgs)-h.max:]
	}
}
