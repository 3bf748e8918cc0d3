package assistant

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	WelcomeGreeting = "Welcome to Taste Haven! I'm your AI assistant. How can I help you today?"
	ClearedGreeting = "Chat history cleared. How can I help you today?"

	noticeCleared      = "Chat history cleared"
	noticeSessionReset = "Session reset"
	noticeEmptyInput   = "Please enter a message"
)

// Archive receives every message appended to a tab's log. It is write-only
// from the engine's point of view.
type Archive interface {
	Record(ctx context.Context, sessionID string, m Message) error
}

// State is the per-tab container: session id, transcript and the two
// collectors. All mutation goes through its methods or the Dispatcher.
type State struct {
	// turnMu queues turns on one tab; reads never take it.
	turnMu sync.Mutex

	session     *Session
	log         *MessageLog
	order       *Collector
	reservation *Collector

	notifier Notifier
	archive  Archive
	logger   *slog.Logger
	now      func() time.Time
}

type StateOption func(*State)

func WithNotifier(n Notifier) StateOption {
	return func(s *State) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithArchive(a Archive) StateOption {
	return func(s *State) { s.archive = a }
}

func WithClock(now func() time.Time) StateOption {
	return func(s *State) {
		if now != nil {
			s.now = now
		}
	}
}

func WithStateLogger(l *slog.Logger) StateOption {
	return func(s *State) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewState builds a container whose collectors send turns through orderTurn
// and reservationTurn. The log starts with the welcome greeting.
func NewState(orderTurn, reservationTurn TurnFunc, opts ...StateOption) *State {
	s := &State{
		notifier: discardNotifier{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.session = NewSession(s.now)
	s.log = NewMessageLog(s.now)
	s.order = NewCollector(KindOrder, orderTurn)
	s.reservation = NewCollector(KindReservation, reservationTurn)
	s.append(context.Background(), WelcomeGreeting, false)
	return s
}

func (s *State) SessionID() string { return s.session.ID() }

func (s *State) Messages() []Message { return s.log.Messages() }

func (s *State) Collector(kind Kind) (*Collector, error) {
	switch kind {
	case KindOrder:
		return s.order, nil
	case KindReservation:
		return s.reservation, nil
	}
	return nil, ErrUnknownKind
}

// ClearChat truncates the transcript to a single greeting. Collections and
// the session id are left alone.
func (s *State) ClearChat() Message {
	m := s.log.Clear(ClearedGreeting)
	s.record(context.Background(), m)
	s.notifier.Notify(noticeCleared)
	return m
}

// ResetSession switches to a new correlation id. The transcript and any
// active collection are kept, so the remote side may see a collection
// continue under a fresh session.
func (s *State) ResetSession() string {
	prev := s.session.ID()
	id := s.session.Reset()
	s.logger.Info("session reset", "previous_session_id", prev, "session_id", id)
	s.notifier.Notify(noticeSessionReset)
	return id
}

// CancelCollection ends the collection of kind if it is active.
func (s *State) CancelCollection(kind Kind) (bool, error) {
	c, err := s.Collector(kind)
	if err != nil {
		return false, err
	}
	return c.Cancel(), nil
}

type Snapshot struct {
	SessionID   string          `json:"session_id"`
	Messages    []Message       `json:"messages"`
	Order       CollectionState `json:"order"`
	Reservation CollectionState `json:"reservation"`
}

func (s *State) Snapshot() Snapshot {
	return Snapshot{
		SessionID:   s.session.ID(),
		Messages:    s.log.Messages(),
		Order:       s.order.State(),
		Reservation: s.reservation.State(),
	}
}

func (s *State) notify(msg string) { s.notifier.Notify(msg) }

func (s *State) append(ctx context.Context, content string, isUser bool) Message {
	m := s.log.Append(content, isUser)
	s.record(ctx, m)
	return m
}

func (s *State) record(ctx context.Context, m Message) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Record(context.WithoutCancel(ctx), s.session.ID(), m); err != nil {
		s.logger.Warn("archive message failed", "session_id", s.session.ID(), "error", err)
	}
}
