package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"taste-haven-assistant/internal/restaurant"
)

var (
	ErrEmptyUtterance     = errors.New("empty utterance")
	ErrBackendUnavailable = errors.New("backend not configured")
)

const noReplyText = "Sorry, I could not process that."

// ChatBackend answers plain chat turns.
type ChatBackend interface {
	Chat(ctx context.Context, req restaurant.ChatRequest) (string, error)
}

// CollectionBackend runs collection turns for both kinds.
type CollectionBackend interface {
	OrderIntent(ctx context.Context, req restaurant.IntentTurnRequest) (*restaurant.IntentTurnResponse, error)
	ReservationIntent(ctx context.Context, req restaurant.IntentTurnRequest) (*restaurant.IntentTurnResponse, error)
}

// PlacementBackend places checkout orders and form reservations.
type PlacementBackend interface {
	PlaceOrder(ctx context.Context, req restaurant.OrderRequest) (*restaurant.OrderReceipt, error)
	PlaceReservation(ctx context.Context, req restaurant.ReservationRequest) (*restaurant.ReservationReceipt, error)
}

type Route string

const (
	RouteOrderTurn        Route = "order_turn"
	RouteReservationTurn  Route = "reservation_turn"
	RouteOrderStart       Route = "order_start"
	RouteReservationStart Route = "reservation_start"
	RouteChat             Route = "chat"
)

// Outcome describes what one Dispatch call did.
type Outcome struct {
	Route  Route  `json:"route"`
	Intent Intent `json:"intent,omitempty"`
	// Reply is nil when a collection turn was dropped.
	Reply   *Message `json:"reply,omitempty"`
	Dropped bool     `json:"dropped"`
	// Completed carries the final data of a collection that just ended.
	Completed map[string]any `json:"completed,omitempty"`
	// OrderRecord or ReservationRecord is Completed shaped as a placement
	// payload.
	OrderRecord       *restaurant.OrderRequest       `json:"order_record,omitempty"`
	ReservationRecord *restaurant.ReservationRequest `json:"reservation_record,omitempty"`
	Order             CollectionState                `json:"order"`
	Reservation       CollectionState                `json:"reservation"`
}

type DispatcherConfig struct {
	Spec       IntentSpec
	Chat       ChatBackend
	Collection CollectionBackend
	Placement  PlacementBackend
	// Endpoint is named in the fallback text when plain chat fails.
	Endpoint string
	Logger   *slog.Logger
}

type Dispatcher struct {
	classifier *Classifier
	prompts    IntentSpec
	chat       ChatBackend
	collection CollectionBackend
	placement  PlacementBackend
	endpoint   string
	logger     *slog.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	spec := cfg.Spec
	def := DefaultIntentSpec()
	spec.Order = spec.Order.withDefaults(def.Order)
	spec.Reservation = spec.Reservation.withDefaults(def.Reservation)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		classifier: spec.Classifier(),
		prompts:    spec,
		chat:       cfg.Chat,
		collection: cfg.Collection,
		placement:  cfg.Placement,
		endpoint:   cfg.Endpoint,
		logger:     logger,
	}
}

// NewState returns a tab container whose collectors use the dispatcher's
// collection backend.
func (d *Dispatcher) NewState(opts ...StateOption) *State {
	opts = append([]StateOption{WithStateLogger(d.logger)}, opts...)
	orderTurn, reservationTurn := TurnFunc(unavailableTurn), TurnFunc(unavailableTurn)
	if d.collection != nil {
		orderTurn, reservationTurn = d.collection.OrderIntent, d.collection.ReservationIntent
	}
	return NewState(orderTurn, reservationTurn, opts...)
}

func unavailableTurn(context.Context, restaurant.IntentTurnRequest) (*restaurant.IntentTurnResponse, error) {
	return nil, ErrBackendUnavailable
}

// FallbackText is appended when the plain chat endpoint cannot be reached.
func (d *Dispatcher) FallbackText() string {
	return "I apologize, but I'm having trouble connecting to the server. Please check if the backend is running on " + d.endpoint
}

// Dispatch runs exactly one branch for utterance: an order turn, a
// reservation turn, starting a collection, or plain chat, in that order of
// precedence. The user turn is appended once before any branch runs.
// Remote failures never surface as errors; a failed collection turn is
// reported as Dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, st *State, utterance string) (*Outcome, error) {
	text := strings.TrimSpace(utterance)
	if text == "" {
		st.notify(noticeEmptyInput)
		return nil, ErrEmptyUtterance
	}

	st.turnMu.Lock()
	defer st.turnMu.Unlock()

	st.append(ctx, text, true)
	sessionID := st.SessionID()
	out := &Outcome{}

	switch {
	case st.order.Active():
		out.Route = RouteOrderTurn
		d.collectionTurn(ctx, st, st.order, text, sessionID, out)
	case st.reservation.Active():
		out.Route = RouteReservationTurn
		d.collectionTurn(ctx, st, st.reservation, text, sessionID, out)
	default:
		out.Intent = d.classifier.Classify(text)
		switch out.Intent {
		case IntentOrder:
			out.Route = RouteOrderStart
			d.begin(ctx, st, st.order, d.prompts.Order.Prompt, out)
		case IntentReservation:
			out.Route = RouteReservationStart
			d.begin(ctx, st, st.reservation, d.prompts.Reservation.Prompt, out)
		default:
			out.Route = RouteChat
			reply := st.append(ctx, d.plainChat(ctx, text, sessionID), false)
			out.Reply = &reply
		}
	}

	out.Order = st.order.State()
	out.Reservation = st.reservation.State()
	return out, nil
}

func (d *Dispatcher) begin(ctx context.Context, st *State, c *Collector, prompt string, out *Outcome) {
	if err := c.Begin(); err != nil {
		// Unreachable while turns are serialized; keep the transcript honest.
		d.logger.Error("begin collection", "kind", c.Kind(), "error", err)
		out.Dropped = true
		return
	}
	reply := st.append(ctx, prompt, false)
	out.Reply = &reply
}

func (d *Dispatcher) collectionTurn(ctx context.Context, st *State, c *Collector, text, sessionID string, out *Outcome) {
	res, err := c.Turn(ctx, text, sessionID)
	if err != nil {
		d.logger.Warn("collection turn dropped", "kind", c.Kind(), "session_id", sessionID, "error", err)
		out.Dropped = true
		return
	}
	reply := st.append(ctx, res.Reply, false)
	out.Reply = &reply
	if res.Done {
		out.Completed = res.Completed
		d.logger.Info("collection completed", "kind", c.Kind(), "session_id", sessionID)
		d.shapeRecord(c.Kind(), sessionID, out)
	}
}

func (d *Dispatcher) shapeRecord(kind Kind, sessionID string, out *Outcome) {
	switch kind {
	case KindOrder:
		rec, err := OrderFromCollected(out.Completed, sessionID)
		if err != nil {
			d.logger.Warn("shape order record", "session_id", sessionID, "error", err)
			return
		}
		out.OrderRecord = &rec
	case KindReservation:
		rec, err := ReservationFromCollected(out.Completed, sessionID)
		if err != nil {
			d.logger.Warn("shape reservation record", "session_id", sessionID, "error", err)
			return
		}
		out.ReservationRecord = &rec
	}
}

func (d *Dispatcher) plainChat(ctx context.Context, text, sessionID string) string {
	if d.chat == nil {
		return d.FallbackText()
	}
	reply, err := d.chat.Chat(ctx, restaurant.ChatRequest{Message: text, SessionID: sessionID})
	if err != nil {
		d.logger.Warn("chat request failed", "session_id", sessionID, "error", err)
		return d.FallbackText()
	}
	if reply == "" {
		return noReplyText
	}
	return reply
}
