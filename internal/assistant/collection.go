package assistant

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"taste-haven-assistant/internal/restaurant"
)

type Kind string

const (
	KindOrder       Kind = "order"
	KindReservation Kind = "reservation"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindOrder, KindReservation:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

type Mode string

const (
	ModeInactive Mode = "inactive"
	ModeActive   Mode = "active"
)

var (
	ErrCollectionActive   = errors.New("collection already active")
	ErrCollectionInactive = errors.New("collection not active")
	ErrStaleTurn          = errors.New("collection changed while turn was in flight")
	ErrUnknownKind        = errors.New("unknown collection kind")
)

// CollectionState is a point-in-time copy of one collector.
type CollectionState struct {
	Kind Kind           `json:"kind"`
	Mode Mode           `json:"mode"`
	Step int            `json:"step"`
	Data map[string]any `json:"collected_data"`
}

func (s CollectionState) Active() bool { return s.Mode == ModeActive }

// TurnFunc sends one collection turn to the remote endpoint for a kind.
type TurnFunc func(ctx context.Context, req restaurant.IntentTurnRequest) (*restaurant.IntentTurnResponse, error)

// TurnResult is what an applied collection turn produced.
type TurnResult struct {
	Reply string
	State CollectionState
	// Done is set when the remote answered step 0. Completed then holds the
	// final collected data; the collector itself is already reset.
	Done      bool
	Completed map[string]any
}

// Collector is the slot-filling state machine for one kind. The remote
// endpoint decides step and collected data; the collector only decides
// whether a collection exists. Step 0 means inactive.
type Collector struct {
	kind Kind
	send TurnFunc

	mu   sync.Mutex
	step int
	data map[string]any
	// gen changes on every begin, cancel and applied turn so a response
	// computed against an older state is never applied.
	gen uint64
}

func NewCollector(kind Kind, send TurnFunc) *Collector {
	return &Collector{kind: kind, send: send, data: map[string]any{}}
}

func (c *Collector) Kind() Kind { return c.kind }

func (c *Collector) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step > 0
}

func (c *Collector) State() CollectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Collector) stateLocked() CollectionState {
	mode := ModeInactive
	if c.step > 0 {
		mode = ModeActive
	}
	return CollectionState{Kind: c.kind, Mode: mode, Step: c.step, Data: maps.Clone(c.data)}
}

// Begin moves inactive to active at step 1 with empty data.
func (c *Collector) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step > 0 {
		return fmt.Errorf("%s: %w", c.kind, ErrCollectionActive)
	}
	c.step = 1
	c.data = map[string]any{}
	c.gen++
	return nil
}

// Cancel ends an active collection and drops its data. It reports whether
// anything was active.
func (c *Collector) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step == 0 {
		return false
	}
	c.resetLocked()
	return true
}

func (c *Collector) resetLocked() {
	c.step = 0
	c.data = map[string]any{}
	c.gen++
}

// Turn sends utterance with the current step and data and applies the reply
// verbatim. Any error leaves step and data exactly as they were.
func (c *Collector) Turn(ctx context.Context, utterance, sessionID string) (*TurnResult, error) {
	c.mu.Lock()
	if c.step == 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", c.kind, ErrCollectionInactive)
	}
	req := restaurant.IntentTurnRequest{
		Message:       utterance,
		SessionID:     sessionID,
		Step:          c.step,
		CollectedData: maps.Clone(c.data),
	}
	gen := c.gen
	c.mu.Unlock()

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s turn at step %d: %w", c.kind, req.Step, err)
	}
	if resp == nil || resp.Step < 0 {
		return nil, fmt.Errorf("%s turn at step %d: %w", c.kind, req.Step, restaurant.ErrMalformedResponse)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return nil, fmt.Errorf("%s: %w", c.kind, ErrStaleTurn)
	}
	res := &TurnResult{Reply: resp.Response}
	if resp.Step == 0 {
		res.Done = true
		res.Completed = maps.Clone(resp.CollectedData)
		if res.Completed == nil {
			res.Completed = map[string]any{}
		}
		c.resetLocked()
	} else {
		c.step = resp.Step
		c.data = maps.Clone(resp.CollectedData)
		if c.data == nil {
			c.data = map[string]any{}
		}
		c.gen++
	}
	res.State = c.stateLocked()
	return res, nil
}
