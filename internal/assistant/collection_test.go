package assistant

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"taste-haven-assistant/internal/restaurant"
)

func TestCollectorBeginAndCancel(t *testing.T) {
	c := NewCollector(KindOrder, nil)
	if st := c.State(); st.Active() || st.Step != 0 || len(st.Data) != 0 {
		t.Fatalf("initial state = %+v", st)
	}
	if err := c.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if st := c.State(); st.Mode != ModeActive || st.Step != 1 {
		t.Fatalf("after begin = %+v", st)
	}
	if err := c.Begin(); !errors.Is(err, ErrCollectionActive) {
		t.Fatalf("second Begin err = %v", err)
	}
	if !c.Cancel() {
		t.Fatal("Cancel reported nothing active")
	}
	if c.Cancel() {
		t.Fatal("Cancel on inactive collector reported true")
	}
	if st := c.State(); st.Active() || st.Step != 0 || len(st.Data) != 0 {
		t.Fatalf("after cancel = %+v", st)
	}
}

func TestCollectorTurnAdoptsResponse(t *testing.T) {
	var got restaurant.IntentTurnRequest
	c := NewCollector(KindReservation, func(_ context.Context, req restaurant.IntentTurnRequest) (*restaurant.IntentTurnResponse, error) {
		got = req
		return &restaurant.IntentTurnResponse{
			Response:      "How many guests?",
			Step:          7,
			CollectedData: map[string]any{"customer_name": "Jane"},
		}, nil
	})
	c.Begin()
	res, err := c.Turn(context.Background(), "Jane", "session_1_x")
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if got.Step != 1 || got.Message != "Jane" || got.SessionID != "session_1_x" || len(got.CollectedData) != 0 {
		t.Fatalf("request = %+v", got)
	}
	if res.Reply != "How many guests?" || res.Done {
		t.Fatalf("result = %+v", res)
	}
	st := c.State()
	if st.Step != 7 || st.Data["customer_name"] != "Jane" {
		t.Fatalf("state = %+v", st)
	}
}

func TestCollectorTerminalStepResets(t *testing.T) {
	final := map[string]any{"customer_name": "Jane", "party_size": 4.0}
	c := NewCollector(KindReservation, func(context.Context, restaurant.IntentTurnRequest) (*restaurant.IntentTurnResponse, error) {
		return &restaurant.IntentTurnResponse{Response: "Confirmed!", Step: 0, CollectedData: final}, nil
	})
	c.Begin()
	res, err := c.Turn(context.Background(), "no", "s")
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if !res.Done || !reflect.DeepEqual(res.Completed, final) {
		t.Fatalf("result = %+v", res)
	}
	st := c.State()
	if st.Active() || st.Step != 0 || len(st.Data) != 0 {
		t.Fatalf("state after exit = %+v", st)
	}
}

func TestCollectorFailureLeavesStateUntouched(t *testing.T) {
	calls := 0
	c := NewCollector(KindOrder, func(context.Context, restaurant.IntentTurnRequest) (*restaurant.IntentTurnResponse, error) {
		calls++
		if calls == 1 {
			return &restaurant.IntentTurnResponse{Step: 2, CollectedData: map[string]any{"items": []any{"salad"}}}, nil
		}
		return nil, errTransport
	})
	c.Begin()
	if _, err := c.Turn(context.Background(), "salad", "s"); err != nil {
		t.Fatal(err)
	}
	before := c.State()
	if _, err := c.Turn(context.Background(), "jane@example.com", "s"); !errors.Is(err, errTransport) {
		t.Fatalf("err = %v", err)
	}
	if after := c.State(); !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed on failure: %+v -> %+v", before, after)
	}
}

func TestCollectorRejectsNegativeStep(t *testing.T) {
	c := NewCollector(KindOrder, func(context.Context, restaurant.IntentTurnRequest) (*restaurant.IntentTurnResponse, error) {
		return &restaurant.IntentTurnResponse{Step: -1}, nil
	})
	c.Begin()
	if _, err := c.Turn(context.Background(), "x", "s"); !errors.Is(err, restaurant.ErrMalformedResponse) {
		t.Fatalf("err = %v", err)
	}
	if st := c.State(); st.Step != 1 {
		t.Fatalf("step = %d", st.Step)
	}
}

func TestCollectorTurnWhenInactive(t *testing.T) {
	c := NewCollector(KindOrder, nil)
	if _, err := c.Turn(context.Background(), "x", "s"); !errors.Is(err, ErrCollectionInactive) {
		t.Fatalf("err = %v", err)
	}
}

func TestCollectorDropsResponseAfterCancel(t *testing.T) {
	var c *Collector
	c = NewCollector(KindOrder, func(context.Context, restaurant.IntentTurnRequest) (*restaurant.IntentTurnResponse, error) {
		// the user cancels while the request is in flight
		c.Cancel()
		return &restaurant.IntentTurnResponse{Step: 2, CollectedData: map[string]any{"items": "pizza"}}, nil
	})
	c.Begin()
	if _, err := c.Turn(context.Background(), "pizza", "s"); !errors.Is(err, ErrStaleTurn) {
		t.Fatalf("err = %v", err)
	}
	if st := c.State(); st.Active() || len(st.Data) != 0 {
		t.Fatalf("stale response applied: %+v", st)
	}
}

func TestCollectorStateIsACopy(t *testing.T) {
	c := NewCollector(KindOrder, func(context.Context, restaurant.IntentTurnRequest) (*restaurant.IntentTurnResponse, error) {
		return &restaurant.IntentTurnResponse{Step: 2, CollectedData: map[string]any{"a": "b"}}, nil
	})
	c.Begin()
	c.Turn(context.Background(), "x", "s")
	st := c.State()
	st.Data["a"] = "mutated"
	if c.State().Data["a"] != "b" {
		t.Fatal("State leaked internal map")
	}
}
