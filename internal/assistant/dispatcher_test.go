package assistant

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"taste-haven-assistant/internal/restaurant"
)

func TestNewStateSeedsGreeting(t *testing.T) {
	st := newTestDispatcher(&fakeBackend{}).NewState()
	msgs := st.Messages()
	if len(msgs) != 1 || msgs[0].Content != WelcomeGreeting || msgs[0].IsUser {
		t.Fatalf("messages = %+v", msgs)
	}
}

// Scenario A
func TestDispatchStartsOrderCollection(t *testing.T) {
	fb := &fakeBackend{}
	d := newTestDispatcher(fb)
	st := d.NewState()
	before := len(st.Messages())

	out, err := d.Dispatch(context.Background(), st, "I want to order two salads")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Route != RouteOrderStart || out.Intent != IntentOrder {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Order.Mode != ModeActive || out.Order.Step != 1 || len(out.Order.Data) != 0 {
		t.Fatalf("order state = %+v", out.Order)
	}
	msgs := st.Messages()
	if len(msgs) != before+2 {
		t.Fatalf("log grew by %d, want 2", len(msgs)-before)
	}
	if !msgs[before].IsUser || msgs[before+1].Content != "I'll help you place an order! Which items would you like?" {
		t.Fatalf("appended = %+v", msgs[before:])
	}
	if len(fb.orderCalls)+len(fb.chatCalls) != 0 {
		t.Fatal("entering a collection must not call the remote")
	}
}

func TestDispatchStartsReservationCollection(t *testing.T) {
	d := newTestDispatcher(&fakeBackend{})
	st := d.NewState()
	out, _ := d.Dispatch(context.Background(), st, "Can we book for Friday?")
	if out.Route != RouteReservationStart || out.Reservation.Step != 1 || out.Order.Active() {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Reply.Content != "I'll help you make a reservation! What's your name?" {
		t.Fatalf("reply = %q", out.Reply.Content)
	}
}

func TestDispatchBothKeywordSetsPrefersOrder(t *testing.T) {
	d := newTestDispatcher(&fakeBackend{})
	st := d.NewState()
	out, _ := d.Dispatch(context.Background(), st, "book a table to order dinner")
	if out.Route != RouteOrderStart || out.Reservation.Active() {
		t.Fatalf("outcome = %+v", out)
	}
}

// Scenario B
func TestDispatchAdvancesActiveCollection(t *testing.T) {
	fb := &fakeBackend{}
	d := newTestDispatcher(fb)
	st := d.NewState()
	d.Dispatch(context.Background(), st, "I want to order")
	fb.orderResp = &restaurant.IntentTurnResponse{Step: 2, CollectedData: map[string]any{"items": []any{"salad"}}}
	d.Dispatch(context.Background(), st, "salad")

	fb.orderResp = &restaurant.IntentTurnResponse{
		Response:      "Thanks! Phone?",
		Step:          3,
		CollectedData: map[string]any{"items": []any{"salad"}, "email": "jane@example.com"},
	}
	before := len(st.Messages())
	out, err := d.Dispatch(context.Background(), st, "jane@example.com")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Route != RouteOrderTurn || out.Dropped {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Order.Step != 3 || out.Order.Data["email"] != "jane@example.com" {
		t.Fatalf("order state = %+v", out.Order)
	}
	if got := len(st.Messages()) - before; got != 2 {
		t.Fatalf("log grew by %d, want 2", got)
	}
	last := fb.orderCalls[len(fb.orderCalls)-1]
	if last.Step != 2 || !reflect.DeepEqual(last.CollectedData, map[string]any{"items": []any{"salad"}}) {
		t.Fatalf("sent = %+v", last)
	}
}

// Scenario C
func TestDispatchDropsFailedCollectionTurn(t *testing.T) {
	fb := &fakeBackend{}
	d := newTestDispatcher(fb)
	st := d.NewState()
	d.Dispatch(context.Background(), st, "I want to order")
	fb.orderResp = &restaurant.IntentTurnResponse{Step: 2, CollectedData: map[string]any{"items": []any{"salad"}}}
	d.Dispatch(context.Background(), st, "salad")

	fb.orderResp, fb.orderErr = nil, errTransport
	beforeState := st.Snapshot().Order
	beforeLen := len(st.Messages())
	out, err := d.Dispatch(context.Background(), st, "jane@example.com")
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !out.Dropped || out.Reply != nil {
		t.Fatalf("outcome = %+v", out)
	}
	if !reflect.DeepEqual(beforeState, out.Order) {
		t.Fatalf("state changed: %+v -> %+v", beforeState, out.Order)
	}
	// only the user turn is added
	if got := len(st.Messages()) - beforeLen; got != 1 {
		t.Fatalf("log grew by %d, want 1", got)
	}
}

func TestDispatchCompletionResetsAndShapesRecord(t *testing.T) {
	fb := &fakeBackend{}
	d := newTestDispatcher(fb)
	st := d.NewState()
	d.Dispatch(context.Background(), st, "table for 2")
	fb.reserveResp = &restaurant.IntentTurnResponse{
		Response: "Reservation #5 Confirmed!",
		Step:     0,
		CollectedData: map[string]any{
			"customer_name": "Jane", "email": "j@x.io", "phone": "555",
			"party_size": 2, "date": "2026-10-20", "time": "19:00",
		},
	}
	out, _ := d.Dispatch(context.Background(), st, "no")
	if out.Route != RouteReservationTurn || out.Reservation.Active() || len(out.Reservation.Data) != 0 {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Completed["customer_name"] != "Jane" {
		t.Fatalf("completed = %v", out.Completed)
	}
	rec := out.ReservationRecord
	if rec == nil || rec.Name != "Jane" || rec.PartySize != 2 || rec.SessionID != st.SessionID() {
		t.Fatalf("record = %+v", rec)
	}
	// back to classification
	fb.chatReply = "We open at 11."
	out, _ = d.Dispatch(context.Background(), st, "when do you open?")
	if out.Route != RouteChat {
		t.Fatalf("route = %s", out.Route)
	}
}

func TestDispatchPlainChat(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		err   error
		want  string
	}{
		{"reply", "We open at 11.", nil, "We open at 11."},
		{"empty", "", nil, "Sorry, I could not process that."},
		{"failure", "", errTransport, "I apologize, but I'm having trouble connecting to the server. Please check if the backend is running on http://127.0.0.1:5000/api"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fb := &fakeBackend{chatReply: tc.reply, chatErr: tc.err}
			d := newTestDispatcher(fb)
			st := d.NewState()
			out, err := d.Dispatch(context.Background(), st, "  hours?  ")
			if err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if out.Route != RouteChat || out.Intent != IntentNone || out.Reply.Content != tc.want {
				t.Fatalf("outcome = %+v", out)
			}
			if fb.chatCalls[0].Message != "hours?" || fb.chatCalls[0].SessionID != st.SessionID() {
				t.Fatalf("chat request = %+v", fb.chatCalls[0])
			}
		})
	}
}

func TestDispatchEmptyUtterance(t *testing.T) {
	fb := &fakeBackend{}
	d := newTestDispatcher(fb)
	q := &NoticeQueue{}
	st := d.NewState(WithNotifier(q))
	before := st.Snapshot()
	if _, err := d.Dispatch(context.Background(), st, " \t\n"); !errors.Is(err, ErrEmptyUtterance) {
		t.Fatalf("err = %v", err)
	}
	if !reflect.DeepEqual(before, st.Snapshot()) {
		t.Fatal("empty utterance mutated state")
	}
	if n := q.Drain(); len(n) != 1 || n[0] != "Please enter a message" {
		t.Fatalf("notices = %v", n)
	}
	if len(fb.chatCalls) != 0 {
		t.Fatal("empty utterance reached the network")
	}
}

func TestMutualExclusionAcrossSequences(t *testing.T) {
	fb := &fakeBackend{
		chatReply:   "ok",
		orderResp:   &restaurant.IntentTurnResponse{Step: 2, CollectedData: map[string]any{}},
		reserveResp: &restaurant.IntentTurnResponse{Step: 2, CollectedData: map[string]any{}},
	}
	d := newTestDispatcher(fb)
	st := d.NewState()
	inputs := []string{"book a table", "i want pizza", "reservation", "hello", "buy", "table"}
	for i := 0; i < 30; i++ {
		in := inputs[i%len(inputs)]
		if i%7 == 6 {
			fb.orderResp.Step, fb.reserveResp.Step = 0, 0
		} else {
			fb.orderResp.Step, fb.reserveResp.Step = 2, 2
		}
		out, err := d.Dispatch(context.Background(), st, in)
		if err != nil {
			t.Fatal(err)
		}
		if out.Order.Active() && out.Reservation.Active() {
			t.Fatalf("both collections active after %q", in)
		}
	}
}

func TestConcurrentDispatchIsSerialized(t *testing.T) {
	fb := &fakeBackend{chatReply: "ok"}
	d := newTestDispatcher(fb)
	st := d.NewState()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(context.Background(), st, "hello")
		}()
	}
	wg.Wait()
	msgs := st.Messages()[1:]
	if len(msgs) != 40 {
		t.Fatalf("messages = %d", len(msgs))
	}
	for i := 0; i < len(msgs); i += 2 {
		if !msgs[i].IsUser || msgs[i+1].IsUser {
			t.Fatalf("turns interleaved at %d", i)
		}
	}
}

func TestClearChatAndResetSession(t *testing.T) {
	d := newTestDispatcher(&fakeBackend{chatReply: "ok"})
	q := &NoticeQueue{}
	st := d.NewState(WithNotifier(q))
	d.Dispatch(context.Background(), st, "I want to order")

	oldID := st.SessionID()
	newID := st.ResetSession()
	if newID == oldID || st.SessionID() != newID {
		t.Fatal("session id not replaced")
	}
	snap := st.Snapshot()
	if len(snap.Messages) != 3 || !snap.Order.Active() {
		t.Fatalf("reset must keep log and collections: %+v", snap)
	}

	st.ClearChat()
	snap = st.Snapshot()
	if len(snap.Messages) != 1 || snap.Messages[0].Content != ClearedGreeting {
		t.Fatalf("after clear = %+v", snap.Messages)
	}
	if !snap.Order.Active() {
		t.Fatal("clear must not touch collections")
	}
	want := []string{"Session reset", "Chat history cleared"}
	if got := q.Drain(); !reflect.DeepEqual(got, want) {
		t.Fatalf("notices = %v", got)
	}
}

func TestCancelCollection(t *testing.T) {
	d := newTestDispatcher(&fakeBackend{})
	st := d.NewState()
	d.Dispatch(context.Background(), st, "reserve")
	ok, err := st.CancelCollection(KindReservation)
	if err != nil || !ok {
		t.Fatalf("cancel = %v, %v", ok, err)
	}
	if st.Snapshot().Reservation.Active() {
		t.Fatal("still active")
	}
	if _, err := st.CancelCollection(Kind("cart")); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v", err)
	}
}

type recordingArchive struct {
	mu   sync.Mutex
	sids []string
	msgs []Message
}

func (a *recordingArchive) Record(_ context.Context, sid string, m Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sids = append(a.sids, sid)
	a.msgs = append(a.msgs, m)
	return nil
}

func TestArchiveReceivesEveryMessage(t *testing.T) {
	arch := &recordingArchive{}
	d := newTestDispatcher(&fakeBackend{chatReply: "hi"})
	st := d.NewState(WithArchive(arch))
	d.Dispatch(context.Background(), st, "hello")
	if len(arch.msgs) != 3 {
		t.Fatalf("archived %d messages", len(arch.msgs))
	}
	for _, sid := range arch.sids {
		if !strings.HasPrefix(sid, "session_") {
			t.Fatalf("session id %q", sid)
		}
	}
}
