package assistant

import (
	"context"
	"errors"
	"sync"

	"taste-haven-assistant/internal/restaurant"
)

var errTransport = errors.New("connection refused")

type fakeBackend struct {
	mu sync.Mutex

	chatReply string
	chatErr   error
	chatCalls []restaurant.ChatRequest

	orderResp   *restaurant.IntentTurnResponse
	orderErr    error
	orderCalls  []restaurant.IntentTurnRequest
	reserveResp *restaurant.IntentTurnResponse
	reserveErr  error
	reserveCall []restaurant.IntentTurnRequest

	placeErr      error
	orderReceipt  *restaurant.OrderReceipt
	placedOrders  []restaurant.OrderRequest
	reservReceipt *restaurant.ReservationReceipt
	placedReserv  []restaurant.ReservationRequest
}

func (f *fakeBackend) Chat(_ context.Context, req restaurant.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls = append(f.chatCalls, req)
	return f.chatReply, f.chatErr
}

func (f *fakeBackend) OrderIntent(_ context.Context, req restaurant.IntentTurnRequest) (*restaurant.IntentTurnResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderCalls = append(f.orderCalls, req)
	return f.orderResp, f.orderErr
}

func (f *fakeBackend) ReservationIntent(_ context.Context, req restaurant.IntentTurnRequest) (*restaurant.IntentTurnResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserveCall = append(f.reserveCall, req)
	return f.reserveResp, f.reserveErr
}

func (f *fakeBackend) PlaceOrder(_ context.Context, req restaurant.OrderRequest) (*restaurant.OrderReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placedOrders = append(f.placedOrders, req)
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return f.orderReceipt, nil
}

func (f *fakeBackend) PlaceReservation(_ context.Context, req restaurant.ReservationRequest) (*restaurant.ReservationReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placedReserv = append(f.placedReserv, req)
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return f.reservReceipt, nil
}

func newTestDispatcher(fb *fakeBackend) *Dispatcher {
	return NewDispatcher(DispatcherConfig{
		Spec:       DefaultIntentSpec(),
		Chat:       fb,
		Collection: fb,
		Placement:  fb,
		Endpoint:   "http://127.0.0.1:5000/api",
	})
}
