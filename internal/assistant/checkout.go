package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taste-haven-assistant/internal/restaurant"
)

var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrPlacementFailed = errors.New("placement failed")
)

// CheckoutOrder is the cart checkout form.
type CheckoutOrder struct {
	CustomerName    string                 `json:"customer_name"`
	CustomerEmail   string                 `json:"customer_email"`
	CustomerPhone   string                 `json:"customer_phone"`
	Items           []restaurant.OrderItem `json:"items"`
	SpecialRequests string                 `json:"special_requests"`
}

// ReservationForm is the table booking form.
type ReservationForm struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	PartySize       int    `json:"party_size"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	SpecialRequests string `json:"special_requests"`
}

func blank(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return true
		}
	}
	return false
}

// PlaceOrder validates the checkout form locally, then posts it with the
// computed total and the tab's session id. Validation failures never reach
// the network.
func (d *Dispatcher) PlaceOrder(ctx context.Context, st *State, co CheckoutOrder) (*restaurant.OrderReceipt, error) {
	if blank(co.CustomerName, co.CustomerEmail, co.CustomerPhone) {
		st.notify("Please fill in all required fields")
		return nil, ErrMissingFields
	}
	if len(co.Items) == 0 {
		st.notify("Your cart is empty")
		return nil, ErrEmptyCart
	}

	st.turnMu.Lock()
	defer st.turnMu.Unlock()

	req := restaurant.OrderRequest{
		CustomerName:    co.CustomerName,
		CustomerEmail:   co.CustomerEmail,
		CustomerPhone:   co.CustomerPhone,
		Items:           co.Items,
		SpecialRequests: co.SpecialRequests,
		Total:           restaurant.Total(co.Items),
		SessionID:       st.SessionID(),
	}
	var (
		receipt *restaurant.OrderReceipt
		err     = ErrBackendUnavailable
	)
	if d.placement != nil {
		receipt, err = d.placement.PlaceOrder(ctx, req)
	}
	if err != nil {
		d.logger.Warn("place order failed", "session_id", req.SessionID, "error", err)
		st.notify("Error placing order. Please try again.")
		return nil, fmt.Errorf("%w: %v", ErrPlacementFailed, err)
	}

	if receipt == nil {
		receipt = &restaurant.OrderReceipt{}
	}
	id := receipt.OrderID
	if id == "" {
		id = "N/A"
	}
	st.notify("Order placed successfully!")
	st.append(ctx, "Order placed successfully! Order ID: "+id, false)
	return receipt, nil
}

// PlaceReservation validates the booking form locally and posts it.
func (d *Dispatcher) PlaceReservation(ctx context.Context, st *State, f ReservationForm) (*restaurant.ReservationReceipt, error) {
	if blank(f.Name, f.Email, f.Phone, f.Date, f.Time) || f.PartySize < 1 {
		st.notify("Please fill in all required fields")
		return nil, ErrMissingFields
	}

	st.turnMu.Lock()
	defer st.turnMu.Unlock()

	req := restaurant.ReservationRequest{
		Name:            f.Name,
		Email:           f.Email,
		Phone:           f.Phone,
		PartySize:       f.PartySize,
		Date:            f.Date,
		Time:            f.Time,
		SpecialRequests: f.SpecialRequests,
		SessionID:       st.SessionID(),
	}
	var (
		receipt *restaurant.ReservationReceipt
		err     = ErrBackendUnavailable
	)
	if d.placement != nil {
		receipt, err = d.placement.PlaceReservation(ctx, req)
	}
	if err != nil {
		d.logger.Warn("place reservation failed", "session_id", req.SessionID, "error", err)
		st.notify("Error making reservation. Please try again.")
		return nil, fmt.Errorf("%w: %v", ErrPlacementFailed, err)
	}

	if receipt == nil {
		receipt = &restaurant.ReservationReceipt{}
	}
	st.notify("Reservation confirmed!")
	st.append(ctx, fmt.Sprintf("Reservation confirmed for %d guests on %s at %s", f.PartySize, f.Date, f.Time), false)
	return receipt, nil
}
