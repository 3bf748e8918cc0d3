package assistant

import (
	"encoding/json"
	"fmt"

	"taste-haven-assistant/internal/restaurant"
)

// OrderFromCollected shapes the data of a finished order collection like the
// order placement payload. Missing slots stay empty.
func OrderFromCollected(data map[string]any, sessionID string) (restaurant.OrderRequest, error) {
	var raw struct {
		CustomerName    string                 `json:"customer_name"`
		CustomerEmail   string                 `json:"customer_email"`
		CustomerPhone   string                 `json:"customer_phone"`
		Items           []restaurant.OrderItem `json:"items"`
		SpecialRequests string                 `json:"special_requests"`
	}
	if err := remarshal(data, &raw); err != nil {
		return restaurant.OrderRequest{}, fmt.Errorf("order record: %w", err)
	}
	return restaurant.OrderRequest{
		CustomerName:    raw.CustomerName,
		CustomerEmail:   raw.CustomerEmail,
		CustomerPhone:   raw.CustomerPhone,
		Items:           raw.Items,
		SpecialRequests: raw.SpecialRequests,
		Total:           restaurant.Total(raw.Items),
		SessionID:       sessionID,
	}, nil
}

// ReservationFromCollected does the same for a reservation collection. The
// remote flow stores the guest under customer_name; name is accepted too.
func ReservationFromCollected(data map[string]any, sessionID string) (restaurant.ReservationRequest, error) {
	var raw struct {
		CustomerName    string `json:"customer_name"`
		Name            string `json:"name"`
		Email           string `json:"email"`
		Phone           string `json:"phone"`
		PartySize       int    `json:"party_size"`
		Date            string `json:"date"`
		Time            string `json:"time"`
		SpecialRequests string `json:"special_requests"`
	}
	if err := remarshal(data, &raw); err != nil {
		return restaurant.ReservationRequest{}, fmt.Errorf("reservation record: %w", err)
	}
	name := raw.CustomerName
	if name == "" {
		name = raw.Name
	}
	return restaurant.ReservationRequest{
		Name:            name,
		Email:           raw.Email,
		Phone:           raw.Phone,
		PartySize:       raw.PartySize,
		Date:            raw.Date,
		Time:            raw.Time,
		SpecialRequests: raw.SpecialRequests,
		SessionID:       sessionID,
	}, nil
}

func remarshal(in map[string]any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
