package restaurant

// ChatRequest is the body of the plain chat call.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// IntentTurnRequest carries one collection turn to the order-intent or
// reservation-intent endpoint.
type IntentTurnRequest struct {
	Message       string         `json:"message"`
	SessionID     string         `json:"session_id"`
	Step          int            `json:"step"`
	CollectedData map[string]any `json:"collected_data"`
}

// IntentTurnResponse is a validated collection turn reply. Step 0 ends the
// collection.
type IntentTurnResponse struct {
	Response      string         `json:"response"`
	Step          int            `json:"step"`
	CollectedData map[string]any `json:"collected_data"`
}

type OrderItem struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderRequest is the checkout payload posted to /orders.
type OrderRequest struct {
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone"`
	Items           []OrderItem `json:"items"`
	SpecialRequests string      `json:"special_requests"`
	Total           float64     `json:"total"`
	SessionID       string      `json:"session_id"`
}

type OrderReceipt struct {
	OrderID string `json:"order_id"`
	Message string `json:"message,omitempty"`
}

// ReservationRequest is the table booking payload posted to /reservations.
type ReservationRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	PartySize       int    `json:"party_size"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	SpecialRequests string `json:"special_requests"`
	SessionID       string `json:"session_id"`
}

type ReservationReceipt struct {
	ReservationID string `json:"reservation_id"`
	Message       string `json:"message,omitempty"`
}

// Total sums price times quantity over the items.
func Total(items []OrderItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Quantity)
	}
	return sum
}
