package types

import (
	"taste-haven-assistant/internal/assistant"
	"taste-haven-assistant/internal/restaurant"
)

type TurnRequest struct {
	Message string `json:"message"`
}

type TurnResponse struct {
	TabID     string             `json:"tabId"`
	SessionID string             `json:"sessionId"`
	Outcome   *assistant.Outcome `json:"outcome"`
	Notices   []string           `json:"notices,omitempty"`
}

type StateResponse struct {
	TabID   string             `json:"tabId"`
	State   assistant.Snapshot `json:"state"`
	Notices []string           `json:"notices,omitempty"`
}

type ClearResponse struct {
	Greeting assistant.Message `json:"greeting"`
	Notices  []string          `json:"notices,omitempty"`
}

type ResetResponse struct {
	SessionID string   `json:"sessionId"`
	Notices   []string `json:"notices,omitempty"`
}

type CancelResponse struct {
	Kind       assistant.Kind            `json:"kind"`
	Cancelled  bool                      `json:"cancelled"`
	Collection assistant.CollectionState `json:"collection"`
}

type OrderResponse struct {
	Receipt *restaurant.OrderReceipt `json:"receipt"`
	Notices []string                 `json:"notices,omitempty"`
}

type ReservationResponse struct {
	Receipt *restaurant.ReservationReceipt `json:"receipt"`
	Notices []string                       `json:"notices,omitempty"`
}

type TranscriptResponse struct {
	SessionID string              `json:"sessionId"`
	Messages  []assistant.Message `json:"messages"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Notices []string `json:"notices,omitempty"`
}
