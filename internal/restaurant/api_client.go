package restaurant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// DefaultBaseURL is the documented local default for the restaurant API.
const DefaultBaseURL = "http://127.0.0.1:5000/api"

var (
	ErrUnexpectedStatus  = errors.New("restaurant api: unexpected status")
	ErrMalformedResponse = errors.New("restaurant api: malformed response")
	ErrRejected          = errors.New("restaurant api: request rejected")
)

// Client talks to the restaurant API. Every call is a JSON POST; callers get
// an error for network failures, non-2xx statuses, bodies that do not decode,
// and bodies that carry "success": false.
type Client struct {
	httpClient *http.Client
	baseAPI    string
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client (20s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseAPI:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured endpoint, used in fallback chat messages.
func (c *Client) BaseURL() string { return c.baseAPI }

// OAuthConfig describes optional client-credentials auth for the API.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != "" && o.TokenURL != ""
}

// NewOAuthHTTPClient returns an http.Client that attaches a client-credentials
// bearer token to every request.
func NewOAuthHTTPClient(ctx context.Context, o OAuthConfig, timeout time.Duration) *http.Client {
	cc := clientcredentials.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		TokenURL:     o.TokenURL,
		Scopes:       o.Scopes,
	}
	hc := cc.Client(ctx)
	hc.Timeout = timeout
	return hc
}

// ---- Helpers ----

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseAPI+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnexpectedStatus, path, resp.StatusCode, strings.TrimSpace(string(bb)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

// envelope holds the fields every API reply may carry.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

func (e envelope) check(path string) error {
	if e.Success != nil && !*e.Success {
		msg := e.Error
		if msg == "" {
			msg = "no reason given"
		}
		return fmt.Errorf("%w: %s: %s", ErrRejected, path, msg)
	}
	return nil
}

// idString normalizes ids that the API may send as numbers or strings.
func idString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// ---- Implementations ----

// Chat sends a plain chat turn. The reply text is read from "response" and
// falls back to "message"; it may be empty.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	var resp struct {
		envelope
		Response string `json:"response"`
		Message  string `json:"message"`
	}
	if err := c.postJSON(ctx, "/chat", req, &resp); err != nil {
		return "", err
	}
	if err := resp.check("/chat"); err != nil {
		return "", err
	}
	if resp.Response != "" {
		return resp.Response, nil
	}
	return resp.Message, nil
}

func (c *Client) OrderIntent(ctx context.Context, req IntentTurnRequest) (*IntentTurnResponse, error) {
	return c.intentTurn(ctx, "/chat/order-intent", req)
}

func (c *Client) ReservationIntent(ctx context.Context, req IntentTurnRequest) (*IntentTurnResponse, error) {
	return c.intentTurn(ctx, "/chat/reservation-intent", req)
}

func (c *Client) intentTurn(ctx context.Context, path string, req IntentTurnRequest) (*IntentTurnResponse, error) {
	if req.CollectedData == nil {
		req.CollectedData = map[string]any{}
	}
	var resp struct {
		envelope
		Response      string         `json:"response"`
		Step          *int           `json:"step"`
		CollectedData map[string]any `json:"collected_data"`
	}
	if err := c.postJSON(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.check(path); err != nil {
		return nil, err
	}
	if resp.Step == nil {
		return nil, fmt.Errorf("%w: %s: missing step", ErrMalformedResponse, path)
	}
	data := resp.CollectedData
	if data == nil {
		data = map[string]any{}
	}
	return &IntentTurnResponse{Response: resp.Response, Step: *resp.Step, CollectedData: data}, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderReceipt, error) {
	var resp struct {
		envelope
		OrderID any    `json:"order_id"`
		Message string `json:"message"`
	}
	if err := c.postJSON(ctx, "/orders", req, &resp); err != nil {
		return nil, err
	}
	if err := resp.check("/orders"); err != nil {
		return nil, err
	}
	return &OrderReceipt{OrderID: idString(resp.OrderID), Message: resp.Message}, nil
}

func (c *Client) PlaceReservation(ctx context.Context, req ReservationRequest) (*ReservationReceipt, error) {
	var resp struct {
		envelope
		ReservationID any    `json:"reservation_id"`
		Message       string `json:"message"`
	}
	if err := c.postJSON(ctx, "/reservations", req, &resp); err != nil {
		return nil, err
	}
	if err := resp.check("/reservations"); err != nil {
		return nil, err
	}
	return &ReservationReceipt{ReservationID: idString(resp.ReservationID), Message: resp.Message}, nil
}
