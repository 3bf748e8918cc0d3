package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"taste-haven-assistant/internal/assistant"
	"taste-haven-assistant/internal/config"
	"taste-haven-assistant/internal/observability"
	"taste-haven-assistant/internal/store"
	"taste-haven-assistant/internal/types"
)

// TranscriptLister reads archived messages back for inspection.
type TranscriptLister interface {
	ListBySession(ctx context.Context, sessionID string) ([]assistant.Message, error)
}

// HealthChecker reports whether an optional dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Deps struct {
	Dispatcher *assistant.Dispatcher
	Tabs       *store.TabRegistry
	// Transcripts and Database are nil when DB_URL is not set.
	Transcripts TranscriptLister
	Database    HealthChecker
}

type Server struct {
	router      *chi.Mux
	cfg         config.Config
	dispatcher  *assistant.Dispatcher
	tabs        *store.TabRegistry
	transcripts TranscriptLister
	database    HealthChecker
}

func NewServer(cfg config.Config, deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", TabHeader},
		ExposedHeaders:   []string{TabHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:      r,
		cfg:         cfg,
		dispatcher:  deps.Dispatcher,
		tabs:        deps.Tabs,
		transcripts: deps.Transcripts,
		database:    deps.Database,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleState)
		r.Delete("/tab", s.handleCloseTab)
		r.Post("/turn", s.handleTurn)
		r.Post("/chat/clear", s.handleClearChat)
		r.Post("/session/reset", s.handleResetSession)
		r.Delete("/collections/{kind}", s.handleCancelCollection)
		r.Post("/orders", s.handlePlaceOrder)
		r.Post("/reservations", s.handlePlaceReservation)
		r.Get("/transcripts/{sessionId}", s.handleTranscript)
	})
}

func (s *Server) Router() http.Handler { return s.router }

// requestLogger logs one line per request with the chi request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := observability.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))
		observability.LoggerFromContext(ctx).Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.database.HealthCheck(ctx); err != nil {
			resp["database"] = "unavailable"
		} else {
			resp["database"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// tab resolves the caller's container, creating one (and issuing an id) when
// the request carries no known tab id.
func (s *Server) tab(w http.ResponseWriter, r *http.Request) (*store.Tab, *slog.Logger) {
	id := tabIDFromRequest(r)
	if id == "" {
		id = newTabID()
		SetTabCookie(w, id)
	}
	tab, created := s.tabs.GetOrCreate(id)
	w.Header().Set(TabHeader, id)
	logger := observability.LoggerFromContext(observability.WithTabID(r.Context(), id))
	if created {
		logger.Info("tab container created", "session_id", tab.State.SessionID())
	}
	return tab, logger
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	tab, _ := s.tab(w, r)
	writeJSON(w, http.StatusOK, types.StateResponse{
		TabID:   tab.ID,
		State:   tab.State.Snapshot(),
		Notices: tab.Notices.Drain(),
	})
}

func (s *Server) handleCloseTab(w http.ResponseWriter, r *http.Request) {
	if id := tabIDFromRequest(r); id != "" {
		s.tabs.Delete(id)
	}
	ClearTabCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req types.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tab, logger := s.tab(w, r)

	// A turn runs to completion even if the browser goes away.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.turnTimeout())
	defer cancel()
	out, err := s.dispatcher.Dispatch(ctx, tab.State, req.Message)
	if errors.Is(err, assistant.ErrEmptyUtterance) {
		writeError(w, http.StatusBadRequest, "message is required", tab.Notices.Drain()...)
		return
	}
	if err != nil {
		logger.Error("dispatch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "turn failed")
		return
	}
	if out.Dropped {
		logger.Info("turn dropped", "route", out.Route)
	}
	writeJSON(w, http.StatusOK, types.TurnResponse{
		TabID:     tab.ID,
		SessionID: tab.State.SessionID(),
		Outcome:   out,
		Notices:   tab.Notices.Drain(),
	})
}

func (s *Server) turnTimeout() time.Duration {
	if s.cfg.APITimeout > 0 {
		return s.cfg.APITimeout + 5*time.Second
	}
	return 25 * time.Second
}

func (s *Server) handleClearChat(w http.ResponseWriter, r *http.Request) {
	tab, _ := s.tab(w, r)
	greeting := tab.State.ClearChat()
	writeJSON(w, http.StatusOK, types.ClearResponse{Greeting: greeting, Notices: tab.Notices.Drain()})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	tab, _ := s.tab(w, r)
	id := tab.State.ResetSession()
	writeJSON(w, http.StatusOK, types.ResetResponse{SessionID: id, Notices: tab.Notices.Drain()})
}

func (s *Server) handleCancelCollection(w http.ResponseWriter, r *http.Request) {
	kind, err := assistant.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tab, logger := s.tab(w, r)
	cancelled, err := tab.State.CancelCollection(kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cancelled {
		logger.Info("collection cancelled", "kind", kind)
	}
	c, _ := tab.State.Collector(kind)
	writeJSON(w, http.StatusOK, types.CancelResponse{Kind: kind, Cancelled: cancelled, Collection: c.State()})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req assistant.CheckoutOrder
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tab, _ := s.tab(w, r)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.turnTimeout())
	defer cancel()
	receipt, err := s.dispatcher.PlaceOrder(ctx, tab.State, req)
	if err != nil {
		writeError(w, placementStatus(err), err.Error(), tab.Notices.Drain()...)
		return
	}
	writeJSON(w, http.StatusOK, types.OrderResponse{Receipt: receipt, Notices: tab.Notices.Drain()})
}

func (s *Server) handlePlaceReservation(w http.ResponseWriter, r *http.Request) {
	var req assistant.ReservationForm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tab, _ := s.tab(w, r)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.turnTimeout())
	defer cancel()
	receipt, err := s.dispatcher.PlaceReservation(ctx, tab.State, req)
	if err != nil {
		writeError(w, placementStatus(err), err.Error(), tab.Notices.Drain()...)
		return
	}
	writeJSON(w, http.StatusOK, types.ReservationResponse{Receipt: receipt, Notices: tab.Notices.Drain()})
}

func placementStatus(err error) int {
	switch {
	case errors.Is(err, assistant.ErrMissingFields), errors.Is(err, assistant.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, assistant.ErrPlacementFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if s.transcripts == nil {
		writeError(w, http.StatusNotFound, "transcript archive not configured")
		return
	}
	sid := chi.URLParam(r, "sessionId")
	msgs, err := s.transcripts.ListBySession(r.Context(), sid)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error("list transcript", "session_id", sid, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	if msgs == nil {
		msgs = []assistant.Message{}
	}
	writeJSON(w, http.StatusOK, types.TranscriptResponse{SessionID: sid, Messages: msgs})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string, notices ...string) {
	writeJSON(w, code, types.ErrorResponse{Error: msg, Notices: notices})
}
