// Package httpapi exposes the dispatch core over HTTP and WebSocket.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ecastro/convobot/core"
	"github.com/ecastro/convobot/internal/util"
	"github.com/ecastro/convobot/logging"
	"github.com/ecastro/convobot/session"
)

// ReplyChunkLimit is the maximum rune length of a single reply chunk.
// Longer replies are split on line boundaries.
const ReplyChunkLimit = 4096

// Dispatcher is the slice of the dispatch core the transport needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, userKey, text string) core.DispatchResult
	ResetSession(userKey string) error
	Capabilities() []core.Descriptor
	HelpText() string
}

// StatsFunc reports session store counters for the health endpoint.
type StatsFunc func() session.Stats

// Options configure the HTTP handler.
type Options struct {
	Logger logging.Logger
	// ReplyLimit overrides ReplyChunkLimit, mainly for tests.
	ReplyLimit int
}

// Handler serves the HTTP and WebSocket API.
type Handler struct {
	dispatcher Dispatcher
	stats      StatsFunc
	logger     logging.Logger
	replyLimit int
}

// NewHandler builds the handler. stats may be nil, in which case the health
// endpoint omits session counters.
func NewHandler(d Dispatcher, stats StatsFunc, optFns ...func(o *Options)) *Handler {
	opts := Options{Logger: logging.NoOpLogger{}, ReplyLimit: ReplyChunkLimit}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ReplyLimit <= 0 {
		opts.ReplyLimit = ReplyChunkLimit
	}
	return &Handler{
		dispatcher: d,
		stats:      stats,
		logger:     opts.Logger,
		replyLimit: opts.ReplyLimit,
	}
}

// WithLogger sets the transport logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithReplyLimit overrides the reply chunk size.
func WithReplyLimit(n int) func(o *Options) {
	return func(o *Options) { o.ReplyLimit = n }
}

// Router wires all routes behind the standard middleware chain.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Post("/chat", h.handleChat)
		api.Post("/reset", h.handleReset)
		api.Get("/capabilities", h.handleCapabilities)
		api.Get("/healthz", h.handleHealth)
		api.Get("/ws", h.handleWebSocket)
	})

	return r
}

type chatRequest struct {
	UserKey string `json:"user_key"`
	Message string `json:"message"`
}

type chatResponse struct {
	Reply      string   `json:"reply"`
	Chunks     []string `json:"chunks,omitempty"`
	Capability string   `json:"capability,omitempty"`
	OK         bool     `json:"ok"`
	ErrorKind  string   `json:"error_kind,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UserKey == "" {
		respondError(w, http.StatusBadRequest, "user_key is required")
		return
	}
	if payload.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	res := h.dispatcher.Dispatch(r.Context(), payload.UserKey, payload.Message)
	respondJSON(w, http.StatusOK, h.toChatResponse(res))
}

// toChatResponse renders a dispatch result. Dispatch failures still answer
// 200: the error text IS the conversational reply, the kind travels in
// error_kind for clients that want to distinguish.
func (h *Handler) toChatResponse(res core.DispatchResult) chatResponse {
	out := chatResponse{
		Reply:      res.Reply,
		Capability: res.Capability,
		OK:         res.OK,
	}
	if chunks := util.SplitText(res.Reply, h.replyLimit); len(chunks) > 1 {
		out.Chunks = chunks
	}
	if res.Err != nil {
		out.ErrorKind = string(res.Err.Kind)
	}
	return out
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserKey string `json:"user_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UserKey == "" {
		respondError(w, http.StatusBadRequest, "user_key is required")
		return
	}

	if err := h.dispatcher.ResetSession(payload.UserKey); err != nil {
		if core.KindOf(err) == core.KindValidation {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("httpapi.reset.failed", "user_key", payload.UserKey, "error", err)
		respondError(w, http.StatusInternalServerError, "reset failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"capabilities": h.dispatcher.Capabilities(),
		"help":         h.dispatcher.HelpText(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if h.stats != nil {
		body["sessions"] = h.stats()
	}
	respondJSON(w, http.StatusOK, body)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
