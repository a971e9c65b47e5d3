package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/earshot-dev/earshot/internal/config"
	"github.com/earshot-dev/earshot/internal/notify"
	"github.com/earshot-dev/earshot/internal/storage/sqlite"
	"github.com/earshot-dev/earshot/internal/websocket"
	"github.com/earshot-dev/earshot/pkg/logger"
)

// maxMessageLength matches the longest SMS body Twilio accepts.
const maxMessageLength = 1600

// Handler contains the gateway API handlers
type Handler struct {
	sender   notify.Notifier
	storage  *sqlite.MessageStorage
	wsServer *websocket.Server
	config   *config.Config
	logger   *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(sender notify.Notifier, storage *sqlite.MessageStorage, wsServer *websocket.Server, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		sender:   sender,
		storage:  storage,
		wsServer: wsServer,
		config:   cfg,
		logger:   log.Named("api-handler"),
	}
}

// SendMessage dispatches an SMS through the configured sender, records it,
// and broadcasts a message_sent event.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req notify.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !validDestination(req.To) {
		WriteError(w, http.StatusBadRequest, "destination must be in E.164 format, e.g. +15551234567")
		return
	}
	if len(req.Body) == 0 || len(req.Body) > maxMessageLength {
		WriteError(w, http.StatusBadRequest, "message must be between 1 and 1600 characters")
		return
	}

	sid, err := h.sender.Send(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to dispatch message", logger.Error(err), logger.String("to", req.To))
		WriteError(w, http.StatusBadGateway, "failed to dispatch message")
		return
	}

	record := &sqlite.MessageRecord{
		SID:       sid,
		ToNumber:  req.To,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := h.storage.StoreMessage(record); err != nil {
		// The SMS is already out, so log instead of failing the request
		h.logger.Error("Failed to record dispatched message", logger.Error(err), logger.String("sid", sid))
	}

	h.wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeMessageSent,
		Data: map[string]any{
			"sid":       sid,
			"to":        req.To,
			"timestamp": record.CreatedAt,
		},
	})

	WriteJSON(w, http.StatusOK, map[string]any{"sid": sid})
}

// GetMessages returns the dispatched message log with pagination
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaginationParams(r, h.config.Storage.MaxMessagesInAPI)

	messages, err := h.storage.GetMessages(limit, offset)
	if err != nil {
		h.logger.Error("Failed to retrieve messages", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "failed to retrieve messages")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"timestamp": time.Now(),
		"count":     len(messages),
		"messages":  messages,
	})
}

// Health returns a liveness response
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now(),
	})
}

// HandleWebSocket upgrades the connection and attaches it to the event feed
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]any{"error": msg})
}

// validDestination checks the destination looks like an E.164 number:
// a plus sign followed by 8 to 15 digits.
func validDestination(to string) bool {
	if len(to) < 9 || len(to) > 16 || to[0] != '+' {
		return false
	}
	for _, r := range to[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parsePaginationParams reads limit/offset query parameters, clamping the
// limit to the configured maximum.
func parsePaginationParams(r *http.Request, maxLimit int) (int, int) {
	limit := maxLimit
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxLimit {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
