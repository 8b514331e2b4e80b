package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type wsInbound struct {
	UserKey string `json:"user_key"`
	Message string `json:"message"`
}

// handleWebSocket runs a message loop over one connection. The user key may
// be pinned with the user_key query parameter or carried per message; a
// per-message key wins over the connection key.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("httpapi.ws.upgrade_failed", "error", err)
		return
	}
	defer conn.Close()

	connKey := r.URL.Query().Get("user_key")
	h.logger.Debug("httpapi.ws.open", "user_key", connKey)

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("httpapi.ws.read_failed", "error", err)
			}
			return
		}

		userKey := in.UserKey
		if userKey == "" {
			userKey = connKey
		}
		if userKey == "" {
			if err := conn.WriteJSON(chatResponse{OK: false, Reply: "user_key is required", ErrorKind: "validation"}); err != nil {
				return
			}
			continue
		}

		res := h.dispatcher.Dispatch(r.Context(), userKey, in.Message)
		if err := conn.WriteJSON(h.toChatResponse(res)); err != nil {
			h.logger.Warn("httpapi.ws.write_failed", "error", err)
			return
		}
	}
}
