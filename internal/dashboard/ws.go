package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"student-predictor/internal/features"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait   = 10 * time.Second
	wsMaxMessage  = 4096
	wsIdleTimeout = 5 * time.Minute
)

// handleWebSocket answers each profile message with one prediction, in order.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()
	if s.metrics != nil {
		s.metrics.WSConnectionsAdd(1)
	}

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		if s.metrics != nil {
			s.metrics.WSConnectionsAdd(-1)
		}
	}()

	conn.SetReadLimit(wsMaxMessage)
	requestID := RequestID(r.Context())

	for {
		conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("request_id", requestID).Msg("WebSocket read failed")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if s.metrics != nil {
			s.metrics.WSMessagesInc()
		}

		var reply interface{}
		var p features.Profile
		if err := json.Unmarshal(data, &p); err != nil {
			reply = errorResponse{Error: "invalid request: " + err.Error(), RequestID: requestID}
		} else if pred, err := s.svc.Predict(r.Context(), p); err != nil {
			reply = errorResponse{Error: err.Error(), RequestID: requestID}
		} else {
			reply = pred
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				log.Error().Err(err).Str("request_id", requestID).Msg("Failed to send message to WebSocket client")
			}
			return
		}
	}
}
