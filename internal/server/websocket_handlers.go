package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is left to the deployment's proxy.
		return true
	},
}

// WebSocketExtractRequest is an extraction request sent by a client. The
// image is base64-encoded by encoding/json's []byte handling.
type WebSocketExtractRequest struct {
	Type  string `json:"type"` // "image"
	Image []byte `json:"image,omitempty"`
}

// WebSocketExtractResponse is the server's reply.
type WebSocketExtractResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "processing", "completed", "error"
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// webSocketConnWriter is the writing side of a WebSocket connection.
type webSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// extractWebSocketHandler handles WebSocket connections for interactive
// extraction sessions.
func (s *Server) extractWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("upgrading connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

func (s *Server) handleWebSocketMessage(ctx context.Context, conn *websocket.Conn, data []byte) {
	var req WebSocketExtractRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	if req.Type != "image" {
		s.sendWebSocketError(conn, "invalid_request", "Unsupported request type: "+req.Type)
		return
	}
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, "invalid_request", "No image data provided")
		return
	}

	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)
	s.sendWebSocketResponse(conn, WebSocketExtractResponse{
		Type:      "extract_response",
		Status:    "processing",
		RequestID: requestID,
	})

	img, _, err := image.Decode(bytes.NewReader(req.Image))
	if err != nil {
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("Failed to decode image: %v", err))
		return
	}

	result, err := s.runExtraction(ctx, img, "websocket")
	if err != nil {
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("Extraction failed: %v", err))
		return
	}

	s.sendWebSocketResponse(conn, WebSocketExtractResponse{
		Type:      "extract_response",
		Status:    "completed",
		Result:    result,
		RequestID: requestID,
	})
}

func (s *Server) sendWebSocketResponse(conn webSocketConnWriter, response WebSocketExtractResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("marshaling WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("sending WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func (s *Server) sendWebSocketError(conn webSocketConnWriter, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketExtractResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}
