package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/snapscan/snapscan/internal/enhance"
	"github.com/snapscan/snapscan/internal/pipeline"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketScanRequest is a scan request sent over a WebSocket connection.
// Image bytes travel base64-encoded in JSON.
type WebSocketScanRequest struct {
	Type     string `json:"type"` // "scan"
	Image    []byte `json:"image"`
	Mode     string `json:"mode,omitempty"`
	AutoCrop *bool  `json:"auto_crop,omitempty"`
	Deskew   *bool  `json:"deskew,omitempty"`
}

// WebSocketScanResponse is a message sent back to the client. Status is
// "processing", "completed", or "error"; processing messages carry the stage
// that just started.
type WebSocketScanResponse struct {
	Type   string      `json:"type"`
	Status string      `json:"status"`
	Stage  string      `json:"stage,omitempty"`
	Result *ScanResult `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// scanWebSocketHandler handles WebSocket connections for scans with
// per-stage progress reporting.
func (s *Server) scanWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	// read deadline prevents hanging connections; pongs extend it
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}

// handleWebSocketMessage runs one scan request and streams progress.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn *websocket.Conn, data []byte) {
	var req WebSocketScanRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "Invalid request format")
		return
	}
	if req.Type != "scan" {
		s.sendWebSocketError(conn, "Unknown request type")
		return
	}

	img, _, err := image.Decode(bytes.NewReader(req.Image))
	if err != nil {
		s.sendWebSocketError(conn, "Invalid image data")
		return
	}

	cfg := s.baseConfig
	if req.Mode != "" {
		mode, err := enhance.ParseMode(req.Mode)
		if err != nil {
			s.sendWebSocketError(conn, err.Error())
			return
		}
		cfg.Mode = mode
	}
	if req.AutoCrop != nil {
		cfg.AutoCrop = *req.AutoCrop
	}
	if req.Deskew != nil {
		cfg.Deskew = *req.Deskew
	}

	pl, err := pipeline.NewBuilder().
		WithAutoCrop(cfg.AutoCrop).
		WithDeskew(cfg.Deskew).
		WithMode(cfg.Mode).
		WithDetectorConfig(cfg.Detector).
		WithEnhanceConfig(cfg.Enhance).
		WithProgress(func(stage pipeline.Stage) {
			if stage == pipeline.StageDone {
				return
			}
			s.sendWebSocketMessage(conn, WebSocketScanResponse{
				Type:   "scan",
				Status: "processing",
				Stage:  string(stage),
			})
		}).
		Build()
	if err != nil {
		s.sendWebSocketError(conn, err.Error())
		return
	}

	res, err := pl.Process(ctx, img)
	if err != nil {
		scanRequestsTotal.WithLabelValues(cfg.Mode.String(), "error").Inc()
		s.sendWebSocketError(conn, err.Error())
		return
	}
	scanRequestsTotal.WithLabelValues(cfg.Mode.String(), "ok").Inc()

	result, err := buildScanResult(cfg, res, true)
	if err != nil {
		s.sendWebSocketError(conn, "Failed to encode result image")
		return
	}
	s.sendWebSocketMessage(conn, WebSocketScanResponse{
		Type:   "scan",
		Status: "completed",
		Result: result,
	})
}

func (s *Server) sendWebSocketMessage(conn *websocket.Conn, msg WebSocketScanResponse) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal WebSocket message", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("failed to write WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func (s *Server) sendWebSocketError(conn *websocket.Conn, message string) {
	s.sendWebSocketMessage(conn, WebSocketScanResponse{
		Type:   "scan",
		Status: "error",
		Error:  message,
	})
}
