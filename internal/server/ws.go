package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/particle"
)

// maxViewport bounds client resize requests.
const maxViewport = 8192

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// RGB is the wire form of a color.
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// UniformsMessage is pushed to every connected client.
type UniformsMessage struct {
	Time            float64 `json:"time"`
	ExpansionFactor float64 `json:"expansionFactor"`
	BaseColor       RGB     `json:"baseColor"`
	TemplateSwitch  float64 `json:"templateSwitch"`
	Timestamp       int64   `json:"timestamp"`
}

// ClientMessage is sent by clients. Only "resize" is understood.
type ClientMessage struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// NewUniformsMessage converts a uniforms snapshot to its wire form.
func NewUniformsMessage(u particle.Uniforms, now time.Time) UniformsMessage {
	return UniformsMessage{
		Time:            u.Time,
		ExpansionFactor: u.ExpansionFactor,
		BaseColor:       RGB{R: u.BaseColor.R, G: u.BaseColor.G, B: u.BaseColor.B},
		TemplateSwitch:  u.TemplateSwitch,
		Timestamp:       now.UnixMilli(),
	}
}

// UniformsHandler pushes uniform snapshots over WebSocket and forwards
// resize requests to the source.
type UniformsHandler struct {
	source   Source
	interval time.Duration
	logger   *zap.Logger
}

// NewUniformsHandler creates a handler pushing every interval.
func NewUniformsHandler(source Source, interval time.Duration, logger *zap.Logger) *UniformsHandler {
	return &UniformsHandler{source: source, interval: interval, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *UniformsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	clients := metrics.StreamClients.WithLabelValues("websocket")
	clients.Inc()
	defer clients.Dec()

	// The reader owns conn reads; this goroutine owns writes.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		h.readLoop(conn)
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case now := <-ticker.C:
			msg := NewUniformsMessage(h.source.Uniforms(), now)
			conn.SetWriteDeadline(now.Add(2 * h.interval))
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("websocket client gone", zap.Error(err))
				return
			}
		}
	}
}

// readLoop handles client messages until the connection fails.
func (h *UniformsHandler) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if _, ok := err.(*websocket.CloseError); !ok {
				h.logger.Debug("websocket read", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("malformed message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case "resize":
			if msg.Width <= 0 || msg.Height <= 0 || msg.Width > maxViewport || msg.Height > maxViewport {
				h.logger.Debug("ignoring resize", zap.Int("width", msg.Width), zap.Int("height", msg.Height))
				continue
			}
			h.source.Resize(msg.Width, msg.Height)
		default:
			h.logger.Debug("unknown message", zap.String("type", msg.Type))
		}
	}
}
