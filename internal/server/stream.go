package server

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/metrics"
)

// StreamHandler serves rendered frames as MJPEG.
type StreamHandler struct {
	source   Source
	interval time.Duration
	logger   *zap.Logger
}

// NewStreamHandler creates a handler polling source every interval.
func NewStreamHandler(source Source, interval time.Duration, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{source: source, interval: interval, logger: logger}
}

// ServeHTTP streams MJPEG frames to the client until it disconnects.
// A frame is sent only when a new one has been rendered.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clients := metrics.StreamClients.WithLabelValues("mjpeg")
	clients.Inc()
	defer clients.Dec()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame, seq := h.source.LatestFrame()
		if len(frame) == 0 || seq == last {
			continue
		}
		last = seq

		if err := writePart(w, frame); err != nil {
			h.logger.Debug("stream client gone", zap.Error(err))
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

// writePart writes one JPEG part of the multipart stream.
func writePart(w http.ResponseWriter, frame []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame)); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
