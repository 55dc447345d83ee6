// Package metrics defines the Prometheus collectors exported by mudra.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Detection outcomes used as the "result" label of Detections.
const (
	ResultHand    = "hand"
	ResultNone    = "none"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

var (
	// FramesRendered counts frames drawn by the render loop.
	FramesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mudra_frames_rendered_total",
		Help: "Number of particle frames rendered",
	})

	// FrameDuration tracks time spent evaluating and drawing one frame.
	FrameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mudra_frame_duration_seconds",
		Help:    "Time to morph and rasterise one frame",
		Buckets: []float64{.001, .002, .004, .008, .016, .033, .066, .1},
	})

	// Detections counts landmark inference results by outcome.
	Detections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mudra_detections_total",
		Help: "Hand landmark detection results by outcome",
	}, []string{"result"})

	// ExpansionFactor mirrors the current expansion uniform.
	ExpansionFactor = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mudra_expansion_factor",
		Help: "Current particle field expansion factor",
	})

	// TemplateSwitch mirrors the current template switch uniform.
	TemplateSwitch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mudra_template_switch",
		Help: "1 when the shape templates are active, 0 when idle",
	})

	// StreamClients counts connected MJPEG and WebSocket clients.
	StreamClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mudra_stream_clients",
		Help: "Connected streaming clients by kind",
	}, []string{"kind"})
)
