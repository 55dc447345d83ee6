package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGauges(t *testing.T) {
	ExpansionFactor.Set(2.5)
	TemplateSwitch.Set(1)

	assert.Equal(t, 2.5, testutil.ToFloat64(ExpansionFactor))
	assert.Equal(t, 1.0, testutil.ToFloat64(TemplateSwitch))
}

func TestDetections(t *testing.T) {
	before := testutil.ToFloat64(Detections.WithLabelValues(ResultHand))
	Detections.WithLabelValues(ResultHand).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Detections.WithLabelValues(ResultHand)))
}

func TestStreamClients(t *testing.T) {
	g := StreamClients.WithLabelValues("mjpeg")
	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, 1.0, testutil.ToFloat64(g))
	assert.Equal(t, 1, testutil.CollectAndCount(FramesRendered, "mudra_frames_rendered_total"))
}
